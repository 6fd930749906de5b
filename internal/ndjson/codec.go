package ndjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// MaxMessageSize caps a single NDJSON line at 256 KiB.
const MaxMessageSize = 256 * 1024

// Encoder writes NDJSON messages to an output stream.
type Encoder struct {
	w      io.Writer
	logger *slog.Logger
}

// NewEncoder creates a new NDJSON encoder.
func NewEncoder(w io.Writer, logger *slog.Logger) *Encoder {
	return &Encoder{w: w, logger: logger}
}

// Encode writes v as one JSON line. The line goes out in a single Write call
// so messages on a shared pipe are never interleaved or left half-flushed.
func (e *Encoder) Encode(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if len(data) > MaxMessageSize {
		e.logger.Error("refusing oversized message",
			"size", len(data),
			"limit", MaxMessageSize)
		return fmt.Errorf("message size %d exceeds limit %d", len(data), MaxMessageSize)
	}
	if _, err := e.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Decoder reads NDJSON messages from an input stream.
type Decoder struct {
	r       *bufio.Reader
	logger  *slog.Logger
	lineNum int
}

// NewDecoder creates a new NDJSON decoder.
func NewDecoder(r io.Reader, logger *slog.Logger) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, 64*1024), logger: logger}
}

// LineNum returns the number of the most recently read line (1-based).
func (d *Decoder) LineNum() int {
	return d.lineNum
}

// DecodeRaw returns the next non-empty line without interpreting it, so a
// malformed line can be reported with its content intact. The returned slice
// is owned by the caller.
func (d *Decoder) DecodeRaw() ([]byte, error) {
	for {
		line, err := d.nextLine()
		if err != nil {
			return nil, err
		}
		if len(line) > 0 {
			return line, nil
		}
	}
}

// Decode reads the next NDJSON message into v.
func (d *Decoder) Decode(v any) error {
	data, err := d.DecodeRaw()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		d.logger.Error("bad JSON line",
			"line", d.lineNum,
			"error", err,
			"prefix", string(data[:min(len(data), 100)]))
		return fmt.Errorf("unmarshal line %d: %w", d.lineNum, err)
	}
	return nil
}

// nextLine accumulates bytes up to the next newline, enforcing the message
// size cap even when one line overflows the reader's internal buffer.
func (d *Decoder) nextLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := d.r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > MaxMessageSize+1 {
			d.lineNum++
			d.logger.Error("oversized line",
				"line", d.lineNum,
				"limit", MaxMessageSize)
			return nil, fmt.Errorf("line %d exceeds %d byte limit", d.lineNum, MaxMessageSize)
		}
		switch err {
		case nil:
			d.lineNum++
			return trimEOL(line), nil
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			if len(line) == 0 {
				return nil, io.EOF
			}
			d.lineNum++
			return trimEOL(line), nil
		default:
			return nil, fmt.Errorf("read line %d: %w", d.lineNum+1, err)
		}
	}
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}
