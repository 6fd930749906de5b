package state

import (
	"regexp"
	"strings"
)

var checkboxPattern = regexp.MustCompile(`(?m)^-\s+\[([ xX])\]\s+(.+)$`)

// CheckboxItem is one "- [ ]" or "- [x]" list entry.
type CheckboxItem struct {
	Checked bool
	Text    string
}

// ExtractSection returns the markdown content under a heading of the given
// level, up to the next heading of the same or higher level. Deeper
// headings are included. Returns "" when the heading is absent.
func ExtractSection(content, header string, level int) string {
	lines := strings.Split(content, "\n")
	prefix := strings.Repeat("#", level)

	start := -1
	for i, line := range lines {
		if matchesHeading(line, prefix, header) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		if lvl := headingLevel(lines[i]); lvl > 0 && lvl <= level {
			end = i
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

// matchesHeading reports whether line is exactly a heading of the given
// prefix with the given text, allowing surrounding whitespace.
func matchesHeading(line, prefix, header string) bool {
	if !strings.HasPrefix(line, prefix) {
		return false
	}
	rest := line[len(prefix):]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return false
	}
	return strings.TrimSpace(rest) == header
}

// headingLevel counts leading '#' characters when followed by whitespace,
// else returns 0.
func headingLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n >= len(line) {
		return 0
	}
	if line[n] != ' ' && line[n] != '\t' {
		return 0
	}
	return n
}

// ParseCheckboxItems extracts "- [ ]" and "- [x]" entries from a section.
func ParseCheckboxItems(section string) []CheckboxItem {
	var items []CheckboxItem
	for _, m := range checkboxPattern.FindAllStringSubmatch(section, -1) {
		items = append(items, CheckboxItem{
			Checked: strings.EqualFold(m[1], "x"),
			Text:    strings.TrimSpace(m[2]),
		})
	}
	return items
}

// ParseTableRows parses a GFM table into maps keyed by the header row.
// The row immediately after the header is assumed to be the separator.
func ParseTableRows(section string) []map[string]string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(section), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	// Need at least header + separator + one data row
	if len(lines) < 3 {
		return nil
	}

	headerIdx := -1
	for i, line := range lines {
		if strings.Contains(line, "|") {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil
	}

	headers := splitCells(lines[headerIdx])

	var rows []map[string]string
	for _, line := range lines[headerIdx+2:] {
		if !strings.Contains(line, "|") {
			continue
		}
		cells := splitCells(line)
		row := make(map[string]string, len(headers))
		for j, header := range headers {
			if j < len(cells) {
				row[header] = cells[j]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows
}

func splitCells(line string) []string {
	parts := strings.Split(strings.Trim(line, "|"), "|")
	cells := make([]string, len(parts))
	for i, part := range parts {
		cells[i] = strings.TrimSpace(part)
	}
	return cells
}
