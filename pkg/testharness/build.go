// Package testharness compiles the openclawpack binaries and drives them
// through scripted end-to-end scenarios. The claude fixture is built under
// the name "claude" so that putting its directory on PATH satisfies the
// transport's binary resolution.
package testharness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// BuildBinaries compiles the openclawpack CLI and the claude fixture into
// outputDir and returns their absolute paths, CLI first.
func BuildBinaries(ctx context.Context, projectRoot, outputDir string) (string, string, error) {
	if projectRoot == "" {
		return "", "", fmt.Errorf("project root is required")
	}
	if outputDir == "" {
		return "", "", fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}

	targets := []struct {
		bin string
		pkg string
	}{
		{filepath.Join(outputDir, "openclawpack"), "./cmd/openclawpack"},
		{filepath.Join(outputDir, "claude"), "./cmd/claude-fixture"},
	}
	for _, target := range targets {
		if err := compile(ctx, projectRoot, target.bin, target.pkg); err != nil {
			return "", "", err
		}
	}
	return targets[0].bin, targets[1].bin, nil
}

// compile runs go build for one package. Cgo is disabled so the result does
// not depend on the runner having a C toolchain.
func compile(ctx context.Context, projectRoot, outputPath, pkg string) error {
	cmd := exec.CommandContext(ctx, "go", "build", "-trimpath", "-o", outputPath, pkg)
	cmd.Dir = projectRoot
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go build %s: %w\n%s", pkg, err, out.String())
	}
	return nil
}
