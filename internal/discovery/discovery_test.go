package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func mustWrite(t *testing.T, root, relPath, contents string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", full, err)
	}
}

func TestScanFindsProjectsDeterministically(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	mustWrite(t, tmpDir, "apps/zeta/.planning/STATE.md", "Phase: 3 of 4 (Polish)\nPlan: 1 of 2\n")
	mustWrite(t, tmpDir, "apps/alpha/.planning/STATE.md", "Phase: 1 of 2 (Foundation)\nPlan: 1 of 3\n")
	mustWrite(t, tmpDir, "apps/alpha/.planning/PROJECT.md", "# alpha\n")
	mustWrite(t, tmpDir, "apps/plain/README.md", "not a project\n")

	projects, err := Scan(DefaultConfig(tmpDir))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2: %+v", len(projects), projects)
	}
	if projects[0].Name != "alpha" || projects[1].Name != "zeta" {
		t.Fatalf("wrong order: %+v", projects)
	}
	if projects[0].RelPath != filepath.Join("apps", "alpha") {
		t.Errorf("got rel_path %q", projects[0].RelPath)
	}
	if projects[0].CurrentPhase != 1 || projects[0].CurrentPhaseName != "Foundation" {
		t.Errorf("alpha phase not enriched: %+v", projects[0])
	}
	if projects[1].CurrentPhase != 3 || projects[1].CurrentPhaseName != "Polish" {
		t.Errorf("zeta phase not enriched: %+v", projects[1])
	}
}

func TestScanSkipsIgnoredAndHiddenDirs(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	mustWrite(t, tmpDir, "node_modules/pkg/.planning/STATE.md", "Phase: 1 of 1 (X)\n")
	mustWrite(t, tmpDir, ".archive/old/.planning/STATE.md", "Phase: 1 of 1 (X)\n")
	mustWrite(t, tmpDir, "real/.planning/STATE.md", "Phase: 1 of 1 (X)\n")

	projects, err := Scan(DefaultConfig(tmpDir))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(projects) != 1 || projects[0].Name != "real" {
		t.Fatalf("got %+v, want only the real project", projects)
	}
}

func TestScanRootIsAProject(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	mustWrite(t, tmpDir, ".planning/STATE.md", "Phase: 2 of 3 (Build)\n")
	// Nothing below a project directory is scanned
	mustWrite(t, tmpDir, "sub/.planning/STATE.md", "Phase: 1 of 1 (X)\n")

	projects, err := Scan(DefaultConfig(tmpDir))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(projects) != 1 {
		t.Fatalf("got %d projects, want 1: %+v", len(projects), projects)
	}
	if projects[0].RelPath != "." {
		t.Errorf("got rel_path %q, want .", projects[0].RelPath)
	}
	if projects[0].CurrentPhase != 2 {
		t.Errorf("got phase %d, want 2", projects[0].CurrentPhase)
	}
}

func TestScanRespectsMaxDepth(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	mustWrite(t, tmpDir, "a/b/c/d/e/deep/.planning/STATE.md", "Phase: 1 of 1 (X)\n")
	mustWrite(t, tmpDir, "shallow/.planning/STATE.md", "Phase: 1 of 1 (X)\n")

	projects, err := Scan(DefaultConfig(tmpDir))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(projects) != 1 || projects[0].Name != "shallow" {
		t.Fatalf("got %+v, want only the shallow project", projects)
	}
}

func TestScanRespectsMaxResults(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	mustWrite(t, tmpDir, "one/.planning/STATE.md", "Phase: 1 of 1 (X)\n")
	mustWrite(t, tmpDir, "two/.planning/STATE.md", "Phase: 1 of 1 (X)\n")
	mustWrite(t, tmpDir, "three/.planning/STATE.md", "Phase: 1 of 1 (X)\n")

	cfg := DefaultConfig(tmpDir)
	cfg.MaxResults = 2

	projects, err := Scan(cfg)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}
}

func TestScanRootValidation(t *testing.T) {
	t.Parallel()

	if _, err := Scan(Config{Root: ""}); err == nil {
		t.Error("expected error for empty root")
	}

	if _, err := Scan(DefaultConfig(filepath.Join(t.TempDir(), "absent"))); err == nil {
		t.Error("expected error for missing root")
	}

	tmpDir := t.TempDir()
	mustWrite(t, tmpDir, "file.txt", "x")
	if _, err := Scan(DefaultConfig(filepath.Join(tmpDir, "file.txt"))); err == nil {
		t.Error("expected error for non-directory root")
	}
}
