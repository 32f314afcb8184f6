package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDirIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	if err := EnsureDir(dir); err != nil {
		t.Fatalf("first EnsureDir failed: %v", err)
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("second EnsureDir must be a no-op, got: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("directory missing after EnsureDir: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("EnsureDir created a non-directory")
	}
}

func TestEnsureCleanDir(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, path string)
	}{
		{
			name:  "absent",
			setup: func(t *testing.T, path string) {},
		},
		{
			name: "present empty",
			setup: func(t *testing.T, path string) {
				if err := os.MkdirAll(path, 0755); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "present nonempty",
			setup: func(t *testing.T, path string) {
				if err := os.MkdirAll(filepath.Join(path, "nested"), 0755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(filepath.Join(path, "stale.o"), []byte("junk"), 0644); err != nil {
					t.Fatal(err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "workspace")
			tt.setup(t, path)

			if err := EnsureCleanDir(path); err != nil {
				t.Fatalf("EnsureCleanDir failed: %v", err)
			}

			entries, err := os.ReadDir(path)
			if err != nil {
				t.Fatalf("directory missing after EnsureCleanDir: %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("directory not empty after EnsureCleanDir: %d entries", len(entries))
			}
		})
	}
}

func TestWorkspaceResetAndRemove(t *testing.T) {
	ws := Workspace{Root: filepath.Join(t.TempDir(), "ws")}

	if err := ws.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := os.Stat(ws.Root); err != nil {
		t.Fatalf("workspace missing after Reset: %v", err)
	}

	if err := ws.Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(ws.Root); !os.IsNotExist(err) {
		t.Errorf("workspace still present after Remove")
	}
}

func TestEnsureCleanDirFailureIsResourceClass(t *testing.T) {
	// A file where the directory should go makes MkdirAll fail.
	parent := t.TempDir()
	blocker := filepath.Join(parent, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	err := EnsureDir(filepath.Join(blocker, "child"))
	if err == nil {
		t.Fatal("expected failure creating a directory under a file")
	}
	if ClassOf(err) != ErrorClassResource {
		t.Errorf("expected resource classification, got %s", ClassOf(err))
	}
}
