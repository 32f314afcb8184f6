package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestShellCommandRunsInExplicitDir(t *testing.T) {
	dir := t.TempDir()
	cmd := &ShellCommand{
		Program: "sh",
		Args:    []string{"-c", "pwd > where"},
		Dir:     dir,
	}

	if err := cmd.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(dir, "where"))
	if err != nil {
		t.Fatalf("command did not run in %s: %v", dir, err)
	}
	got, err := filepath.EvalSymlinks(strings.TrimSpace(string(out)))
	if err != nil {
		t.Fatal(err)
	}
	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("command ran in %s, want %s", got, want)
	}
}

func TestShellCommandSurfacesStderr(t *testing.T) {
	cmd := &ShellCommand{
		Program: "sh",
		Args:    []string{"-c", "echo 'configure: error: zlib not found' >&2; exit 1"},
	}

	err := cmd.Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "zlib not found") {
		t.Errorf("stderr tail missing from error: %v", err)
	}
}

func TestShellCommandExtraEnv(t *testing.T) {
	dir := t.TempDir()
	cmd := &ShellCommand{
		Program: "sh",
		Args:    []string{"-c", `printf '%s' "$DEBIAN_FRONTEND" > env-val`},
		Dir:     dir,
		Env:     []string{"DEBIAN_FRONTEND=noninteractive"},
	}

	if err := cmd.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := os.ReadFile(filepath.Join(dir, "env-val"))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "noninteractive" {
		t.Errorf("extra env not applied, got %q", out)
	}
}

func TestShellCommandDescribe(t *testing.T) {
	labelled := &ShellCommand{Label: "refresh package index", Program: "apt-get", Args: []string{"update"}}
	if got := labelled.Describe(); got != "refresh package index" {
		t.Errorf("Describe = %q", got)
	}
	bare := &ShellCommand{Program: "apt-get", Args: []string{"install", "-y", "vim"}}
	if got := bare.Describe(); got != "apt-get install -y vim" {
		t.Errorf("Describe = %q", got)
	}
}

func TestFetchFileDownloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#!/bin/sh\necho installer\n"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "miniconda.sh")
	fetch := &FetchFile{URL: srv.URL, Dest: dest, Mode: 0755}

	if err := fetch.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("mode = %o, want 0755", info.Mode().Perm())
	}
	data, _ := os.ReadFile(dest)
	if !strings.Contains(string(data), "installer") {
		t.Error("downloaded content mismatch")
	}
}

func TestFetchFileBadStatusIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream busy", http.StatusBadGateway)
	}))
	defer srv.Close()

	fetch := &FetchFile{URL: srv.URL, Dest: filepath.Join(t.TempDir(), "f")}
	err := fetch.Run(context.Background())
	if err == nil {
		t.Fatal("expected failure on 502")
	}
	if !IsRetryable(err) {
		t.Error("HTTP failures must be retryable")
	}
}

func TestFetchFileConnectionErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	fetch := &FetchFile{URL: srv.URL, Dest: filepath.Join(t.TempDir(), "f")}
	err := fetch.Run(context.Background())
	if err == nil {
		t.Fatal("expected connection failure")
	}
	if ClassOf(err) != ErrorClassTransient {
		t.Errorf("expected transient class, got %s", ClassOf(err))
	}
}

func TestSequenceStopsAtFirstFailure(t *testing.T) {
	var ran []string
	mk := func(name string, err error) Action {
		return &ActionFunc{
			Label: name,
			Fn: func(ctx context.Context) error {
				ran = append(ran, name)
				return err
			},
		}
	}

	seq := &Sequence{
		Label: "composite",
		Actions: []Action{
			mk("a", nil),
			mk("b", errors.New("boom")),
			mk("c", nil),
		},
	}

	if err := seq.Run(context.Background()); err == nil {
		t.Fatal("expected failure")
	}
	if strings.Join(ran, ",") != "a,b" {
		t.Errorf("sequence ran %v, want a,b", ran)
	}
}
