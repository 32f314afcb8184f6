package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultManifestValidates(t *testing.T) {
	if err := DefaultManifest().Validate(); err != nil {
		t.Fatalf("built-in manifest must validate: %v", err)
	}
}

func TestDefaultManifestShape(t *testing.T) {
	m := DefaultManifest()

	if m.Retry.Attempts != 3 {
		t.Errorf("default retry attempts = %d, want 3", m.Retry.Attempts)
	}
	if len(m.SourceTools) != 3 {
		t.Fatalf("expected 3 source tools, got %d", len(m.SourceTools))
	}
	// htslib must come first: samtools and bcftools build against it.
	if m.SourceTools[0].Name != "htslib" {
		t.Errorf("first source tool = %s, want htslib", m.SourceTools[0].Name)
	}
	if m.Conda.Channels[len(m.Conda.Channels)-1] != "conda-forge" {
		t.Errorf("conda-forge must be added last (highest priority), got %v", m.Conda.Channels)
	}
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "setup.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeManifest(t, `
mirror:
  host: mirrors.tuna.tsinghua.edu.cn
  distribution: jammy
  components: [main, universe]
retry:
  attempts: 5
  delay: 2s
workspace: /var/tmp/bio-build
`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Mirror.Host != "mirrors.tuna.tsinghua.edu.cn" {
		t.Errorf("mirror host = %s", m.Mirror.Host)
	}
	if m.Retry.Attempts != 5 || m.Retry.Delay.Std() != 2*time.Second {
		t.Errorf("retry = %+v", m.Retry)
	}
	if m.Workspace != "/var/tmp/bio-build" {
		t.Errorf("workspace = %s", m.Workspace)
	}
	// Untouched sections keep their defaults.
	if len(m.Packages) == 0 || m.Conda.Prefix != "/opt/miniconda3" {
		t.Error("defaults must survive a partial manifest")
	}
}

func TestLoadRejectsInvalidManifest(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name: "missing mirror host",
			content: `
mirror:
  host: ""
  distribution: jammy
  components: [main]
`,
			want: "Host",
		},
		{
			name: "empty packages",
			content: `
packages: []
`,
			want: "Packages",
		},
		{
			name: "bad installer url",
			content: `
conda:
  installer_url: "not a url"
`,
			want: "InstallerURL",
		},
		{
			name: "zero retry attempts",
			content: `
retry:
  attempts: 0
  delay: 1s
`,
			want: "Attempts",
		},
		{
			name: "bad duration",
			content: `
retry:
  delay: soon
`,
			want: "invalid duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation failure")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing manifest")
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := Duration(90 * time.Second)
	out, err := d.MarshalYAML()
	if err != nil {
		t.Fatal(err)
	}
	if out != "1m30s" {
		t.Errorf("MarshalYAML = %v", out)
	}
}
