package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Manifest is the full provisioning manifest: static configuration data
// that parameterizes the fixed step sequence. It carries no logic; the
// step list itself is not reconfigurable at runtime.
type Manifest struct {
	// Mirror configures the apt package mirror.
	Mirror MirrorConfig `yaml:"mirror" validate:"required"`

	// Packages are the base apt packages to install.
	Packages []string `yaml:"packages" validate:"min=1,dive,required"`

	// Editor configures the user shell/editor dotfiles.
	Editor EditorConfig `yaml:"editor"`

	// Docker configures the container runtime and image prefetch.
	Docker DockerConfig `yaml:"docker"`

	// Conda configures the Miniconda installation and managed environment.
	Conda CondaConfig `yaml:"conda" validate:"required"`

	// SourceTools are the tools built and installed from source.
	SourceTools []SourceTool `yaml:"source_tools" validate:"dive"`

	// Workspace is the shared staging directory for source builds.
	Workspace string `yaml:"workspace" validate:"required"`

	// Retry is the budget for network-facing operations.
	Retry RetryConfig `yaml:"retry"`

	// JournalPath enables the sqlite run journal when non-empty.
	JournalPath string `yaml:"journal_path"`
}

// MirrorConfig describes the apt mirror written to sources.list.
type MirrorConfig struct {
	// Host is the mirror hostname, e.g. "mirrors.tuna.tsinghua.edu.cn".
	Host string `yaml:"host" validate:"required,hostname"`

	// Distribution is the release codename, e.g. "jammy".
	Distribution string `yaml:"distribution" validate:"required"`

	// Components are the repository components, e.g. main/universe.
	Components []string `yaml:"components" validate:"min=1,dive,required"`
}

// EditorConfig describes the dotfiles the environment-configuration step
// writes. Vimrc is overwritten; BashrcAppend is appended as-is, so reruns
// duplicate the snippet, a documented limitation, not silently fixed.
type EditorConfig struct {
	// Home overrides the target home directory. Empty means the current
	// user's home.
	Home string `yaml:"home"`

	// Vimrc is the full ~/.vimrc content.
	Vimrc string `yaml:"vimrc"`

	// BashrcAppend is appended to ~/.bashrc.
	BashrcAppend string `yaml:"bashrc_append"`
}

// DockerConfig describes the container runtime setup.
type DockerConfig struct {
	// Packages are the apt packages that provide the runtime.
	Packages []string `yaml:"packages" validate:"min=1,dive,required"`

	// Images are prefetched after installation so analysis containers are
	// available offline.
	Images []string `yaml:"images" validate:"dive,required"`
}

// CondaConfig describes the Miniconda installation, channel order, and the
// managed analysis environment.
type CondaConfig struct {
	// InstallerURL is the Miniconda installer script location.
	InstallerURL string `yaml:"installer_url" validate:"required,url"`

	// Prefix is the installation prefix, e.g. /opt/miniconda3.
	Prefix string `yaml:"prefix" validate:"required"`

	// Channels are added in order with `conda config --add channels`;
	// order is significant (the last added has the highest priority).
	Channels []string `yaml:"channels" validate:"min=1,dive,required"`

	// Environment is the managed environment to create.
	Environment CondaEnv `yaml:"environment" validate:"required"`
}

// CondaEnv is one named conda environment and its packages.
type CondaEnv struct {
	Name     string   `yaml:"name" validate:"required"`
	Packages []string `yaml:"packages" validate:"min=1,dive,required"`
}

// SourceTool is one tool fetched from a git repository and built with the
// given recipe.
type SourceTool struct {
	// Name is the tool (and clone directory) name.
	Name string `yaml:"name" validate:"required"`

	// Repo is the git repository URL.
	Repo string `yaml:"repo" validate:"required,url"`

	// Recipe is the ordered list of build commands, argv form.
	Recipe [][]string `yaml:"recipe" validate:"min=1,dive,min=1"`
}

// RetryConfig is the fixed retry budget for network-facing operations.
type RetryConfig struct {
	// Attempts is the total number of attempts, including the first.
	Attempts int `yaml:"attempts" validate:"min=1"`

	// Delay is the fixed wait between attempts.
	Delay Duration `yaml:"delay" validate:"min=0"`
}

// DefaultManifest returns the stock bioinformatics workstation setup. The
// binary runs usefully with no manifest file at all.
func DefaultManifest() *Manifest {
	return &Manifest{
		Mirror: MirrorConfig{
			Host:         "archive.ubuntu.com",
			Distribution: "jammy",
			Components:   []string{"main", "restricted", "universe", "multiverse"},
		},
		Packages: []string{
			"build-essential", "autoconf", "automake", "libtool", "pkg-config",
			"git", "curl", "wget", "unzip",
			"zlib1g-dev", "libbz2-dev", "liblzma-dev", "libncurses-dev",
			"libcurl4-openssl-dev", "libssl-dev",
			"python3", "python3-pip", "default-jre",
			"vim", "htop", "tree", "parallel",
		},
		Editor: EditorConfig{
			Vimrc:        defaultVimrc,
			BashrcAppend: defaultBashrcAppend,
		},
		Docker: DockerConfig{
			Packages: []string{"docker.io"},
			Images: []string{
				"biocontainers/fastqc:v0.11.9_cv8",
				"staphb/bwa:latest",
				"staphb/multiqc:latest",
			},
		},
		Conda: CondaConfig{
			InstallerURL: "https://repo.anaconda.com/miniconda/Miniconda3-latest-Linux-x86_64.sh",
			Prefix:       "/opt/miniconda3",
			Channels:     []string{"defaults", "bioconda", "conda-forge"},
			Environment: CondaEnv{
				Name: "bioinfo",
				Packages: []string{
					"python=3.11", "numpy", "pandas", "scipy",
					"matplotlib", "biopython", "snakemake-minimal",
				},
			},
		},
		SourceTools: []SourceTool{
			{
				Name: "htslib",
				Repo: "https://github.com/samtools/htslib",
				Recipe: [][]string{
					{"autoreconf", "-i"},
					{"./configure"},
					{"make"},
					{"make", "install"},
				},
			},
			{
				Name: "samtools",
				Repo: "https://github.com/samtools/samtools",
				Recipe: [][]string{
					{"autoheader"},
					{"autoconf", "-Wno-syntax"},
					{"./configure"},
					{"make"},
					{"make", "install"},
				},
			},
			{
				Name: "bcftools",
				Repo: "https://github.com/samtools/bcftools",
				Recipe: [][]string{
					{"autoheader"},
					{"autoconf"},
					{"./configure"},
					{"make"},
					{"make", "install"},
				},
			},
		},
		Workspace: "/tmp/biosetup-build",
		Retry: RetryConfig{
			Attempts: 3,
			Delay:    Duration(5 * time.Second),
		},
	}
}

// Load reads a manifest from path, layered over the defaults, and
// validates it.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	m := DefaultManifest()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the manifest against its field constraints and reports
// every violation.
func (m *Manifest) Validate() error {
	v := validator.New()
	if err := v.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("invalid manifest: %w", verrs)
		}
		return fmt.Errorf("invalid manifest: %w", err)
	}
	return nil
}

const defaultVimrc = `syntax on
set number
set ruler
set tabstop=4
set shiftwidth=4
set expandtab
set hlsearch
set incsearch
set autoindent
`

const defaultBashrcAppend = `
# added by biosetup
export PATH="/opt/miniconda3/bin:$PATH"
alias ll='ls -alhF'
alias pull='git pull'
`
