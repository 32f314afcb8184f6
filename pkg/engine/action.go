package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
)

// Action is a single fallible operation with a human-readable label. The
// retry executor and the pipeline operate on this interface and need no
// knowledge of what kind of operation they wrap: a shell command, a network
// fetch, a library call, or a composite of those.
type Action interface {
	// Describe returns a short label naming the operation, used in log
	// lines and error messages.
	Describe() string

	// Run performs the operation. Blocking; honors ctx cancellation where
	// the underlying operation supports it.
	Run(ctx context.Context) error
}

// ShellCommand runs one external program. The working directory and
// environment are explicit parameters: nothing here relies on ambient
// process state, so two commands never interfere through a shared cd.
type ShellCommand struct {
	// Label overrides the default description (program + args).
	Label string

	// Program is the executable to run (resolved via PATH if relative).
	Program string

	// Args are the program arguments.
	Args []string

	// Dir is the working directory. Empty means the process's own.
	Dir string

	// Env lists additional environment variables as KEY=VALUE, layered on
	// top of the process environment.
	Env []string
}

// Describe implements Action.
func (c *ShellCommand) Describe() string {
	if c.Label != "" {
		return c.Label
	}
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// Run implements Action. Stdout is discarded; the tail of stderr is folded
// into the returned error so a failed command names its own cause.
func (c *ShellCommand) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", c.Describe(), err, lastLines(msg, 5))
		}
		return fmt.Errorf("%s: %w", c.Describe(), err)
	}
	return nil
}

// lastLines returns at most n trailing lines of s.
func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// FetchFile downloads a URL to a local path. Failures are classified
// transient: every fetch target is a remote endpoint behind an unreliable
// network.
type FetchFile struct {
	// Label overrides the default description.
	Label string

	// URL is the remote resource to download.
	URL string

	// Dest is the local file path to write. Parent directory must exist.
	Dest string

	// Mode is the file mode for Dest. Zero means 0644.
	Mode os.FileMode

	// Client overrides the HTTP client. Nil means http.DefaultClient.
	Client *http.Client
}

// Describe implements Action.
func (f *FetchFile) Describe() string {
	if f.Label != "" {
		return f.Label
	}
	return fmt.Sprintf("fetch %s", f.URL)
}

// Run implements Action.
func (f *FetchFile) Run(ctx context.Context) error {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return NewPermanentError("invalid fetch request", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return NewTransientError(fmt.Sprintf("fetching %s", f.URL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return NewTransientError(
			fmt.Sprintf("fetching %s", f.URL),
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	mode := f.Mode
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(f.Dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return NewResourceError(fmt.Sprintf("creating %s", f.Dest), err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return NewTransientError(fmt.Sprintf("writing %s", f.Dest), err)
	}
	return nil
}

// ActionFunc adapts a plain function into an Action. Used for library-call
// steps such as workspace resets, config file writes and repository clones.
type ActionFunc struct {
	Label string
	Fn    func(ctx context.Context) error
}

// Describe implements Action.
func (a *ActionFunc) Describe() string { return a.Label }

// Run implements Action.
func (a *ActionFunc) Run(ctx context.Context) error { return a.Fn(ctx) }

// Sequence runs sub-actions in order and stops at the first failure.
type Sequence struct {
	Label   string
	Actions []Action
}

// Describe implements Action.
func (s *Sequence) Describe() string { return s.Label }

// Run implements Action.
func (s *Sequence) Run(ctx context.Context) error {
	for _, a := range s.Actions {
		if err := a.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}
