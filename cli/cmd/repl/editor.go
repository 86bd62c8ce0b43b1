package repl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ardnew/codeblock/log"
	"github.com/ardnew/codeblock/manifest"
)

const defaultEditor = "vi"

// editManifestCommand implements [tea.ExecCommand] for the manifest
// edit-load-retry loop. It copies the manifest to a temp file, opens the
// user's editor, and loads the result. On load error the user is prompted
// to re-edit. The manifest file is replaced only when the edit loads.
type editManifestCommand struct {
	path    string
	opts    []manifest.Option
	ctxFunc func() context.Context
	logger  log.Logger
	saved   bool
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editManifestCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editManifestCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editManifestCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-load-retry loop. If the user declines to re-edit,
// it returns [ErrEditDeclined].
func (c *editManifestCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(os.TempDir(), "codeblock-repl-*"+filepath.Ext(c.path))
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	f.Close()

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath); err != nil {
			return err
		}

		if content, err = os.ReadFile(tmpPath); err != nil {
			return err
		}

		// An emptied file cancels the edit.
		if len(bytes.TrimSpace(content)) == 0 {
			return nil
		}

		_, loadErr := manifest.Load(ctx, bytes.NewReader(content), c.opts...)
		c.logger.TraceContext(ctx, "editor load attempt",
			slog.Int("content_length", len(content)),
			slog.Bool("success", loadErr == nil),
		)

		if loadErr == nil {
			if err := os.WriteFile(c.path, content, 0o600); err != nil {
				return err
			}

			c.saved = true

			return nil
		}

		fmt.Fprintf(c.stderr, "\nLoad error: %s\n", loadErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}
	}
}

// runEditor launches the user's editor on the given file path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
