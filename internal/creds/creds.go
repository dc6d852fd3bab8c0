// Package creds retrieves account credentials from a password manager by
// running configured shell commands, with an interactive prompt fallback.
package creds

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/ephes/kptncook/internal/config"
)

// FromCommand runs a shell command and returns its trimmed stdout, e.g.
// `op read op://Personal/KptnCook/username`.
func FromCommand(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("running credential command: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("running credential command: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Prompter asks the user for a missing credential. Password prompts must
// not echo.
type Prompter interface {
	Ask(prompt string, secret bool) (string, error)
}

// Get resolves username and password: configured password manager
// commands first, then the prompter for whatever is still missing. A nil
// prompter skips the fallback.
func Get(ctx context.Context, cfg config.Credentials, prompter Prompter) (username, password string, err error) {
	if cfg.UsernameCommand != "" {
		username, err = FromCommand(ctx, cfg.UsernameCommand)
		if err != nil {
			return "", "", fmt.Errorf("retrieving username: %w", err)
		}
	}
	if cfg.PasswordCommand != "" {
		password, err = FromCommand(ctx, cfg.PasswordCommand)
		if err != nil {
			return "", "", fmt.Errorf("retrieving password: %w", err)
		}
	}

	if prompter != nil {
		if username == "" {
			username, err = prompter.Ask("Enter your kptncook email address", false)
			if err != nil {
				return "", "", err
			}
		}
		if password == "" {
			password, err = prompter.Ask("Enter your kptncook password", true)
			if err != nil {
				return "", "", err
			}
		}
	}
	return username, password, nil
}

// StdioPrompter reads answers line-wise from an input stream, writing the
// prompt to an output stream. The secret flag is accepted but input is not
// masked, terminals without echo control still work.
type StdioPrompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

func (p *StdioPrompter) Ask(prompt string, secret bool) (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	if _, err := fmt.Fprintf(p.Out, "%s: ", prompt); err != nil {
		return "", fmt.Errorf("writing prompt: %w", err)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
