// Package execclick performs click actions by running an external
// automation executable once per click point:
//
//	<executable> [script] <x> <y> <clicks>
package execclick

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/kodabkr/Multi-Clicker/internal/core/sequencer"
)

const maxStderr = 512

type Config struct {
	Executable string
	// Script is passed before the coordinates when set, e.g. an
	// AutoHotkey script run by the AutoHotkey interpreter.
	Script string
	Env    []string
}

type Runner struct {
	cfg    Config
	logger sequencer.Logger
}

var _ sequencer.Clicker = (*Runner)(nil)

func NewRunner(cfg Config, logger sequencer.Logger) (*Runner, error) {
	if strings.TrimSpace(cfg.Executable) == "" {
		return nil, fmt.Errorf("click executable is not configured")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &Runner{cfg: cfg, logger: logger}, nil
}

// Click runs the executable and waits for it. The process is not tied to
// any cancellation: a started click always runs to completion.
func (r *Runner) Click(x, y, clicks int) error {
	args := make([]string, 0, 4)
	if r.cfg.Script != "" {
		args = append(args, r.cfg.Script)
	}
	args = append(args, strconv.Itoa(x), strconv.Itoa(y), strconv.Itoa(clicks))

	cmd := exec.Command(r.cfg.Executable, args...)
	if len(r.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), r.cfg.Env...)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	configureCommand(cmd)

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > maxStderr {
			detail = detail[:maxStderr]
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if detail != "" {
				return fmt.Errorf("click action exited with status %d: %s: %w", exitErr.ExitCode(), detail, err)
			}
			return fmt.Errorf("click action exited with status %d: %w", exitErr.ExitCode(), err)
		}
		return fmt.Errorf("failed to run click action: %w", err)
	}

	r.logger.Debug("Click action done", "x", x, "y", y, "clicks", clicks)
	return nil
}
