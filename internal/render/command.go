package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// CommandVars are substituted into a post-render command line as
// ${width}, ${height} and ${tmpDirectory}.
type CommandVars struct {
	Width, Height int
	Dir           string
}

// ExpandCommand splits cmdline on whitespace and substitutes vars into
// every argument.
func ExpandCommand(cmdline string, vars CommandVars) []string {
	r := strings.NewReplacer(
		"${width}", strconv.Itoa(vars.Width),
		"${height}", strconv.Itoa(vars.Height),
		"${tmpDirectory}", vars.Dir,
	)
	args := strings.Fields(cmdline)
	for i, a := range args {
		args[i] = r.Replace(a)
	}
	return args
}

// RunCommand runs the expanded cmdline with its output copied to stdout
// and stderr. A blank cmdline does nothing. A non-zero exit is reported as
// an *exec.ExitError.
func RunCommand(ctx context.Context, cmdline string, vars CommandVars, stdout, stderr io.Writer, logger *slog.Logger) error {
	args := ExpandCommand(cmdline, vars)
	if len(args) == 0 {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Running command", "command", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // G204: the command comes from the user's configuration
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	err := cmd.Run()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		logger.Info("Command finished", "exit_code", 0)
	case errors.As(err, &exitErr):
		logger.Warn("Command failed", "exit_code", exitErr.ExitCode())
		return fmt.Errorf("command %s exited with %d: %w", args[0], exitErr.ExitCode(), err)
	default:
		return fmt.Errorf("failed to run %s: %w", args[0], err)
	}
	return nil
}

// RemoveFrames deletes the given frame files, ignoring ones already gone.
func RemoveFrames(paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
