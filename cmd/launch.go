package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/launchpad/internal/ui"
)

// ExitError carries the exit code of a launched server.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("server exited with code %d", e.Code)
}

var launchCmd = &cobra.Command{
	Use:   "launch [-- args...]",
	Short: "Resolve a server and run it",
	Long: `Resolve the server like "resolve" does, then run it with stdin, stdout and
stderr attached. Arguments after "--" are passed to the server. Launchpad exits
with the server's exit code.`,
	RunE: runLaunch,
}

func init() {
	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	w := ui.NewWriter(noColor)

	c, err := resolveCommand(cmd.Context())
	if err != nil {
		w.Error(err.Error())

		return err
	}

	argv := append(append([]string{}, c.Args...), args...)
	slog.Debug("launching server", "command", c.Command, "args", argv)

	proc := exec.CommandContext(cmd.Context(), c.Command, argv...) //nolint:gosec // the binary was just resolved from the cache
	proc.Stdin = os.Stdin
	proc.Stdout = os.Stdout
	proc.Stderr = os.Stderr
	proc.Env = os.Environ()

	for k, v := range c.Env {
		proc.Env = append(proc.Env, k+"="+v)
	}

	if err := proc.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			if code < 0 {
				w.Warningf("%s was terminated by a signal", c.Command)

				code = 1
			}

			return &ExitError{Code: code}
		}

		w.Errorf("running %s: %v", c.Command, err)

		return fmt.Errorf("running %s: %w", c.Command, err)
	}

	return nil
}
