// Package cmdlog accounts for CLI command runs in metrics and logs.
package cmdlog

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"outreach/internal/logging"
	"outreach/internal/metrics"
)

// RunE is the cobra command handler signature.
type RunE func(cmd *cobra.Command, args []string) error

// Wrap returns f as a RunE accounted under name. See Run for expected.
func Wrap(name string, f RunE, expected ...error) RunE {
	return func(cmd *cobra.Command, args []string) error {
		return Run(name, func() error { return f(cmd, args) }, expected...)
	}
}

// Run executes f as the named command. An error matching one of expected,
// such as an exhausted send budget, is logged as a skip and not counted as a
// failure. It is still returned so the exit code reflects it.
func Run(name string, f func() error, expected ...error) error {
	metrics.IncCommandRun(name)
	start := time.Now()
	err := f()

	fields := map[string]any{
		"run_id":      uuid.NewString(),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	switch {
	case err == nil:
		logging.Info(name+"_ok", fields)
	case lo.ContainsBy(expected, func(e error) bool { return errors.Is(err, e) }):
		fields["reason"] = err.Error()
		logging.Warn(name+"_skipped", fields)
	default:
		metrics.IncCommandError(name)
		fields["error"] = err.Error()
		logging.Error(name+"_error", fields)
	}
	return err
}
