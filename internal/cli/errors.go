package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitNoMatch   = 1
	ExitUsage     = 2
	ExitAmbiguous = 3
)

// ExitError ends the process with Code. Message, if set, has already been
// printed or should be printed to stderr by the caller.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Silent reports whether there is nothing left to print.
func (e *ExitError) Silent() bool {
	return e.Err == nil
}

// usageError wraps err with the usage exit code.
func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Err: err}
}

// usagef formats a usage error.
func usagef(format string, args ...any) error {
	return usageError(fmt.Errorf(format, args...))
}

// usageArgs converts argument validation failures into usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}
