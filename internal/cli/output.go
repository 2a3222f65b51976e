package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

// Exit codes.
const (
	exitFailure = 1
	exitPartial = 2
)

// emit prints the result envelope of an operation. A failed operation yields
// an ExitError with exitFailure, a batch with failed items exitPartial.
func emit(cmd *cobra.Command, data interface{}, err error) error {
	env := workflow.Result(data, err)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(env); encErr != nil {
		return encErr
	}
	switch {
	case !env.Success:
		return &ExitError{Code: exitFailure, Err: err}
	case env.Error != nil:
		return &ExitError{Code: exitPartial, Err: err}
	}
	return nil
}

// usageError reports an invalid argument in the result envelope.
func usageError(cmd *cobra.Command, op, format string, args ...interface{}) error {
	return emit(cmd, nil, workflow.Precondition(op, format, args...))
}
