package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrcostanzo/cmdmock/internal/training"
)

// ValidationResult holds session file validation results.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <session-file>",
		Short: "Validate a YAML session file",
		Long: `Validate a YAML session file against the session schema without
training anything. Faster feedback than a failed training run.

Example:
  cmdmock validate session.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	errs := training.ValidateSession(path)
	if len(errs) == 0 {
		if formatter.Format == "json" {
			return formatter.Success(ValidationResult{Valid: true})
		}
		fmt.Fprintf(formatter.Writer, "%s is valid\n", path)
		return nil
	}

	result := ValidationResult{Valid: false}
	for _, err := range errs {
		result.Errors = append(result.Errors, err.Error())
	}
	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "%s is invalid:\n", path)
		for _, msg := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  %s\n", msg)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("session file failed validation with %d error(s)", len(result.Errors)))
}
