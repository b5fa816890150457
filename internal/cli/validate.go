package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/evmatch/internal/compiler"
)

// Error codes for failures that happen before validation proper.
const (
	ErrCodeModelsLoad = "E_MODELS_LOAD" // models directory missing or CUE does not compile
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Models []compiler.EventModelSpec  `json:"models,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [models-dir]",
		Short: "Validate CUE event models",
		Long: `Compile and validate the CUE event models in a directory.

Checks that every model has a usable key, that correlation parameter names
are identifier-shaped and unique, and that no two models share a key within
one tenant. Defaults to EVMATCH_MODELS_DIR when no directory is given.

Exit codes:
  0 - All models valid
  1 - Validation errors
  2 - Models could not be loaded`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.Config.ModelsDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, modelsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	models, err := compiler.LoadEventModels(modelsDir)
	if err != nil {
		var cErr *compiler.CompileError
		if errors.As(err, &cErr) {
			return formatter.Fail(ExitCommandError, ErrCodeModelsLoad,
				fmt.Sprintf("%s: %s", cErr.Field, cErr.Message), err)
		}
		return formatter.Fail(ExitCommandError, ErrCodeModelsLoad, "failed to load models", err)
	}

	for _, m := range models {
		formatter.VerboseLog("Validating event model: %s (key=%s, correlation=%v)", m.Name, m.Key, m.Correlation)
	}

	if errs := compiler.Validate(models); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Models: models})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d event model(s) valid\n", len(models))
	return nil
}

// outputValidationErrors reports every validation error.
// Validation failures exit with code 1.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}

	return exitErr
}
