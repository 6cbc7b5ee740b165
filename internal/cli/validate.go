package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GabrielNunesIT/pdd/internal/arguments"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [if=PATH of=PATH... [-- ...]]",
		Short: "Parse operations and print them without running",
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := arguments.Parse(operationArgs(cmd, args))
			if err != nil {
				return fmt.Errorf("invalid operations: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Operations valid: %d\n", len(ops))
			for i, op := range ops {
				fmt.Fprintf(out, "  %d: %s\n", i+1, op)
			}
			return nil
		},
	}
}
