package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/factorlab-lite/internal/contracts"
)

// namesCmd represents the names command
var namesCmd = &cobra.Command{
	Use:   "names [codes...]",
	Short: "Resolve ticker codes to display names",
	Long: `Resolve ticker codes to display names, best effort. Codes that
cannot be resolved are shown as the code itself.

Example:
  lite names 600519 000858 600036.SH`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNames,
}

func init() {
	rootCmd.AddCommand(namesCmd)
}

func runNames(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	names := a.provider.ResolveNames(context.Background(), args)
	for _, raw := range args {
		code, err := contracts.NormalizeSymbol(raw)
		if err != nil {
			fmt.Printf("%-12s (invalid)\n", raw)
			continue
		}
		name, ok := names[code]
		if !ok {
			name = code
		}
		fmt.Printf("%-12s %s\n", code, name)
	}
	return nil
}
