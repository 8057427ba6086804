package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "List the combinations a run would visit",
	Args:  cobra.NoArgs,
	RunE:  runMatrix,
}

func init() {
	rootCmd.AddCommand(matrixCmd)
}

func runMatrix(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, c := range cfg.Matrix().Combinations() {
		fmt.Fprintln(out, c.Label())
	}
	return nil
}
