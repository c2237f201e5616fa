package main

import (
	"encoding/json"
	"fmt"

	"github.com/dgallion1/docscaffold/internal/command"
	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "check [command]",
		Short: "Parse a command and print the resulting configuration",
		Long: `Parse a command without touching any document.

The command comes from the argument, --file, or stdin. Multi-line commands
are easiest to pass with --file or stdin, e.g.

  printf 'Home -> Hero, Footer\nAbout -> Team\n' | scaffold check`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readCommand(cmd, args, file)
			if err != nil {
				return err
			}
			cfg, err := command.Parse(input)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(map[string]any{
				"mode":   cfg.Mode(),
				"config": cfg,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the command from a file (- for stdin)")
	return cmd
}
