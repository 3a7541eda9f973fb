package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonwraymond/promptdiscovery/prompt"
)

func (a *app) importCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "import <file.jsonl>",
		Short: "Validate a JSONL export and install it as the corpus",
		Long: `Reads a JSONL prompt export, checks every prompt and rejects duplicate ids.
With --out (or a configured corpus path) the validated prompts are written
there atomically.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompts, meta, err := prompt.ImportFile(args[0])
			if err != nil {
				return err
			}

			dest := out
			if dest == "" {
				dest = a.cfg.Corpus.Path
			}
			if dest != "" {
				if err := prompt.ExportFile(dest, prompts, meta); err != nil {
					return err
				}
				a.logger.Info("corpus installed", zap.String("path", dest), zap.Int("prompts", len(prompts)))
			}

			if a.jsonOut {
				return a.printJSON(cmd.OutOrStdout(), map[string]any{"prompts": len(prompts), "meta": meta, "path": dest})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d prompts valid\n", len(prompts))
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the validated corpus to this path")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.jsonl>",
		Short: "Write the loaded corpus to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, closeStore, err := a.openCatalog(nil, false)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			if err := cat.ExportFile(args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d prompts to %s\n", cat.Len(), args[0])
			return err
		},
	}
}
