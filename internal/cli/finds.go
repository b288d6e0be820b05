package cli

import (
	"github.com/spf13/cobra"
)

func newFindsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finds",
		Short: "Inspect and reset the find ledger",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the full find ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result FindList
			if err := client.Get("/api/v1/finds", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Delete every find, returning all objects to uncollected",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result FindsDeleted
			if err := client.Post("/api/v1/finds/reset", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	})

	return cmd
}
