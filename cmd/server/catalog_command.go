package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Extract the merchant catalog once and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApplication(func(app *application) error {
				products, err := app.extractor.Extract(cmd.Context())
				if err != nil {
					return fmt.Errorf("extract catalog: %w", err)
				}
				total := len(products)
				if limit > 0 && total > limit {
					products = products[:limit]
				}
				return writeJSON(cmd, map[string]any{
					"source":   app.extractor.CatalogURL(),
					"total":    total,
					"products": products,
				})
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Print at most this many products (0 prints all)")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
