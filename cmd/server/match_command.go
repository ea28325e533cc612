package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timepiece/backend/internal/domain"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "match <brand> [model...]",
		Short: "Match a brand and model against the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := domain.MatchQuery{
				Brand: args[0],
				Model: strings.Join(args[1:], " "),
			}
			return ctx.withApplication(func(app *application) error {
				product, err := app.matcher.Match(cmd.Context(), query)
				if err != nil {
					return fmt.Errorf("match %q %q: %w", query.Brand, query.Model, err)
				}
				return writeJSON(cmd, product)
			})
		},
	}
}

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <image-url>",
		Short: "Identify the watch in an image and resolve it to a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApplication(func(app *application) error {
				product, err := app.resolver.Resolve(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("identify: %w", err)
				}
				return writeJSON(cmd, product)
			})
		},
	}
}
