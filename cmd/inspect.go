// File: cmd/inspect.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/webtester/internal/observability"
)

// maxParallelReads bounds concurrent field reads against one tab.
const maxParallelReads = 4

func newInspectCmd() *cobra.Command {
	var (
		refs    []string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <url>",
		Short: "Print the current values of form fields on a page",
		Example: `  webtester inspect https://example.com/settings \
    --field "range:#volume" --field "color:#theme" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(refs) == 0 {
				return fmt.Errorf("nothing to inspect: pass at least one --field kind:selector")
			}
			parsed := make([]fieldRef, 0, len(refs))
			for _, raw := range refs {
				ref, err := parseFieldRef(raw)
				if err != nil {
					return err
				}
				parsed = append(parsed, ref)
			}

			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := observability.GetLogger().Named("inspect")

			s, err := openSession(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := s.Close(); err != nil {
					logger.Warn("Failed to close session cleanly.", zap.Error(err))
				}
			}()

			fields := make([]*boundField, 0, len(parsed))
			for _, ref := range parsed {
				fields = append(fields, ref.bind(s.factory))
			}

			if err := s.driver.Navigate(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to open '%s': %w", args[0], err)
			}

			results := make([]fieldValue, len(fields))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(maxParallelReads)
			for i, field := range fields {
				g.Go(func() error {
					v, err := field.snapshot(gctx)
					if err != nil {
						return err
					}
					results[i] = v
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			return printValues(cmd.OutOrStdout(), results, jsonOut)
		},
	}

	cmd.Flags().StringArrayVar(&refs, "field", nil, "field to read as kind:selector (repeatable; kinds: "+fieldKinds()+")")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print results as JSON")
	return cmd
}
