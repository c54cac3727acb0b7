// File: cmd/fill.go
package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webtester/internal/observability"
	"github.com/xkilldash9x/webtester/internal/pageobject"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type assignment struct {
	ref   fieldRef
	value string
}

func newFillCmd() *cobra.Command {
	var (
		sets    []string
		verify  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "fill <url>",
		Short: "Set form fields on a page and print their resulting values",
		Example: `  webtester fill https://example.com/signup \
    --set "text:#name=Ada Lovelace" \
    --set "email:input[name=mail]=ada@example.com" \
    --set "range:#age=36" --set "color:#fav=#12abef"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(sets) == 0 {
				return fmt.Errorf("nothing to fill: pass at least one --set kind:selector=value")
			}
			plan := make([]assignment, 0, len(sets))
			for _, raw := range sets {
				target, value, err := splitAssignment(raw)
				if err != nil {
					return err
				}
				ref, err := parseFieldRef(target)
				if err != nil {
					return err
				}
				plan = append(plan, assignment{ref: ref, value: value})
			}

			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := observability.GetLogger().Named("fill")

			s, err := openSession(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := s.Close(); err != nil {
					logger.Warn("Failed to close session cleanly.", zap.Error(err))
				}
			}()

			if err := s.driver.Navigate(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to open '%s': %w", args[0], err)
			}

			results := make([]fieldValue, 0, len(plan))
			for _, a := range plan {
				field := a.ref.bind(s.factory)
				if verify {
					if err := pageobject.Verify(ctx, field.target); err != nil {
						return err
					}
				}
				logger.Debug("Setting field.", zap.String("kind", field.kind), zap.String("selector", field.selector))
				if err := field.write(ctx, a.value); err != nil {
					return fmt.Errorf("failed to set %s field '%s': %w", field.kind, field.selector, err)
				}
				v, err := field.snapshot(ctx)
				if err != nil {
					return err
				}
				results = append(results, v)
			}
			return printValues(cmd.OutOrStdout(), results, jsonOut)
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "field assignment kind:selector=value (repeatable, applied in order; kinds: "+fieldKinds()+")")
	cmd.Flags().BoolVar(&verify, "verify", false, "check each element is of the field kind before setting it")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print results as JSON")
	return cmd
}

func printValues(w io.Writer, values []fieldValue, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(values)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tSELECTOR\tVALUE")
	for _, v := range values {
		value := v.Value
		if v.Min != nil || v.Max != nil {
			value = fmt.Sprintf("%s [%s..%s]", value, optionalInt(v.Min), optionalInt(v.Max))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Kind, v.Selector, value)
	}
	return tw.Flush()
}

func optionalInt(p *int) string {
	if p == nil {
		return ""
	}
	return fmt.Sprint(*p)
}
