// cmd/tools/isp-context/commands.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"isp-assistant/internal/analytics"
)

func newProfileCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <cnpj-or-name>",
		Short: "Print the account profile shown after a search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, _, err := loadSnapshot(cmd, e, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(e.out, analytics.RenderProfile(snapshot))
			return err
		},
	}
}

func newContextCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context <cnpj-or-name>",
		Short: "Print the context blob sent to the language model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pretty, err := cmd.Flags().GetBool("pretty")
			if err != nil {
				return fmt.Errorf("failed to get pretty flag: %w", err)
			}
			snapshot, cfg, err := loadSnapshot(cmd, e, args[0])
			if err != nil {
				return err
			}

			calculator := analytics.NewCalculatorFromConfig(cfg.Analytics)
			blob, err := analytics.Assemble(snapshot, calculator.Compute(snapshot)).Encode()
			if err != nil {
				return fmt.Errorf("failed to encode context: %w", err)
			}
			if pretty {
				var buf bytes.Buffer
				if err := json.Indent(&buf, blob, "", "  "); err != nil {
					return err
				}
				blob = buf.Bytes()
			}
			_, err = fmt.Fprintln(e.out, string(blob))
			return err
		},
	}
	cmd.Flags().Bool("pretty", false, "indent the JSON output")
	return cmd
}

func newMetricsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics <cnpj-or-name>",
		Short: "Print per-product metrics as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, cfg, err := loadSnapshot(cmd, e, args[0])
			if err != nil {
				return err
			}
			metrics := analytics.NewCalculatorFromConfig(cfg.Analytics).Compute(snapshot)

			table := tablewriter.NewWriter(e.out)
			table.SetHeader([]string{"Product", "Utilization", "Benchmark", "Potential tickets", "Potential revenue", "ROI"})
			table.SetAutoFormatHeaders(false)
			for _, m := range metrics.Products.All() {
				table.Append([]string{
					m.Product,
					percent(m.Utilization),
					percent(m.BenchmarkUtilization),
					strconv.FormatInt(m.PotentialTickets, 10),
					analytics.FormatBRL(m.PotentialRevenue),
					percent(m.ROI),
				})
			}
			table.Render()
			return nil
		},
	}
}

func percent(ratio decimal.Decimal) string {
	return ratio.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}
