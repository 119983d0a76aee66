package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/utafrali/grocify/internal/domain"
	"github.com/utafrali/grocify/internal/report"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Output string
	Text   bool
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Download the order report",
		Long: `Download the PDF order report from the API.
With --text the report is rendered locally as plain text from the order list.`,
		Example: `  grocify report
  grocify report -o march.pdf
  grocify report --text -o -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Text && !cmd.Flags().Changed("output") {
				opts.Output = "-"
			}

			body, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}

			if opts.Output == "-" {
				_, err := cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(opts.Output, body, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			return opts.printer(cmd).message("Report saved to %s (%d bytes).", opts.Output, len(body))
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", report.Filename, "output file, - for stdout")
	cmd.Flags().BoolVar(&opts.Text, "text", false, "render a plain-text report locally")

	return cmd
}

func (o *ReportOptions) build(ctx context.Context) ([]byte, error) {
	if !o.Text {
		return o.deps.API.DownloadReport(ctx)
	}

	orders, err := o.deps.API.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	doc := report.Build(orders, domain.Aggregate(orders), report.DefaultOptions())

	var buf bytes.Buffer
	if err := (report.TextRenderer{}).Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}
