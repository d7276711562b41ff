package main

import (
	"time"

	"collapsible/internal/attachments"
	perrors "collapsible/internal/errors"
	"collapsible/internal/output"

	"github.com/spf13/cobra"
)

func newProbeCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <reference>...",
		Short: "Resolve the media type and presentation branch of references",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := cli.initialize(cmd, nil)
			if err != nil {
				return err
			}
			defer cli.cleanup()

			ctx := cmd.Context()
			reports := make([]output.ProbeReport, 0, len(args))
			// One at a time, like the panel sequencer.
			for _, ref := range args {
				start := time.Now()
				mime, err := container.Prober.Probe(ctx, ref)
				report := output.ProbeReport{
					Reference: ref,
					URL:       attachments.Resolve(ref, container.Runtime.BaseURL),
					Kind:      attachments.Classify(ref),
					MimeType:  mime,
					Branch:    attachments.SelectBranch(ref, mime, false),
					Latency:   time.Since(start),
				}
				if err != nil && !perrors.IsCancellation(err) {
					report.Error = err.Error()
				}
				reports = append(reports, report)
			}

			return writeRendered(cmd.OutOrStdout(), newOutputManager(0), cli.outputFormat(), func(r output.Renderer) string {
				return r.RenderProbeReports(reports)
			})
		},
	}
}
