package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/line-report/pkg/runtime/terminal/export"
	docexport "github.com/de-tools/line-report/pkg/services/export"
	"github.com/de-tools/line-report/pkg/services/report"
)

type ExportCmd struct {
	flags    generateFlags
	format   string
	output   string
	env      Environment
	listener report.SectionListener
	reporter *export.Reporter
}

func NewExportCmd(env Environment, listener report.SectionListener, reporter *export.Reporter) *cobra.Command {
	ec := &ExportCmd{env: env, listener: listener, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate a report and save it as a docx or xlsx document",
		RunE:  ec.run,
	}

	ec.flags.bind(cmd)
	cmd.Flags().StringVarP(&ec.format, "format", "f", string(docexport.FormatDocx), "Document format: docx or excel")
	cmd.Flags().StringVarP(&ec.output, "out", "o", "", "Output file (defaults to the standard document name)")

	return cmd
}

func (ec *ExportCmd) run(cmd *cobra.Command, _ []string) error {
	format, err := docexport.ParseFormat(ec.format)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), ec.flags.timeout)
	defer cancel()
	logger := zerolog.Ctx(ctx)

	coll, backend, err := ec.flags.generate(ctx, ec.env, ec.listener)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	if err := coll.Wait(ctx); err != nil {
		return fmt.Errorf("report did not settle: %w", err)
	}

	doc, err := docexport.NewExporter(backend).Export(ctx, coll.Snapshot(), format, nil)
	if err != nil {
		return err
	}

	path := ec.output
	if path == "" {
		path = doc.Filename
	}
	if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	logger.Info().Str("path", path).Int("bytes", len(doc.Body)).Msg("document saved")
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d bytes)\n", path, len(doc.Body))
	return nil
}
