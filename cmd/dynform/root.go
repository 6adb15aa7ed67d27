package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-dynform"
	"github.com/goliatone/go-dynform/internal/logging"
	"github.com/goliatone/go-dynform/pkg/schema"
)

const appName = "dynform"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   appName,
		Short: "Conditional form schemas: evaluate, fill, lint and serve",
		Long: `dynform evaluates declarative form schemas: which fields are visible,
which options a select offers, which values are invalid, and what gets
submitted.

Quick start:
  dynform lint form.json        # Check a schema for authoring mistakes
  dynform fill form.json        # Fill a form interactively
  dynform serve -c dynform.yaml # Serve the evaluator over HTTP`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", logging.FormatConsole, "log format: json or console")

	root.AddCommand(
		newFillCmd(flags),
		newEvalCmd(flags),
		newLintCmd(),
		newDecodeCmd(),
		newServeCmd(),
		newOpenAPICmd(),
	)
	return root
}

func (f *globalFlags) logger(out io.Writer) (zerolog.Logger, error) {
	return logging.New(logging.Config{Level: f.logLevel, Format: f.logFormat}, out)
}

// loadSchemaArg loads a schema from a file path or URL, or decodes param when
// it is set.
func loadSchemaArg(ctx context.Context, source, param string) (schema.Schema, error) {
	if strings.TrimSpace(param) != "" {
		return schema.DecodeParam(param)
	}
	if strings.TrimSpace(source) == "" {
		return schema.Schema{}, fmt.Errorf("a schema path, URL or --param is required")
	}
	return dynform.LoadSchema(ctx, source, schema.WithHTTPFallback(15*time.Second))
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
