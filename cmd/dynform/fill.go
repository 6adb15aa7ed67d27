package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-dynform/pkg/engine"
	"github.com/goliatone/go-dynform/pkg/form"
	"github.com/goliatone/go-dynform/pkg/renderers/tui"
	"github.com/goliatone/go-dynform/pkg/submit"
)

func newFillCmd(flags *globalFlags) *cobra.Command {
	var (
		param     string
		format    string
		endpoint  string
		headers   map[string]string
		noConfirm bool
	)

	cmd := &cobra.Command{
		Use:   "fill [schema]",
		Short: "Fill a form interactively in the terminal",
		Long: `Prompt for each visible field in schema order. Fields appear and
disappear as answers change; select options follow their parent field.

Examples:
  dynform fill form.json
  dynform fill --param "$FIXED_VARIABLES" --format pretty
  dynform fill form.yaml --endpoint https://api.example.com/runs`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := flags.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var source string
			if len(args) == 1 {
				source = args[0]
			}
			s, err := loadSchemaArg(cmd.Context(), source, param)
			if err != nil {
				return err
			}

			var destination submit.Submitter
			if endpoint != "" {
				opts := []submit.HTTPOption{}
				for key, value := range headers {
					opts = append(opts, submit.WithHeader(key, value))
				}
				destination = submit.NewHTTP(endpoint, opts...)
			}

			session := form.NewSession(s,
				form.WithEngine(engine.New(engine.WithLogger(logger))),
				form.WithSubmitter(submit.Join(submit.NewLog(logger), destination)),
				form.WithLogger(logger),
			)

			renderer, err := tui.New(
				tui.WithOutput(cmd.OutOrStdout()),
				tui.WithOutputFormat(tui.OutputFormat(format)),
				tui.WithConfirmSubmit(!noConfirm),
				tui.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			_, err = renderer.Fill(cmd.Context(), session)
			if errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "aborted")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&param, "param", "", "base64 fixed_variables schema instead of a path")
	cmd.Flags().StringVar(&format, "format", string(tui.OutputFormatJSON), "output format: json, form or pretty")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "POST the submitted payload to this URL")
	cmd.Flags().StringToStringVar(&headers, "header", nil, "extra request header for --endpoint (key=value)")
	cmd.Flags().BoolVar(&noConfirm, "yes", false, "submit without the final confirmation")
	return cmd
}
