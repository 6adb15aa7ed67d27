package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dynform/pkg/engine"
	"github.com/goliatone/go-dynform/pkg/schema"
)

type evalOutput struct {
	engine.EvaluationResult
	Options map[string][]schema.Option `json:"options"`
	Payload schema.Values              `json:"payload"`
}

func newEvalCmd(flags *globalFlags) *cobra.Command {
	var (
		param      string
		values     string
		valuesFile string
	)

	cmd := &cobra.Command{
		Use:   "eval [schema]",
		Short: "Evaluate a schema against a set of values",
		Long: `Resolve visibility, options and validation once and print the result
as JSON. Values are a JSON or YAML object.

Examples:
  dynform eval form.json --values '{"pipelineType":"inline"}'
  dynform eval form.json --values-file answers.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var source string
			if len(args) == 1 {
				source = args[0]
			}
			s, err := loadSchemaArg(cmd.Context(), source, param)
			if err != nil {
				return err
			}

			raw := []byte(values)
			if valuesFile != "" {
				if raw, err = os.ReadFile(valuesFile); err != nil {
					return fmt.Errorf("read values: %w", err)
				}
			}
			vals := schema.Values{}
			if len(raw) > 0 {
				if err := yaml.Unmarshal(raw, &vals); err != nil {
					return fmt.Errorf("decode values: %w", err)
				}
			}

			logger, err := flags.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			e := engine.New(engine.WithLogger(logger))
			result := e.Evaluate(s, vals)
			return writeJSON(cmd.OutOrStdout(), evalOutput{
				EvaluationResult: result,
				Options:          e.OptionsFor(s, vals, result.VisibleFieldIDs),
				Payload:          engine.Payload(vals, result.VisibleFieldIDs),
			})
		},
	}

	cmd.Flags().StringVar(&param, "param", "", "base64 fixed_variables schema instead of a path")
	cmd.Flags().StringVar(&values, "values", "", "values as a JSON or YAML object")
	cmd.Flags().StringVar(&valuesFile, "values-file", "", "read values from a JSON or YAML file")
	return cmd
}
