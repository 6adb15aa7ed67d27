package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-dynform/pkg/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		operationID string
		list        bool
		resolveRefs bool
	)

	cmd := &cobra.Command{
		Use:   "openapi <document>",
		Short: "Build a form schema from an OpenAPI operation's request body",
		Long: `Map the JSON request body of an OpenAPI 3 operation to a form schema.
Properties may carry an x-dynform extension with dependsOn, resetFields,
dynamicOptions, visibleWhen, label and helpText.

Examples:
  dynform openapi api.yaml --list
  dynform openapi api.yaml --operation createRun > form.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}
			var opts []openapi.Option
			if resolveRefs {
				opts = append(opts, openapi.WithReferenceResolution())
			}

			if list || operationID == "" {
				ops, err := openapi.Operations(cmd.Context(), data, opts...)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "OPERATION\tMETHOD\tPATH\tBODY")
				for _, op := range ops {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", op.ID, op.Method, op.Path, op.HasBody)
				}
				return tw.Flush()
			}

			s, err := openapi.BuildSchema(cmd.Context(), data, operationID, opts...)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), s)
		},
	}

	cmd.Flags().StringVarP(&operationID, "operation", "o", "", "operation id to convert")
	cmd.Flags().BoolVar(&list, "list", false, "list operations instead of converting")
	cmd.Flags().BoolVar(&resolveRefs, "resolve-refs", false, "resolve external $refs and validate the document")
	return cmd
}
