package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-dynform/pkg/schema"
)

func newDecodeCmd() *cobra.Command {
	var lint bool

	cmd := &cobra.Command{
		Use:   "decode <param>",
		Short: "Decode a base64 fixed_variables parameter into a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schema.DecodeParam(args[0])
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), s); err != nil {
				return err
			}
			if !lint {
				return nil
			}
			issues := schema.Lint(s)
			for _, issue := range issues {
				fmt.Fprintln(cmd.ErrOrStderr(), issue.String())
			}
			if len(issues) > 0 {
				return fmt.Errorf("%d issue(s) found", len(issues))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&lint, "lint", false, "also lint the decoded schema")
	return cmd
}
