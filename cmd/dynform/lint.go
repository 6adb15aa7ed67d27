package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-dynform/pkg/openapi"
	"github.com/goliatone/go-dynform/pkg/schema"
)

type violation struct {
	file     string
	location string
	message  string
}

func newLintCmd() *cobra.Command {
	var fromOpenAPI bool

	cmd := &cobra.Command{
		Use:   "lint <paths...>",
		Short: "Check schemas for authoring mistakes",
		Long: `Report empty or duplicate ids, unknown field types, references to
missing fields, self references and dependency cycles.

With --openapi each path is an OpenAPI document and every operation with a
request body is converted and linted, which catches mistakes in x-dynform
extensions.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var violations []violation
			for _, path := range args {
				linted, err := lintFile(cmd.Context(), path, fromOpenAPI)
				if err != nil {
					return fmt.Errorf("lint %s: %w", path, err)
				}
				violations = append(violations, linted...)
			}
			if len(violations) == 0 {
				return nil
			}

			sort.Slice(violations, func(i, j int) bool {
				if violations[i].file == violations[j].file {
					if violations[i].location == violations[j].location {
						return violations[i].message < violations[j].message
					}
					return violations[i].location < violations[j].location
				}
				return violations[i].file < violations[j].file
			})
			for _, v := range violations {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s -> %s\n", v.file, v.location, v.message)
			}
			return fmt.Errorf("%d issue(s) found", len(violations))
		},
	}
	cmd.Flags().BoolVar(&fromOpenAPI, "openapi", false, "treat paths as OpenAPI documents")
	return cmd
}

func lintFile(ctx context.Context, path string, fromOpenAPI bool) ([]violation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	if !fromOpenAPI {
		s, err := schema.Decode(raw)
		if err != nil {
			return nil, err
		}
		return toViolations(path, "", schema.Lint(s)), nil
	}

	ops, err := openapi.Operations(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("parse operations: %w", err)
	}
	var result []violation
	for _, op := range ops {
		if !op.HasBody {
			continue
		}
		prefix := strings.Join([]string{"operation", op.ID}, ".")
		s, err := openapi.BuildSchema(ctx, raw, op.ID)
		if err != nil {
			result = append(result, violation{file: path, location: prefix, message: err.Error()})
			continue
		}
		result = append(result, toViolations(path, prefix, schema.Lint(s))...)
	}
	return result, nil
}

func toViolations(file, prefix string, issues []schema.Issue) []violation {
	out := make([]violation, 0, len(issues))
	for _, issue := range issues {
		location := issue.Location
		if prefix != "" {
			location = prefix + "." + location
		}
		out = append(out, violation{file: file, location: location, message: issue.Message})
	}
	return out
}
