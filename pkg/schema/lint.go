package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Issue describes an authoring problem found by Lint. Location is a dotted
// path such as "fields.version.dependsOn" or "validationRules.1.require".
type Issue struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

func (i Issue) String() string {
	return i.Location + ": " + i.Message
}

// Lint checks a schema for authoring mistakes: empty or duplicate ids,
// unknown field types, references to missing fields, self references and
// dependency cycles. It never mutates the schema. The evaluator does not
// require a clean lint; issues only flag undefined behaviour ahead of time.
func Lint(s Schema) []Issue {
	var issues []Issue
	add := func(location, format string, args ...any) {
		issues = append(issues, Issue{Location: location, Message: fmt.Sprintf(format, args...)})
	}

	ids := make(map[string]int, len(s.Fields))
	for idx, field := range s.Fields {
		id := strings.TrimSpace(field.ID)
		if id == "" {
			add(fmt.Sprintf("fields.%d", idx), "field id is required")
			continue
		}
		if _, exists := ids[id]; exists {
			add("fields."+id, "duplicate field id")
			continue
		}
		ids[id] = idx
	}

	ref := func(location, self, target string) {
		switch {
		case strings.TrimSpace(target) == "":
			add(location, "reference is empty")
		case target == self:
			add(location, "field references itself")
		default:
			if _, ok := ids[target]; !ok {
				add(location, "unknown field %q", target)
			}
		}
	}

	for _, field := range s.Fields {
		if field.ID == "" {
			continue
		}
		base := "fields." + field.ID
		if !field.Type.Known() {
			add(base+".type", "unknown field type %q", field.Type)
		}
		if field.DependsOn != nil {
			ref(base+".dependsOn", field.ID, field.DependsOn.Field)
			for i, cond := range field.DependsOn.ParentConditions {
				ref(fmt.Sprintf("%s.dependsOn.parentConditions.%d", base, i), field.ID, cond.Field)
			}
		}
		if field.Dynamic != nil {
			ref(base+".dynamicOptions", field.ID, field.Dynamic.DependsOn)
			if field.Type != FieldTypeSelect {
				add(base+".dynamicOptions", "dynamic options only apply to select fields")
			}
		}
		for i, target := range field.ResetFields {
			ref(fmt.Sprintf("%s.resetFields.%d", base, i), field.ID, target)
		}
		if field.Validation != "" && field.Validation != ValidationEmail {
			add(base+".validation", "unsupported validation %q", field.Validation)
		}
		if field.ValidateCode && field.Type != FieldTypeCodeEditor {
			add(base+".validateCode", "validateCode only applies to codeEditor fields")
		}
	}

	for idx, rule := range s.ValidationRules {
		base := fmt.Sprintf("validationRules.%d", idx)
		if rule.When != nil && rule.When.Field != "" {
			if _, ok := ids[rule.When.Field]; !ok {
				add(base+".when", "unknown field %q", rule.When.Field)
			}
		}
		if len(rule.Require) == 0 {
			add(base+".require", "rule requires no fields")
		}
		for _, target := range rule.Require {
			if _, ok := ids[target]; !ok {
				add(base+".require", "unknown field %q", target)
			}
		}
	}

	for _, cycle := range dependencyCycles(s) {
		add("fields."+cycle[0], "dependency cycle: %s", strings.Join(cycle, " -> "))
	}

	return issues
}

// dependencyEdges maps each field id to the ids its visibility or options
// are derived from.
func dependencyEdges(s Schema) map[string][]string {
	edges := make(map[string][]string, len(s.Fields))
	for _, field := range s.Fields {
		if field.ID == "" {
			continue
		}
		var deps []string
		if field.DependsOn != nil {
			deps = append(deps, field.DependsOn.Field)
			for _, cond := range field.DependsOn.ParentConditions {
				deps = append(deps, cond.Field)
			}
		}
		if field.Dynamic != nil {
			deps = append(deps, field.Dynamic.DependsOn)
		}
		edges[field.ID] = deps
	}
	return edges
}

// dependencyCycles returns each cycle once, rotated so its smallest id comes
// first and closed with that id again.
func dependencyCycles(s Schema) [][]string {
	edges := dependencyEdges(s)
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(edges))
	seen := make(map[string]struct{})
	var (
		stack  []string
		cycles [][]string
		visit  func(id string)
	)
	visit = func(id string) {
		state[id] = active
		stack = append(stack, id)
		for _, next := range edges[id] {
			if next == id {
				continue
			}
			if _, known := edges[next]; !known {
				continue
			}
			switch state[next] {
			case unvisited:
				visit(next)
			case active:
				start := len(stack) - 1
				for stack[start] != next {
					start--
				}
				cycle := canonicalCycle(stack[start:])
				key := strings.Join(cycle, "\x00")
				if _, dup := seen[key]; !dup {
					seen[key] = struct{}{}
					cycles = append(cycles, cycle)
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
	}

	ids := make([]string, 0, len(edges))
	for id := range edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if state[id] == unvisited {
			visit(id)
		}
	}
	return cycles
}

func canonicalCycle(path []string) []string {
	minIdx := 0
	for i, id := range path {
		if id < path[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, 0, len(path)+1)
	out = append(out, path[minIdx:]...)
	out = append(out, path[:minIdx]...)
	return append(out, out[0])
}
