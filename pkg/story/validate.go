package story

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/condition"
	"github.com/aretw0/arbor/pkg/schema"
	"github.com/aretw0/arbor/pkg/variables"
)

// Story-level findings, reported alongside the condition issue codes.
const (
	IssueEmptyStory     condition.IssueCode = "empty_story"
	IssueDuplicateID    condition.IssueCode = "duplicate_id"
	IssueUnknownScene   condition.IssueCode = "unknown_scene"
	IssueUnknownChoice  condition.IssueCode = "unknown_choice"
	IssueInvalidProject condition.IssueCode = "invalid_project"

	IssueDeadEnd     condition.IssueCode = "dead_end"
	IssueUnreachable condition.IssueCode = "unreachable_scene"
)

// Validate checks the scene graph, every gate and action guard, and finally
// that the derived project imports cleanly into a fresh manager. It reports
// every finding instead of stopping at the first one.
func (s *Story) Validate(eng *condition.Engine) condition.ValidationResult {
	if eng == nil {
		eng = condition.New()
	}
	r := &report{}

	if len(s.Scenes) == 0 {
		r.fail(IssueEmptyStory, "scenes", "story has no scenes")
		return r.result()
	}

	scenes := make(map[string]bool, len(s.Scenes))
	choices := make(map[string]bool)
	for i, sc := range s.Scenes {
		path := fmt.Sprintf("scenes[%d]", i)
		switch {
		case sc.ID == "":
			r.fail(IssueDuplicateID, path, "scene without id")
		case scenes[sc.ID]:
			r.fail(IssueDuplicateID, path, "duplicate scene id %q", sc.ID)
		}
		scenes[sc.ID] = true
		for j, ch := range sc.Choices {
			cpath := fmt.Sprintf("%s.choices[%d]", path, j)
			switch {
			case ch.ID == "":
				r.fail(IssueDuplicateID, cpath, "choice without id")
			case choices[ch.ID]:
				r.fail(IssueDuplicateID, cpath, "duplicate choice id %q", ch.ID)
			}
			choices[ch.ID] = true
		}
	}

	if start := s.StartScene(); !scenes[start] {
		r.fail(IssueUnknownScene, "start", "start scene %q does not exist", start)
	}

	defs := condition.Index(s.Variables)
	for i, sc := range s.Scenes {
		path := fmt.Sprintf("scenes[%d]", i)
		if len(sc.Choices) == 0 {
			r.warn(IssueDeadEnd, path, "scene %q has no choices", sc.ID)
		}
		for j, ch := range sc.Choices {
			cpath := fmt.Sprintf("%s.choices[%d]", path, j)
			if ch.Target != "" && !scenes[ch.Target] {
				r.fail(IssueUnknownScene, cpath+".to", "choice %q leads to unknown scene %q", ch.ID, ch.Target)
			}
			if ch.Fallback != "" && !choices[ch.Fallback] {
				r.fail(IssueUnknownChoice, cpath+".fallback", "fallback %q is not a choice", ch.Fallback)
			}
			if ch.Condition != nil {
				r.merge(cpath+".when", eng.Validate(ch.Condition, defs))
			}
		}
		for j, a := range sc.Actions {
			apath := fmt.Sprintf("%s.actions[%d]", path, j)
			if _, ok := defs[a.VariableID]; !ok {
				r.fail(condition.IssueMissingVariable, apath+".var", "action targets undefined variable %q", a.VariableID)
			}
			if a.Condition != nil {
				r.merge(apath+".when", eng.Validate(a.Condition, defs))
			}
		}
	}

	for _, id := range s.unreachable() {
		r.warn(IssueUnreachable, "scenes", "scene %q cannot be reached from the start", id)
	}

	if len(r.errors) == 0 {
		if err := variables.New(eng).Import(s.Project()); err != nil {
			for _, e := range schema.ValidationErrors(err) {
				r.fail(IssueInvalidProject, "", "%v", e)
			}
			if len(r.errors) == 0 {
				r.fail(IssueInvalidProject, "", "%v", err)
			}
		}
	}
	return r.result()
}

// unreachable walks the choices breadth-first from the start scene.
func (s *Story) unreachable() []string {
	next := make(map[string][]string)
	for _, sc := range s.Scenes {
		for _, ch := range sc.Choices {
			if ch.Target != "" {
				next[sc.ID] = append(next[sc.ID], ch.Target)
			}
		}
	}
	visited := map[string]bool{}
	queue := []string{s.StartScene()}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		queue = append(queue, next[id]...)
	}
	var out []string
	for _, sc := range s.Scenes {
		if !visited[sc.ID] {
			out = append(out, sc.ID)
		}
	}
	return out
}

type report struct {
	errors   []condition.Issue
	warnings []condition.Issue
}

func (r *report) fail(code condition.IssueCode, path, format string, args ...any) {
	r.errors = append(r.errors, condition.Issue{Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (r *report) warn(code condition.IssueCode, path, format string, args ...any) {
	r.warnings = append(r.warnings, condition.Issue{Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (r *report) merge(prefix string, res condition.ValidationResult) {
	for _, issue := range res.Errors {
		issue.Path = joinPath(prefix, issue.Path)
		r.errors = append(r.errors, issue)
	}
	for _, issue := range res.Warnings {
		issue.Path = joinPath(prefix, issue.Path)
		r.warnings = append(r.warnings, issue)
	}
}

func (r *report) result() condition.ValidationResult {
	return condition.ValidationResult{
		IsValid:  len(r.errors) == 0,
		Errors:   r.errors,
		Warnings: r.warnings,
	}
}

func joinPath(prefix, path string) string {
	if path == "" {
		return prefix
	}
	return prefix + "." + path
}
