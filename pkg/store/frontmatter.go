package store

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// ParseWorkflowDoc reads a workflow document: YAML frontmatter carrying the
// workflow, followed by a markdown body. The body is generated for reading
// and is ignored here.
func ParseWorkflowDoc(content string) (Workflow, error) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, frontmatterDelimiter) {
		return Workflow{}, fmt.Errorf("missing frontmatter")
	}

	rest := content[len(frontmatterDelimiter):]
	idx := strings.Index(rest, "\n"+frontmatterDelimiter)
	if idx == -1 {
		return Workflow{}, fmt.Errorf("unclosed frontmatter delimiter")
	}

	var w Workflow
	if err := yaml.Unmarshal([]byte(rest[:idx]), &w); err != nil {
		return Workflow{}, fmt.Errorf("parsing frontmatter YAML: %w", err)
	}
	for i, t := range w.Tasks {
		if t.Kind == "" {
			continue
		}
		kind, err := ParseTaskKind(string(t.Kind))
		if err != nil {
			return Workflow{}, fmt.Errorf("task %d: %w", i+1, err)
		}
		w.Tasks[i].Kind = kind
	}
	if w.Tasks == nil {
		w.Tasks = []Task{}
	}
	return w, nil
}

// SerializeWorkflowDoc renders a workflow as a document for $EDITOR.
func SerializeWorkflowDoc(w Workflow) (string, error) {
	yamlBytes, err := yaml.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("serializing frontmatter YAML: %w", err)
	}

	var b strings.Builder
	b.WriteString(frontmatterDelimiter)
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(string(yamlBytes), "\n"))
	b.WriteString("\n")
	b.WriteString(frontmatterDelimiter)
	b.WriteString("\n\n")
	b.WriteString(RenderWorkflowMarkdown(w, nil))
	return b.String(), nil
}

// RenderWorkflowMarkdown renders a workflow as a markdown checklist. done
// may be nil, in which case no task is checked.
func RenderWorkflowMarkdown(w Workflow, done func(index int, t Task) bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", w.Title)
	if len(w.Tasks) == 0 {
		b.WriteString("_No tasks._\n")
		return b.String()
	}
	for i, t := range w.Tasks {
		mark := " "
		if done != nil && done(i, t) {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] **%s** %s\n", mark, t.Name, DescribeTask(t))
	}
	return b.String()
}

// DescribeTask summarises what a task does in one line.
func DescribeTask(t Task) string {
	switch t.ResolvedKind() {
	case KindDelay:
		if !HasDelayValue(t.Value) {
			return "(wait default)"
		}
		return fmt.Sprintf("(wait %dms)", DelayMillis(t.Value, 0))
	case KindKeys:
		return fmt.Sprintf("(keys %s)", t.Value)
	default:
		if !t.HasTarget() {
			return "(no target)"
		}
		if t.Placement != nil {
			return fmt.Sprintf("(open %s, window %s)", t.Target, t.Placement)
		}
		return fmt.Sprintf("(open %s)", t.Target)
	}
}
