package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/loanflow/pkg/domain"
)

// Overlay marks conversation state on the rendered graph.
type Overlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// GenerateMermaid produces a Mermaid flowchart of g.
// Shapes follow the step kind:
// - Entry: ((Circle))
// - Terminal: ([Stadium])
// - Computed transition: {Rhombus}
// - Action without input: [[Subroutine]]
// - Choice: [/Parallelogram/]
// - Default: [Rectangle]
//
// Only fixed transitions can be drawn as edges. Computed ones are resolved at
// run time from the answer and the record.
func GenerateMermaid(g *domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range g.IDs() {
		step, _ := g.Step(id)
		safeID := sanitizeMermaidID(id)
		opener, closer := shape(g, step)

		label := id
		if step.Outcome != domain.OutcomeNone {
			label = fmt.Sprintf("%s <br/> %s", id, step.Outcome)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		if to, ok := step.Next.(domain.Goto); ok {
			arrow := "-->"
			if step.SkipIf != nil {
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(string(to)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || seen[safeID] {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}
		if overlay.CurrentStep != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep))
		}
	}

	return sb.String()
}

func shape(g *domain.Graph, step *domain.Step) (string, string) {
	switch {
	case step.ID == g.Entry():
		return "((", "))"
	case step.Terminal():
		return "([", "])"
	case step.Input.Choice():
		return "[/", "/]"
	case step.Action != "" && !step.Input.FreeEntry():
		return "[[", "]]"
	}
	if _, ok := step.Next.(domain.NextFunc); ok {
		return "{", "}"
	}
	return "[", "]"
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
