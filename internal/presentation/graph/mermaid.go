package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/condition"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/layout"
	"github.com/aretw0/arbor/pkg/story"
)

// GraphOverlay contains playthrough state to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromPlaythrough builds an overlay from a running playthrough.
func OverlayFromPlaythrough(p domain.PlaythroughState) *GraphOverlay {
	return &GraphOverlay{
		VisitedNodes: p.Visited(),
		CurrentNode:  p.CurrentSceneID,
	}
}

// Options controls the rendered flowchart.
type Options struct {
	Direction layout.Direction
	Overlay   *GraphOverlay
}

// GenerateMermaid produces a Mermaid flowchart of the story's scene graph.
// It applies semantic styling:
// - Start: ((Circle))
// - Dead end: ([Stadium])
// - Default: [Rectangle]
// Gated choices are drawn dotted with their condition under the choice text.
// Orphaned scenes and overlay state (Visited/Current) are styled by class.
func GenerateMermaid(s *story.Story, opts Options) string {
	var sb strings.Builder
	sb.WriteString("graph " + flowDirection(opts.Direction) + "\n")

	nodes, _ := s.Graph()
	defs := condition.Index(s.Variables)
	eng := condition.New()

	var orphans []string
	for i, node := range nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.IsFirst:
			opener, closer = "((", "))"
		case node.IsDeadEnd:
			opener, closer = "([", "])"
		}

		title := node.ID
		if sc := s.Scenes[i]; sc.Title != "" {
			title = sc.Title
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(title), closer)
		if node.IsOrphaned {
			orphans = append(orphans, safeID)
		}

		for _, ch := range s.Scenes[i].Choices {
			if ch.Target == "" {
				continue
			}
			safeTo := sanitizeMermaidID(ch.Target)

			label := escapeLabel(ch.Text)
			if ch.Condition != nil {
				gate := "🔒 " + escapeLabel(eng.String(ch.Condition, defs))
				if label == "" {
					label = gate
				} else {
					label += " <br/> " + gate
				}
				if ch.Fallback != "" {
					label += " <br/> ↪ " + escapeLabel(ch.Fallback)
				}
			}

			var arrow string
			switch {
			case ch.Condition != nil:
				arrow = fmt.Sprintf("-. \"%s\" .->", label)
			case label != "":
				arrow = fmt.Sprintf("-- \"%s\" -->", label)
			default:
				arrow = "-->"
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, safeTo)
		}
	}

	if len(orphans) > 0 {
		sb.WriteString("\n    classDef orphan stroke-dasharray:5 5,color:#000;\n")
		for _, id := range orphans {
			fmt.Fprintf(&sb, "    class %s orphan;\n", id)
		}
	}

	if overlay := opts.Overlay; overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func flowDirection(d layout.Direction) string {
	switch d {
	case layout.RightToLeft:
		return "RL"
	case layout.TopToBottom:
		return "TD"
	case layout.BottomToTop:
		return "BT"
	}
	return "LR"
}

// escapeLabel keeps labels inside their double quotes.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
