package plan

import (
	"fmt"
	"strings"
)

// Markdown renders the plan as a plain markdown document.
func (p *Plan) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Exploration plan\n\n%s\n", p.Summary)

	section(&b, "Strengths", p.Strengths)
	section(&b, "Weaknesses", p.Weaknesses)
	section(&b, "Risks", p.Risks)
	section(&b, "Recommendations", p.Recommendations)
	return b.String()
}

func section(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "\n## %s\n\n", title)
	if len(items) == 0 {
		b.WriteString("_None._\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
