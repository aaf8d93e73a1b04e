package relctx

import (
	"strings"
)

// Format renders a [Package] into the textual context block consumed by the
// narrator prompt.
//
// The formatter is pure: it performs no I/O, has no side effects, and is safe
// for concurrent use. Empty categories are omitted entirely rather than
// rendering as empty headers; an empty package renders as an empty string.
func Format(pkg *Package) string {
	if pkg == nil || pkg.Empty() {
		return ""
	}

	var sb strings.Builder

	if len(pkg.NPCs) > 0 {
		sb.WriteString("Relevant NPCs:\n")
		for _, n := range pkg.NPCs {
			sb.WriteString("- ")
			sb.WriteString(n.ContextSummary())
			sb.WriteString("\n")
		}
	}

	if len(pkg.Quests) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Relevant Quests:\n")
		for _, q := range pkg.Quests {
			sb.WriteString("- ")
			sb.WriteString(q.ContextSummary())
			sb.WriteString("\n")
		}
	}

	if len(pkg.Locations) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Relevant Locations:\n")
		for _, l := range pkg.Locations {
			sb.WriteString("- ")
			sb.WriteString(l.ContextSummary())
			sb.WriteString("\n")
		}
	}

	return strings.TrimSuffix(sb.String(), "\n")
}
