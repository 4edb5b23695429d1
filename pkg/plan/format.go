package plan

import (
	"strings"
)

// FormatPlan renders an operator tree as an indented outline, one
// operator per line, children below their parent.
func FormatPlan(op Operator) string {
	var sb strings.Builder
	formatRecursive(op, "", true, &sb)
	return sb.String()
}

func formatRecursive(op Operator, prefix string, isLast bool, sb *strings.Builder) {
	sb.WriteString(prefix)
	if isLast {
		sb.WriteString("└─ ")
		prefix += "   "
	} else {
		sb.WriteString("├─ ")
		prefix += "│  "
	}
	sb.WriteString(op.Explain())
	sb.WriteString("\n")

	children := op.Children()
	for i, child := range children {
		formatRecursive(child, prefix, i == len(children)-1, sb)
	}
}
