package x86levels

import (
	"fmt"
	"strings"
)

// String returns a human-readable summary of the report.
func (r *Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Architecture: %s\n", r.Architecture)
	fmt.Fprintf(&b, "Source: %s\n", r.Source)
	fmt.Fprintf(&b, "Flags: %d\n", r.Flags.Len())
	b.WriteString("\n")

	b.WriteString("Levels:\n")
	for _, l := range LevelValues() {
		writeLevel(&b, l, r.Supported(l), r.Missing(l))
	}

	return b.String()
}

func writeLevel(b *strings.Builder, l Level, supported bool, missing []string) {
	status := "no"
	if supported {
		status = "yes"
	}
	if len(missing) > 0 {
		fmt.Fprintf(b, "  %s: %s (missing: %s)\n", l, status, strings.Join(missing, " "))
	} else {
		fmt.Fprintf(b, "  %s: %s\n", l, status)
	}
}
