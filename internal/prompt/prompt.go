// Package prompt flattens a transcript into the single prompt string sent to
// a stateless completion call.
package prompt

import (
	"strings"

	"github.com/nubank/doc-ia/internal"
)

const (
	userPrefix      = "User: "
	assistantPrefix = "DOC: "
)

// Build renders persona followed by one line per message, oldest first. The
// whole history is always rendered; turns are not required to alternate.
func Build(persona string, history []internal.Message) string {
	var b strings.Builder
	b.WriteString(persona)
	for _, m := range history {
		b.WriteString("\n")
		if m.Role == internal.RoleUser {
			b.WriteString(userPrefix)
		} else {
			b.WriteString(assistantPrefix)
		}
		b.WriteString(m.Content)
	}
	return b.String()
}
