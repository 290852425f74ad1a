package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/fileexpo/internal/voice"
)

// VoiceCommandsURI names the command reference resource.
const VoiceCommandsURI = "fileexpo://voice-commands"

// CommandReference renders the command table and the navigation
// destinations as Markdown. Rules are tried in order and the first match
// wins, so the order is part of the reference.
func CommandReference(destinations []voice.Destination) string {
	var b strings.Builder
	b.WriteString("# fileexpo Command Reference\n\n")
	b.WriteString("Commands are matched case-insensitively by keyword. Rules are tried top to\n")
	b.WriteString("bottom and the first match wins: \"go back up\" is a back command.\n\n")
	b.WriteString("| # | Intent | Keywords | Description |\n|---|---|---|---|\n")
	for _, c := range voice.Commands() {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
			c.Priority, c.Intent, strings.Join(quoted(c.Keywords), ", "), c.Description)
	}

	b.WriteString("\n## Destinations\n\n")
	if len(destinations) == 0 {
		b.WriteString("No navigation destinations are configured.\n")
	}
	for _, d := range destinations {
		fmt.Fprintf(&b, "- `%s` opens `%s`\n", d.Keyword, d.Path)
	}

	b.WriteString("\n## Arguments\n\n")
	b.WriteString("Names are taken from the text after the last occurrence of the keyword:\n")
	b.WriteString("`create file notes.txt` creates `notes.txt`, `rename to draft.md` renames the\n")
	b.WriteString("single selected item. Delete and rename act on the explorer selection.\n")
	return b.String()
}

func quoted(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = "`" + s + "`"
	}
	return out
}
