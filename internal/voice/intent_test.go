package voice

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text string
		want Command
	}{
		{"create file notes.txt", Command{Intent: IntentCreateFile, Text: "create file notes.txt", Arg: "notes.txt"}},
		{"Create File Notes.TXT", Command{Intent: IntentCreateFile, Text: "create file notes.txt", Arg: "notes.txt"}},
		{"create file notes dot text", Command{Intent: IntentCreateFile, Text: "create file notes dot text", Arg: "notes dot text"}},
		{"create folder projects", Command{Intent: IntentCreateFolder, Text: "create folder projects", Arg: "projects"}},
		{"please open downloads", Command{Intent: IntentNavigate, Text: "please open downloads"}},
		{"go to desktop", Command{Intent: IntentNavigate, Text: "go to desktop"}},
		{"open and delete", Command{Intent: IntentNavigate, Text: "open and delete"}},
		{"go back", Command{Intent: IntentBack, Text: "go back"}},
		{"move up", Command{Intent: IntentUp, Text: "move up"}},
		{"delete this", Command{Intent: IntentDelete, Text: "delete this"}},
		{"rename to report", Command{Intent: IntentRename, Text: "rename to report", Arg: "report"}},
		{"rename to todo", Command{Intent: IntentRename, Text: "rename to todo", Arg: "do"}},
		{"search report", Command{Intent: IntentSearch, Text: "search report", Arg: "report"}},
		{"stop the process", Command{Intent: IntentStop, Text: "stop the process"}},
		{"exit", Command{Intent: IntentStop, Text: "exit"}},
		{"frobnicate", Command{Intent: IntentUnrecognized, Text: "frobnicate"}},
		{"create file", Command{Intent: IntentCreateFile, Text: "create file", Arg: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Parse(tt.text)); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestParsePriority(t *testing.T) {
	// "backup" contains "up" but "back" is checked first.
	if got := Parse("backup").Intent; got != IntentBack {
		t.Errorf("Parse(backup) = %s, want %s", got, IntentBack)
	}
	// "create file" wins over "delete" because it is checked earlier.
	if got := Parse("create file delete.me").Intent; got != IntentCreateFile {
		t.Errorf("intent = %s, want %s", got, IntentCreateFile)
	}
}

func TestAfterUsesLastOccurrence(t *testing.T) {
	// "rename to photo to print": text after the last "to".
	if got := Parse("rename to photo to print").Arg; got != "print" {
		t.Errorf("Arg = %q, want %q", got, "print")
	}
}

func TestCommandsOrder(t *testing.T) {
	var got []Intent
	for _, c := range Commands() {
		got = append(got, c.Intent)
	}
	want := []Intent{
		IntentNavigate, IntentBack, IntentUp, IntentCreateFile, IntentCreateFolder,
		IntentDelete, IntentRename, IntentSearch, IntentStop,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Commands order mismatch (-want +got):\n%s", diff)
	}
	if Commands()[0].Priority != 1 {
		t.Errorf("first priority = %d, want 1", Commands()[0].Priority)
	}
}
