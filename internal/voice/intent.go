// Package voice turns free-text utterances into explorer actions. Parsing is
// an ordered table of substring rules: the first matching rule wins, so a
// phrase containing both "open" and "delete" always navigates.
package voice

import "strings"

// Intent is the normalized action derived from an utterance.
type Intent string

const (
	IntentNavigate     Intent = "navigate"
	IntentBack         Intent = "back"
	IntentUp           Intent = "up"
	IntentCreateFile   Intent = "createFile"
	IntentCreateFolder Intent = "createFolder"
	IntentDelete       Intent = "delete"
	IntentRename       Intent = "renameTo"
	IntentSearch       Intent = "search"
	IntentStop         Intent = "stop"
	IntentUnrecognized Intent = "unrecognized"
)

// Command is a parsed utterance.
type Command struct {
	Intent Intent `json:"intent"`
	Text   string `json:"text"`
	Arg    string `json:"arg,omitempty"`
}

// rule is one row of the routing table.
type rule struct {
	intent      Intent
	keywords    []string
	description string
	match       func(text string) bool
	extract     func(text string) string
	action      action
}

// rules is evaluated top to bottom. Order is significant.
var rules = []rule{
	{
		intent:      IntentNavigate,
		keywords:    []string{"open", "go to"},
		description: "Open a configured destination, e.g. \"open downloads\".",
		match:       containsAny("open", "go to"),
		action:      (*Dispatcher).navigate,
	},
	{
		intent:      IntentBack,
		keywords:    []string{"back"},
		description: "Go back one step in the navigation history.",
		match:       containsAny("back"),
		action:      (*Dispatcher).back,
	},
	{
		intent:      IntentUp,
		keywords:    []string{"up"},
		description: "Go to the parent directory.",
		match:       containsAny("up"),
		action:      (*Dispatcher).up,
	},
	{
		intent:      IntentCreateFile,
		keywords:    []string{"create file"},
		description: "Create a file named by the text after \"file\".",
		match:       containsAny("create file"),
		extract:     after("file"),
		action:      (*Dispatcher).createFile,
	},
	{
		intent:      IntentCreateFolder,
		keywords:    []string{"create folder"},
		description: "Create a folder named by the text after \"folder\".",
		match:       containsAny("create folder"),
		extract:     after("folder"),
		action:      (*Dispatcher).createFolder,
	},
	{
		intent:      IntentDelete,
		keywords:    []string{"delete"},
		description: "Delete the current selection.",
		match:       containsAny("delete"),
		action:      (*Dispatcher).deleteSelection,
	},
	{
		intent:      IntentRename,
		keywords:    []string{"rename to"},
		description: "Rename the selected item to the text after \"to\".",
		match:       containsAny("rename to"),
		extract:     after("to"),
		action:      (*Dispatcher).rename,
	},
	{
		intent:      IntentSearch,
		keywords:    []string{"search"},
		description: "Search file names and tags for the text after \"search\".",
		match:       containsAny("search"),
		extract:     after("search"),
		action:      (*Dispatcher).search,
	},
	{
		intent:      IntentStop,
		keywords:    []string{"stop", "exit"},
		description: "Stop the voice assistant.",
		match:       containsAny("stop", "exit"),
		action:      (*Dispatcher).stop,
	},
}

// Parse lower-cases text and returns the command of the first matching rule.
func Parse(text string) Command {
	cmd, _ := parse(text)
	return cmd
}

func parse(text string) (Command, *rule) {
	lower := strings.ToLower(strings.TrimSpace(text))
	for i := range rules {
		r := &rules[i]
		if !r.match(lower) {
			continue
		}
		cmd := Command{Intent: r.intent, Text: lower}
		if r.extract != nil {
			cmd.Arg = r.extract(lower)
		}
		return cmd, r
	}
	return Command{Intent: IntentUnrecognized, Text: lower}, nil
}

func containsAny(keywords ...string) func(string) bool {
	return func(text string) bool {
		for _, k := range keywords {
			if strings.Contains(text, k) {
				return true
			}
		}
		return false
	}
}

// after returns the trimmed text following the last occurrence of keyword,
// even inside a word: "rename to report" yields "report" but "rename to todo"
// yields "do". "create file notes dot text" keeps the connector words.
func after(keyword string) func(string) string {
	return func(text string) string {
		i := strings.LastIndex(text, keyword)
		if i < 0 {
			return ""
		}
		return strings.TrimSpace(text[i+len(keyword):])
	}
}

// CommandHelp documents one routing rule.
type CommandHelp struct {
	Priority    int      `json:"priority"`
	Intent      Intent   `json:"intent"`
	Keywords    []string `json:"keywords"`
	Description string   `json:"description"`
}

// Commands returns the routing table in evaluation order.
func Commands() []CommandHelp {
	out := make([]CommandHelp, 0, len(rules))
	for i, r := range rules {
		out = append(out, CommandHelp{
			Priority:    i + 1,
			Intent:      r.intent,
			Keywords:    append([]string(nil), r.keywords...),
			Description: r.description,
		})
	}
	return out
}
