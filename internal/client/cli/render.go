package cli

import (
	"fmt"
	"strings"

	"github.com/p1nk23/TgBot/internal/api"
)

// printView prints the server's messages followed by the available actions.
func printView(v *api.ViewResponse) {
	if v == nil {
		return
	}
	for _, m := range v.Messages {
		printlnFn(m)
	}
	if hint := itemHints(v.Items); hint != "" {
		printlnFn(hint)
	}
	if len(v.Actions) > 0 {
		printlnFn("Actions: " + strings.Join(actionCommands(v.Actions), ", "))
	}
	if v.Attachment != nil {
		where := v.Attachment.URL
		if where == "" {
			where = "reference " + v.Attachment.MediaReference
		}
		printlnFn(fmt.Sprintf("%s (%s): %s", v.Attachment.Caption, v.Attachment.Kind, where))
	}
	if v.Upload != nil {
		printlnFn("Upload URL: " + v.Upload.URL)
	}
}

// itemHints tells the user which REPL commands apply to the listed items.
func itemHints(items []api.Item) string {
	if len(items) == 0 {
		return ""
	}
	var lines []string
	for _, it := range items {
		var cmds []string
		for _, a := range it.Affordances {
			switch a {
			case "descend":
				cmds = append(cmds, fmt.Sprintf("cd %d", it.ID))
			case "view":
				cmds = append(cmds, fmt.Sprintf("view %d", it.ID))
			case "edit":
				cmds = append(cmds, fmt.Sprintf("edit %d", it.ID))
			case "delete":
				cmds = append(cmds, fmt.Sprintf("rm %d", it.ID))
			}
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", it.Label, strings.Join(cmds, " | ")))
	}
	return strings.Join(lines, "\n")
}

func actionCommands(actions []string) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		switch a {
		case "list":
			out = append(out, "ls")
		default:
			out = append(out, a)
		}
	}
	return out
}
