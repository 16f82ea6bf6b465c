package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/p1nk23/TgBot/internal/api"
	"golang.org/x/term"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

var errUsage = errors.New("usage")

const helpText = `Available commands:
  ls | list                      show the current folder
  cd <id>                        open a folder
  cd / | root                    go to the root folder
  add [text]                     create a node, or type its text next
  rm <id>                        delete a node (its children move up)
  edit <id> [text]               rename a node, or type the new text next
  search [text]                  search labels
  view <id> [save]               show an attachment, optionally download it
  attach <kind> <ref> [caption]  save an already uploaded file as a leaf
  upload <kind> <path> [caption] upload a local file and save it as a leaf
  menu | start | help | exit
A line that is not a complete command is sent as text, so "list of books"
answers a prompt. Prefix a line with / to force a command: /ls, /add.
Kinds: document, photo, video, audio, voice, animation.`

var attachmentKinds = map[string]bool{
	"document":  true,
	"photo":     true,
	"video":     true,
	"audio":     true,
	"voice":     true,
	"animation": true,
}

// executor is what the REPL drives. App implements it.
type executor interface {
	send(ctx context.Context, req *api.CommandRequest) (*api.ViewResponse, bool)
	view(ctx context.Context, id int64, save bool)
	upload(ctx context.Context, kind, path, caption string)
}

// runREPL reads lines until EOF or exit and executes them. The prompt is
// printed only when stdin is a terminal so piped input stays quiet.
func runREPL(ctx context.Context, a executor, scanner *bufio.Scanner, interactive bool) {
	for {
		if interactive {
			printlnFn("nk> ")
		}
		if !scanner.Scan() {
			return
		}
		if quit := execute(ctx, a, scanner.Text()); quit {
			return
		}
	}
}

// commandBody strips the leading slash that forces a line to be a command.
func commandBody(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if strings.HasPrefix(t, "/") {
		return t[1:], true
	}
	return t, false
}

// execute runs one input line and reports whether the REPL should stop.
func execute(ctx context.Context, a executor, line string) bool {
	body, forced := commandBody(line)
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "exit", "quit":
		if forced || len(fields) == 1 {
			printlnFn("Bye!")
			return true
		}
	case "help":
		if forced || len(fields) == 1 {
			printlnFn(helpText)
			return false
		}
	case "view":
		if id, save, ok := parseView(fields[1:]); ok {
			a.view(ctx, id, save)
			return false
		}
		if forced {
			printlnFn("Usage: view <id> [save]")
			return false
		}
	case "upload":
		if len(fields) >= 3 && (forced || attachmentKinds[fields[1]]) {
			a.upload(ctx, fields[1], fields[2], restAfter(body, 3))
			return false
		}
		if forced {
			printlnFn("Usage: upload <kind> <path> [caption]")
			return false
		}
	}

	reqs, err := parseLine(line)
	if err != nil {
		printlnFn(err.Error())
		return false
	}
	for _, req := range reqs {
		if _, ok := a.send(ctx, req); !ok {
			break
		}
	}
	return false
}

// parseLine maps a line to the commands it stands for. A line that does not
// form a complete command is free text, unless it was forced with a slash.
func parseLine(line string) ([]*api.CommandRequest, error) {
	body, forced := commandBody(line)
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return nil, nil
	}

	reqs, usage := parseCommand(body, fields, forced)
	switch {
	case reqs != nil:
		return reqs, nil
	case forced && usage != "":
		return nil, fmt.Errorf("usage: %s", usage)
	case forced:
		return nil, fmt.Errorf("unknown command %q, type help", fields[0])
	default:
		return []*api.CommandRequest{{Intent: "text", Text: strings.TrimSpace(line)}}, nil
	}
}

// parseCommand returns nil requests when fields are not a well-formed
// command, along with the usage of the keyword if it was one.
func parseCommand(body string, fields []string, forced bool) ([]*api.CommandRequest, string) {
	args := fields[1:]

	bare := func(intent string) ([]*api.CommandRequest, string) {
		if len(args) > 0 {
			return nil, fields[0]
		}
		return one(intent), ""
	}
	withID := func(intent, usage string) ([]*api.CommandRequest, string) {
		if len(args) != 1 {
			return nil, usage
		}
		id, err := parseID(args[0])
		if err != nil {
			return nil, usage
		}
		return []*api.CommandRequest{{Intent: intent, NodeID: id}}, ""
	}

	switch fields[0] {
	case "ls", "list":
		return bare("show-listing")
	case "start", "menu":
		return bare(fields[0])
	case "root":
		return bare("ascend-to-root")
	case "add":
		if text := restAfter(body, 1); text != "" {
			return []*api.CommandRequest{{Intent: "add-content", Text: text}}, ""
		}
		return one("add"), ""
	case "cd":
		if len(args) == 1 && (args[0] == "/" || args[0] == "~") {
			return one("ascend-to-root"), ""
		}
		return withID("descend", "cd <id> | cd /")
	case "rm", "delete":
		return withID("delete", "rm <id>")
	case "edit":
		const usage = "edit <id> [text]"
		if len(args) == 0 {
			return nil, usage
		}
		id, err := parseID(args[0])
		if err != nil {
			return nil, usage
		}
		reqs := []*api.CommandRequest{{Intent: "edit", NodeID: id}}
		if text := restAfter(body, 2); text != "" {
			reqs = append(reqs, &api.CommandRequest{Intent: "edit-content", Text: text})
		}
		return reqs, ""
	case "search":
		reqs := one("search")
		if q := restAfter(body, 1); q != "" {
			reqs = append(reqs, &api.CommandRequest{Intent: "search-query", Text: q})
		}
		return reqs, ""
	case "attach":
		if len(args) < 2 || !(forced || attachmentKinds[args[0]]) {
			return nil, "attach <kind> <ref> [caption]"
		}
		return []*api.CommandRequest{{
			Intent:         "add-attachment",
			Kind:           args[0],
			MediaReference: args[1],
			Caption:        restAfter(body, 3),
		}}, ""
	}
	return nil, ""
}

// parseView accepts "<id>" and "<id> save".
func parseView(args []string) (int64, bool, bool) {
	if len(args) == 0 || len(args) > 2 || (len(args) == 2 && args[1] != "save") {
		return 0, false, false
	}
	id, err := parseID(args[0])
	if err != nil {
		return 0, false, false
	}
	return id, len(args) == 2, true
}

func one(intent string) []*api.CommandRequest {
	return []*api.CommandRequest{{Intent: intent}}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errUsage
	}
	return id, nil
}

// restAfter returns the text of line after its first n fields, with the
// original spacing kept.
func restAfter(line string, n int) string {
	rest := strings.TrimSpace(line)
	for i := 0; i < n; i++ {
		idx := strings.IndexFunc(rest, isSpace)
		if idx < 0 {
			return ""
		}
		rest = strings.TrimLeftFunc(rest[idx:], isSpace)
	}
	return rest
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
