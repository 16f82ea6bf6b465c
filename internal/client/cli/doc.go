// Package cli is the interactive REPL client of the node keeper.
//
// Each input line becomes one or more commands for the server. Keywords
// (ls, cd, add, rm, edit, search, view, attach, upload, menu, start) map to
// navigation intents; any other line is sent as free text and answers
// whatever the server is waiting for (a new node's text, a new label, a
// search query). The REPL is started with App.Run, which blocks until the
// user exits or stdin ends.
package cli
