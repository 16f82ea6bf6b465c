package cli

import (
	"testing"

	"github.com/p1nk23/TgBot/internal/api"
	"github.com/stretchr/testify/assert"
)

func TestPrintView(t *testing.T) {
	out := captureOutput(t)

	printView(&api.ViewResponse{
		Messages: []string{"📂 Root folder", "Contents:\n📁 Work [1]"},
		Items: []api.Item{
			{ID: 1, Label: "Work", Affordances: []string{"descend", "edit", "delete"}},
			{ID: 2, Label: "cat", Kind: "photo", Affordances: []string{"view", "edit", "delete"}},
		},
		Actions:    []string{"add", "search", "list"},
		Attachment: &api.Attachment{MediaReference: "ref", Kind: "photo", Caption: "Photo"},
		Upload:     &api.Upload{URL: "http://up"},
	})

	assert.Equal(t, []string{
		"📂 Root folder",
		"Contents:\n📁 Work [1]",
		"  Work: cd 1 | edit 1 | rm 1\n  cat: view 2 | edit 2 | rm 2",
		"Actions: add, search, ls",
		"Photo (photo): reference ref",
		"Upload URL: http://up",
	}, *out)
}

func TestPrintView_AttachmentURL(t *testing.T) {
	out := captureOutput(t)

	printView(&api.ViewResponse{Attachment: &api.Attachment{MediaReference: "ref", Kind: "audio", Caption: "Audio", URL: "http://get"}})
	printView(nil)

	assert.Equal(t, []string{"Audio (audio): http://get"}, *out)
}
