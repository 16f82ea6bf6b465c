package api

// CommandRequest is one classified command. Intent is one of the intent
// names (show-listing, add, add-content, delete, edit, edit-content, search,
// search-query, descend, ascend-to-root, view-attachment, text,
// add-attachment, upload-slot, start, menu); the other fields are read as
// the intent requires.
type CommandRequest struct {
	Conversation   string `json:"conversation"`
	Intent         string `json:"intent"`
	NodeID         int64  `json:"node_id,omitempty"`
	Text           string `json:"text,omitempty"`
	Kind           string `json:"kind,omitempty"`
	MediaReference string `json:"media_reference,omitempty"`
	Caption        string `json:"caption,omitempty"`
}

// Item is a selectable node. Kind is empty for folders.
type Item struct {
	ID          int64    `json:"id"`
	Label       string   `json:"label"`
	Kind        string   `json:"kind,omitempty"`
	Affordances []string `json:"affordances"`
}

// Attachment tells the client which media to fetch.
type Attachment struct {
	MediaReference string `json:"media_reference"`
	Kind           string `json:"kind"`
	Caption        string `json:"caption"`
	URL            string `json:"url,omitempty"`
}

// Upload is a presigned upload target.
type Upload struct {
	MediaReference string `json:"media_reference"`
	Kind           string `json:"kind"`
	URL            string `json:"url"`
}

// ViewResponse is the rendered result of a command.
type ViewResponse struct {
	Messages   []string    `json:"messages"`
	Items      []Item      `json:"items,omitempty"`
	Actions    []string    `json:"actions,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Upload     *Upload     `json:"upload,omitempty"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}
