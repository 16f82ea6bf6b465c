// Package navigation implements the conversational state machine: it turns
// classified commands into node store calls and view models, tracking the
// current folder and pending operation of each conversation.
package navigation

import "github.com/p1nk23/TgBot/internal/server/models"

// Intent is a classified inbound command. The set of implementations is
// closed; Navigator.Handle switches over all of them.
type Intent interface {
	// Name is the wire name of the intent, also used in logs.
	Name() string
	intent()
}

// ShowListing renders the current folder.
type ShowListing struct{}

// Start resets the conversation to the root and renders it.
type Start struct{}

// Menu renders the current location and the global actions.
type Menu struct{}

// Add asks for the label of a new node in the current folder.
type Add struct{}

// AddContent creates a node with Text as label. It completes a pending Add,
// or creates directly when nothing is pending.
type AddContent struct{ Text string }

// AddAttachment stores a media message as a leaf in the current folder.
// An empty Caption falls back to the default caption of Kind.
type AddAttachment struct {
	Kind           models.AttachmentKind
	MediaReference string
	Caption        string
}

// Delete removes node ID.
type Delete struct{ ID int64 }

// Edit asks for a new label for node ID.
type Edit struct{ ID int64 }

// EditContent completes a pending Edit.
type EditContent struct{ Text string }

// Search asks for a search query.
type Search struct{}

// SearchQuery runs a search for Text.
type SearchQuery struct{ Text string }

// Descend moves into folder ID.
type Descend struct{ ID int64 }

// AscendToRoot moves back to the root level.
type AscendToRoot struct{}

// ViewAttachment returns the attachment of leaf ID.
type ViewAttachment struct{ ID int64 }

// Text is free text, routed by the pending operation.
type Text struct{ Text string }

// RequestUpload asks for a presigned upload slot for a new attachment of
// Kind.
type RequestUpload struct{ Kind models.AttachmentKind }

func (ShowListing) Name() string    { return "show-listing" }
func (Start) Name() string          { return "start" }
func (Menu) Name() string           { return "menu" }
func (Add) Name() string            { return "add" }
func (AddContent) Name() string     { return "add-content" }
func (AddAttachment) Name() string  { return "add-attachment" }
func (Delete) Name() string         { return "delete" }
func (Edit) Name() string           { return "edit" }
func (EditContent) Name() string    { return "edit-content" }
func (Search) Name() string         { return "search" }
func (SearchQuery) Name() string    { return "search-query" }
func (Descend) Name() string        { return "descend" }
func (AscendToRoot) Name() string   { return "ascend-to-root" }
func (ViewAttachment) Name() string { return "view-attachment" }
func (Text) Name() string           { return "text" }
func (RequestUpload) Name() string  { return "upload-slot" }

func (ShowListing) intent()    {}
func (Start) intent()          {}
func (Menu) intent()           {}
func (Add) intent()            {}
func (AddContent) intent()     {}
func (AddAttachment) intent()  {}
func (Delete) intent()         {}
func (Edit) intent()           {}
func (EditContent) intent()    {}
func (Search) intent()         {}
func (SearchQuery) intent()    {}
func (Descend) intent()        {}
func (AscendToRoot) intent()   {}
func (ViewAttachment) intent() {}
func (Text) intent()           {}
func (RequestUpload) intent()  {}
