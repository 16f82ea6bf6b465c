package navigation

import "github.com/p1nk23/TgBot/internal/server/models"

// Affordance is something the user can do with a listed item.
type Affordance string

const (
	AffordanceDescend Affordance = "descend"
	AffordanceView    Affordance = "view"
	AffordanceEdit    Affordance = "edit"
	AffordanceDelete  Affordance = "delete"
)

// Action is a global action offered below a listing.
type Action string

const (
	ActionAdd    Action = "add"
	ActionSearch Action = "search"
	ActionList   Action = "list"
	ActionRoot   Action = "root"
)

// Item is a selectable node in a view. Kind is nil for folders.
type Item struct {
	ID          int64
	Label       string
	Kind        *models.AttachmentKind
	Affordances []Affordance
}

// AttachmentView tells the transport which media to deliver. URL is a
// short-lived download link when object storage is configured.
type AttachmentView struct {
	MediaReference string
	Kind           models.AttachmentKind
	Caption        string
	URL            string
}

// UploadSlot is a presigned upload target. After uploading to URL the client
// sends an AddAttachment carrying MediaReference.
type UploadSlot struct {
	MediaReference string
	Kind           models.AttachmentKind
	URL            string
}

// View is what the transport renders for one handled command. Messages are
// already chunked to the configured size limit.
type View struct {
	Messages   []string
	Items      []Item
	Actions    []Action
	Attachment *AttachmentView
	Upload     *UploadSlot
}

func (v *View) say(msgs ...string) {
	v.Messages = append(v.Messages, msgs...)
}

// merge appends the contents of o to v.
func (v *View) merge(o *View) {
	if o == nil {
		return
	}
	v.Messages = append(v.Messages, o.Messages...)
	v.Items = append(v.Items, o.Items...)
	v.Actions = append(v.Actions, o.Actions...)
	if o.Attachment != nil {
		v.Attachment = o.Attachment
	}
	if o.Upload != nil {
		v.Upload = o.Upload
	}
}

func affordancesFor(n models.Node) []Affordance {
	if n.IsLeaf() {
		return []Affordance{AffordanceView, AffordanceEdit, AffordanceDelete}
	}
	return []Affordance{AffordanceDescend, AffordanceEdit, AffordanceDelete}
}

func itemFor(n models.Node) Item {
	it := Item{ID: n.ID, Label: n.Label, Affordances: affordancesFor(n)}
	if n.Attachment != nil {
		k := n.Attachment.Kind
		it.Kind = &k
	}
	return it
}
