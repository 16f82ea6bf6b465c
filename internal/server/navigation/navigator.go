package navigation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/p1nk23/TgBot/internal/common"
	"github.com/p1nk23/TgBot/internal/logging"
	"github.com/p1nk23/TgBot/internal/server/models"
	"github.com/p1nk23/TgBot/internal/server/services"
	"github.com/p1nk23/TgBot/internal/server/session"
)

// MinSearchQueryLength is the minimum number of runes of a trimmed query.
const MinSearchQueryLength = 2

// NodeStore is what the navigator needs from the node service.
type NodeStore interface {
	ListChildren(ctx context.Context, ownerID int64, parentID *int64) ([]models.Node, error)
	Create(ctx context.Context, ownerID int64, parentID *int64, label string, att *models.Attachment) (int64, error)
	Delete(ctx context.Context, ownerID, id int64) (bool, error)
	UpdateLabel(ctx context.Context, ownerID, id int64, label string) (bool, error)
	ExistsAndOwned(ctx context.Context, ownerID, id int64) (bool, error)
	GetAttachmentKind(ctx context.Context, ownerID, id int64) (*models.AttachmentKind, error)
	Get(ctx context.Context, ownerID, id int64) (*models.Node, error)
	ResolvePath(ctx context.Context, ownerID, id int64) ([]string, error)
	Search(ctx context.Context, ownerID int64, query string) ([]services.SearchHit, error)
}

// MediaLinker turns media references into URLs the transport can use.
type MediaLinker interface {
	DownloadURL(ctx context.Context, mediaReference string) (string, error)
	UploadSlot(ctx context.Context) (mediaReference, url string, err error)
}

// Navigator handles commands for all conversations.
type Navigator struct {
	nodes    NodeStore
	sessions *session.Store
	media    MediaLinker
	limit    int
	log      logging.Logger
}

// NewNavigator wires a navigator. media may be nil, in which case
// attachments are returned without URLs and upload slots are refused.
func NewNavigator(nodes NodeStore, sessions *session.Store, media MediaLinker, messageLimit int, log logging.Logger) *Navigator {
	if log == nil {
		log = logging.Nop{}
	}
	if messageLimit <= 0 {
		messageLimit = DefaultMessageLimit
	}
	return &Navigator{
		nodes:    nodes,
		sessions: sessions,
		media:    media,
		limit:    messageLimit,
		log:      log.With("module", "navigation"),
	}
}

const (
	msgWelcome         = "Welcome to your node store."
	msgStoreFailure    = "⚠️ Something went wrong, please try again later."
	msgNotFound        = "❌ Node not found or not yours."
	msgFolderNotFound  = "❌ Folder not found or not yours."
	msgEmptyText       = "Text cannot be empty. Try again:"
	msgShortQuery      = "The query must be at least 2 characters long. Try again:"
	msgAddPrompt       = "✏️ Enter the text of the new node:"
	msgSearchPrompt    = "🔍 Enter the text to search for:"
	msgNothingFound    = "🔍 Nothing found."
	msgNotAFolder      = "❌ This is a media file, not a folder. Use view instead."
	msgNotAnAttachment = "❌ This is a folder, it has no attachment. Open it instead."
	msgDeliveryFailed  = "❌ Could not deliver the file."
	msgUploadDisabled  = "❌ Uploads are not available."
	msgIdleHint        = "Nothing is waiting for input. Use add, search or open a folder."
	msgNoEdit          = "No edit in progress. Choose a node to edit first."
	msgFolderGone      = "❌ The current folder no longer exists. Back at the root folder."
	msgListingLater    = "⚠️ The listing is unavailable right now, use ls to refresh."
)

var errUnknownIntent = errors.New("unknown intent")

// Handle applies one command to the conversation identified by key and
// returns the view to render. Store failures are reported in the view; the
// session keeps its previous state when a store call it depends on fails.
// An error is returned only for an intent the navigator does not know.
func (n *Navigator) Handle(ctx context.Context, key session.Key, in Intent) (*View, error) {
	if in == nil {
		return nil, errUnknownIntent
	}

	var (
		view *View
		herr error
	)
	_ = n.sessions.Do(key, func(st *session.State) error {
		next := *st
		v, err := n.dispatch(ctx, key.OwnerID, &next, in)
		switch {
		case err == nil:
			*st = next
			view = v
		case errors.Is(err, errUnknownIntent):
			herr = err
		default:
			n.log.Error(ctx, "command failed", "owner", key.OwnerID, "intent", in.Name(), "error", err)
			view = &View{Messages: []string{msgStoreFailure}}
		}
		return nil
	})
	if herr != nil {
		return nil, herr
	}

	n.log.Info(ctx, "command handled", "owner", key.OwnerID, "intent", in.Name(), "messages", len(view.Messages))
	return view, nil
}

// dispatch computes the next state into st. A non-nil error means st must be
// discarded.
func (n *Navigator) dispatch(ctx context.Context, owner int64, st *session.State, in Intent) (*View, error) {
	switch in := in.(type) {
	case Text:
		return n.routeText(ctx, owner, st, in.Text)
	case AddContent:
		return n.addContent(ctx, owner, st, in.Text)
	case EditContent:
		if _, ok := st.PendingOrNone().(session.AwaitingEditContent); !ok {
			st.Clear()
			return &View{Messages: []string{msgNoEdit}}, nil
		}
		return n.routeText(ctx, owner, st, in.Text)
	case SearchQuery:
		st.Pending = session.AwaitingSearchQuery{}
		return n.searchQuery(ctx, owner, st, in.Text)
	}

	// every other intent starts afresh
	st.Clear()

	switch in := in.(type) {
	case ShowListing:
		return n.listing(ctx, owner, st)
	case Start:
		st.Reset()
		v := &View{Messages: []string{msgWelcome}}
		l, err := n.listing(ctx, owner, st)
		if err != nil {
			return nil, err
		}
		v.merge(l)
		return v, nil
	case Menu:
		return n.menu(ctx, owner, st)
	case Add:
		st.Pending = session.AwaitingAddContent{}
		return &View{Messages: []string{msgAddPrompt}}, nil
	case AddAttachment:
		return n.addAttachment(ctx, owner, st, in)
	case Delete:
		return n.delete(ctx, owner, st, in.ID)
	case Edit:
		return n.edit(ctx, owner, st, in.ID)
	case Search:
		st.Pending = session.AwaitingSearchQuery{}
		return &View{Messages: []string{msgSearchPrompt}}, nil
	case Descend:
		return n.descend(ctx, owner, st, in.ID)
	case AscendToRoot:
		st.CurrentFolderID = nil
		return n.listing(ctx, owner, st)
	case ViewAttachment:
		return n.viewAttachment(ctx, owner, in.ID)
	case RequestUpload:
		return n.uploadSlot(ctx, in.Kind)
	default:
		return nil, fmt.Errorf("%w: %T", errUnknownIntent, in)
	}
}

func (n *Navigator) routeText(ctx context.Context, owner int64, st *session.State, text string) (*View, error) {
	switch p := st.PendingOrNone().(type) {
	case session.AwaitingAddContent:
		return n.addContent(ctx, owner, st, text)
	case session.AwaitingEditContent:
		return n.editContent(ctx, owner, st, p.Target, text)
	case session.AwaitingSearchQuery:
		return n.searchQuery(ctx, owner, st, text)
	case session.None:
		return &View{Messages: []string{msgIdleHint}}, nil
	default:
		panic(fmt.Sprintf("navigation: unhandled pending operation %T", p))
	}
}

func (n *Navigator) addContent(ctx context.Context, owner int64, st *session.State, text string) (*View, error) {
	if strings.TrimSpace(text) == "" {
		st.Pending = session.AwaitingAddContent{}
		return &View{Messages: []string{msgEmptyText}}, nil
	}

	id, err := n.nodes.Create(ctx, owner, st.CurrentFolderID, text, nil)
	return n.afterCreate(ctx, owner, st, id, err, "✅ Node created! ID: %d")
}

func (n *Navigator) addAttachment(ctx context.Context, owner int64, st *session.State, in AddAttachment) (*View, error) {
	if !in.Kind.Valid() || strings.TrimSpace(in.MediaReference) == "" {
		return &View{Messages: []string{"❌ Unsupported or empty attachment."}}, nil
	}
	caption := strings.TrimSpace(in.Caption)
	if caption == "" || in.Kind == models.KindVoice {
		caption = DefaultCaption(in.Kind)
	}

	att := &models.Attachment{MediaReference: in.MediaReference, Kind: in.Kind}
	id, err := n.nodes.Create(ctx, owner, st.CurrentFolderID, caption, att)
	return n.afterCreate(ctx, owner, st, id, err, KindIcon(&in.Kind)+" "+DefaultCaption(in.Kind)+" saved! ID: %d")
}

func (n *Navigator) afterCreate(ctx context.Context, owner int64, st *session.State, id int64, err error, format string) (*View, error) {
	switch {
	case errors.Is(err, common.ErrNotFoundOrNotOwned):
		st.Reset()
		return n.withListing(ctx, owner, st, &View{Messages: []string{msgFolderGone}}), nil
	case errors.Is(err, common.ErrValidation):
		return &View{Messages: []string{msgEmptyText}}, nil
	case err != nil:
		return nil, err
	}

	st.Clear()
	return n.withListing(ctx, owner, st, &View{Messages: []string{fmt.Sprintf(format, id)}}), nil
}

// withListing appends the listing to v once the write it reports has been
// committed, so a failing read must not roll the session back.
func (n *Navigator) withListing(ctx context.Context, owner int64, st *session.State, v *View) *View {
	l, err := n.listing(ctx, owner, st)
	if err != nil {
		n.log.Warn(ctx, "listing after write failed", "owner", owner, "error", err)
		v.say(msgListingLater)
		return v
	}
	v.merge(l)
	return v
}

func (n *Navigator) edit(ctx context.Context, owner int64, st *session.State, id int64) (*View, error) {
	ok, err := n.nodes.ExistsAndOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &View{Messages: []string{msgNotFound}}, nil
	}
	st.Pending = session.AwaitingEditContent{Target: id}
	return &View{Messages: []string{fmt.Sprintf("✏️ Enter the new text for node %d:", id)}}, nil
}

func (n *Navigator) editContent(ctx context.Context, owner int64, st *session.State, target int64, text string) (*View, error) {
	if strings.TrimSpace(text) == "" {
		return &View{Messages: []string{msgEmptyText}}, nil
	}

	ok, err := n.nodes.UpdateLabel(ctx, owner, target, text)
	if err != nil {
		return nil, err
	}
	st.Clear()
	if !ok {
		return &View{Messages: []string{"❌ Could not update the node, it may have been deleted."}}, nil
	}
	return &View{Messages: []string{fmt.Sprintf("✅ Node %d updated!", target)}}, nil
}

func (n *Navigator) searchQuery(ctx context.Context, owner int64, st *session.State, text string) (*View, error) {
	query := strings.TrimSpace(text)
	if utf8.RuneCountInString(query) < MinSearchQueryLength {
		return &View{Messages: []string{msgShortQuery}}, nil
	}

	hits, err := n.nodes.Search(ctx, owner, query)
	if err != nil {
		return nil, err
	}
	st.Clear()

	if len(hits) == 0 {
		return &View{Messages: []string{msgNothingFound}}, nil
	}

	v := &View{}
	blocks := []string{fmt.Sprintf("Found %d results:", len(hits))}
	for _, h := range hits {
		path := unknownPath
		if h.PathErr == nil {
			path = FormatPath(h.Path)
		}
		it := itemFor(h.Node)
		blocks = append(blocks, fmt.Sprintf("• ID %d: %s\n  Path: %s", h.ID, h.Label, path))
		v.Items = append(v.Items, it)
	}
	v.Messages = Chunk(blocks, n.limit)
	return v, nil
}

func (n *Navigator) descend(ctx context.Context, owner int64, st *session.State, id int64) (*View, error) {
	ok, err := n.nodes.ExistsAndOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &View{Messages: []string{msgFolderNotFound}}, nil
	}

	kind, err := n.nodes.GetAttachmentKind(ctx, owner, id)
	if errors.Is(err, common.ErrNotFoundOrNotOwned) {
		return &View{Messages: []string{msgFolderNotFound}}, nil
	}
	if err != nil {
		return nil, err
	}
	if kind != nil {
		return &View{Messages: []string{msgNotAFolder}}, nil
	}

	st.CurrentFolderID = &id
	return n.listing(ctx, owner, st)
}

func (n *Navigator) delete(ctx context.Context, owner int64, st *session.State, id int64) (*View, error) {
	deleted, err := n.nodes.Delete(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	v := &View{}
	if deleted {
		v.say(fmt.Sprintf("✅ Node %d deleted.", id))
	} else {
		v.say(msgNotFound)
	}
	return n.withListing(ctx, owner, st, v), nil
}

func (n *Navigator) viewAttachment(ctx context.Context, owner int64, id int64) (*View, error) {
	node, err := n.nodes.Get(ctx, owner, id)
	if errors.Is(err, common.ErrNotFoundOrNotOwned) {
		return &View{Messages: []string{"❌ File not found."}}, nil
	}
	if err != nil {
		return nil, err
	}
	if node.Attachment == nil {
		return &View{Messages: []string{msgNotAnAttachment}}, nil
	}

	av := &AttachmentView{
		MediaReference: node.Attachment.MediaReference,
		Kind:           node.Attachment.Kind,
		Caption:        node.Label,
	}
	if n.media != nil {
		url, err := n.media.DownloadURL(ctx, av.MediaReference)
		if err != nil {
			n.log.Warn(ctx, "attachment delivery failed", "owner", owner, "node", id, "error", err)
			return &View{Messages: []string{msgDeliveryFailed}}, nil
		}
		av.URL = url
	}
	return &View{Attachment: av}, nil
}

func (n *Navigator) uploadSlot(ctx context.Context, kind models.AttachmentKind) (*View, error) {
	if !kind.Valid() {
		return &View{Messages: []string{"❌ Unsupported attachment kind."}}, nil
	}
	if n.media == nil {
		return &View{Messages: []string{msgUploadDisabled}}, nil
	}
	ref, url, err := n.media.UploadSlot(ctx)
	if err != nil {
		n.log.Warn(ctx, "upload slot failed", "error", err)
		return &View{Messages: []string{msgUploadDisabled}}, nil
	}
	return &View{
		Messages: []string{fmt.Sprintf("⬆️ Upload the %s, then attach it with reference %s.", kind, ref)},
		Upload:   &UploadSlot{MediaReference: ref, Kind: kind, URL: url},
	}, nil
}

// location renders the breadcrumb of the current folder.
func (n *Navigator) location(ctx context.Context, owner int64, st *session.State) (string, error) {
	if st.CurrentFolderID == nil {
		return "", nil
	}
	path, err := n.nodes.ResolvePath(ctx, owner, *st.CurrentFolderID)
	if errors.Is(err, common.ErrCorruptPath) {
		n.log.Warn(ctx, "corrupt path", "owner", owner, "node", *st.CurrentFolderID)
		return unknownPath, nil
	}
	if err != nil {
		return "", err
	}
	return FormatPath(path), nil
}

func (n *Navigator) globalActions(st *session.State, extra ...Action) []Action {
	actions := append([]Action{ActionAdd, ActionSearch}, extra...)
	if st.CurrentFolderID != nil {
		actions = append(actions, ActionRoot)
	}
	return actions
}

func (n *Navigator) listing(ctx context.Context, owner int64, st *session.State) (*View, error) {
	children, err := n.nodes.ListChildren(ctx, owner, st.CurrentFolderID)
	if err != nil {
		return nil, err
	}

	header := "📂 Root folder"
	if st.CurrentFolderID != nil {
		loc, err := n.location(ctx, owner, st)
		if err != nil {
			return nil, err
		}
		header = "📂 Current folder:\n" + loc
	}

	v := &View{Actions: n.globalActions(st)}
	blocks := []string{header}
	if len(children) == 0 {
		blocks = append(blocks, "Folder is empty.")
	} else {
		blocks = append(blocks, "Contents:")
		for _, c := range children {
			it := itemFor(c)
			v.Items = append(v.Items, it)
			blocks = append(blocks, itemLine(it))
		}
	}
	v.Messages = Chunk(blocks, n.limit)
	return v, nil
}

func (n *Navigator) menu(ctx context.Context, owner int64, st *session.State) (*View, error) {
	text := "Quick actions:\n📍 You are in the root folder."
	if st.CurrentFolderID != nil {
		loc, err := n.location(ctx, owner, st)
		if err != nil {
			return nil, err
		}
		text = "Quick actions:\n📍 Current folder: " + loc
	}
	return &View{
		Messages: []string{text},
		Actions:  n.globalActions(st, ActionList),
	}, nil
}
