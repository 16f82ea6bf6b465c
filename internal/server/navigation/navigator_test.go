package navigation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/p1nk23/TgBot/internal/dbx"
	"github.com/p1nk23/TgBot/internal/server/models"
	"github.com/p1nk23/TgBot/internal/server/repositories/nodes"
	"github.com/p1nk23/TgBot/internal/server/repositories/nodes/nodestest"
	"github.com/p1nk23/TgBot/internal/server/services"
	"github.com/p1nk23/TgBot/internal/server/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepoManager struct{ repo nodes.Repository }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Nodes(dbx.DBTX) nodes.Repository             { return m.repo }

type fakeMedia struct {
	err error
}

func (f *fakeMedia) DownloadURL(_ context.Context, ref string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://media.example/" + ref, nil
}

func (f *fakeMedia) UploadSlot(context.Context) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	return "users/2024/1/1/abc", "https://media.example/put/abc", nil
}

// failingStore fails ListChildren and Search; everything else is delegated.
type failingStore struct {
	NodeStore
	err error
}

func (f failingStore) ListChildren(context.Context, int64, *int64) ([]models.Node, error) {
	return nil, f.err
}

func (f failingStore) Search(context.Context, int64, string) ([]services.SearchHit, error) {
	return nil, f.err
}

type harness struct {
	nav      *Navigator
	svc      *services.NodeService
	repo     *nodestest.MemoryRepository
	sessions *session.Store
	mock     sqlmock.Sqlmock
	media    *fakeMedia
	key      session.Key
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := nodestest.NewMemoryRepository()
	svc := services.NewNodeService(db, &fakeRepoManager{repo: repo}, nil)
	sessions := session.NewStore(time.Minute, nil)
	media := &fakeMedia{}

	return &harness{
		nav:      NewNavigator(svc, sessions, media, DefaultMessageLimit, nil),
		svc:      svc,
		repo:     repo,
		sessions: sessions,
		mock:     mock,
		media:    media,
		key:      session.Key{OwnerID: 100, Conversation: "chat"},
	}
}

func (h *harness) handle(t *testing.T, in Intent) *View {
	t.Helper()
	v, err := h.nav.Handle(context.Background(), h.key, in)
	require.NoError(t, err)
	require.NotNil(t, v)
	return v
}

func (h *harness) state(t *testing.T) session.State {
	t.Helper()
	st, ok := h.sessions.Snapshot(h.key)
	require.True(t, ok)
	return st
}

func (h *harness) create(t *testing.T, parent *int64, label string, att *models.Attachment) int64 {
	t.Helper()
	id, err := h.svc.Create(context.Background(), h.key.OwnerID, parent, label, att)
	require.NoError(t, err)
	return id
}

func (h *harness) expectTx() {
	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
}

func joined(v *View) string { return strings.Join(v.Messages, "\n") }

func photo(ref string) *models.Attachment {
	return &models.Attachment{MediaReference: ref, Kind: models.KindPhoto}
}

func TestListing_EmptyRoot(t *testing.T) {
	h := newHarness(t)

	v := h.handle(t, ShowListing{})
	assert.Equal(t, []string{"📂 Root folder\nFolder is empty."}, v.Messages)
	assert.Empty(t, v.Items)
	assert.Equal(t, []Action{ActionAdd, ActionSearch}, v.Actions)

	st := h.state(t)
	assert.Nil(t, st.CurrentFolderID)
	assert.True(t, st.Idle())
}

func TestListing_AffordancesByKind(t *testing.T) {
	h := newHarness(t)
	folder := h.create(t, nil, "Docs", nil)
	leaf := h.create(t, nil, "pic", photo("f1"))

	v := h.handle(t, ShowListing{})
	require.Len(t, v.Items, 2)

	assert.Equal(t, folder, v.Items[0].ID)
	assert.Nil(t, v.Items[0].Kind)
	assert.Equal(t, []Affordance{AffordanceDescend, AffordanceEdit, AffordanceDelete}, v.Items[0].Affordances)

	assert.Equal(t, leaf, v.Items[1].ID)
	require.NotNil(t, v.Items[1].Kind)
	assert.Equal(t, models.KindPhoto, *v.Items[1].Kind)
	assert.Equal(t, []Affordance{AffordanceView, AffordanceEdit, AffordanceDelete}, v.Items[1].Affordances)

	assert.Contains(t, joined(v), "📁 Docs [1]")
	assert.Contains(t, joined(v), "🖼️ pic [2]")
}

func TestAddFlow(t *testing.T) {
	h := newHarness(t)

	v := h.handle(t, Add{})
	assert.Equal(t, []string{msgAddPrompt}, v.Messages)
	assert.Equal(t, session.AwaitingAddContent{}, h.state(t).Pending)

	v = h.handle(t, Text{Text: "   "})
	assert.Equal(t, []string{msgEmptyText}, v.Messages)
	assert.Equal(t, session.AwaitingAddContent{}, h.state(t).Pending)

	v = h.handle(t, Text{Text: "Docs"})
	assert.Equal(t, "✅ Node created! ID: 1", v.Messages[0])
	require.Len(t, v.Items, 1)
	assert.Equal(t, "Docs", v.Items[0].Label)
	assert.True(t, h.state(t).Idle())
}

func TestAddContent_DirectCreatesInCurrentFolder(t *testing.T) {
	h := newHarness(t)
	docs := h.create(t, nil, "Docs", nil)
	h.handle(t, Descend{ID: docs})

	v := h.handle(t, AddContent{Text: "Report"})
	assert.Contains(t, v.Messages[0], "Node created")

	kids, err := h.svc.ListChildren(context.Background(), h.key.OwnerID, &docs)
	require.NoError(t, err)
	require.Len(t, kids, 1)
	assert.Equal(t, "Report", kids[0].Label)
}

func TestEditFlow(t *testing.T) {
	h := newHarness(t)
	id := h.create(t, nil, "old", nil)

	v := h.handle(t, Edit{ID: id})
	assert.Equal(t, []string{fmt.Sprintf("✏️ Enter the new text for node %d:", id)}, v.Messages)
	assert.Equal(t, session.AwaitingEditContent{Target: id}, h.state(t).Pending)

	v = h.handle(t, EditContent{Text: ""})
	assert.Equal(t, []string{msgEmptyText}, v.Messages)
	assert.Equal(t, session.AwaitingEditContent{Target: id}, h.state(t).Pending)

	v = h.handle(t, EditContent{Text: " new "})
	assert.Equal(t, []string{fmt.Sprintf("✅ Node %d updated!", id)}, v.Messages)
	assert.True(t, h.state(t).Idle())

	n, err := h.svc.Get(context.Background(), h.key.OwnerID, id)
	require.NoError(t, err)
	assert.Equal(t, "new", n.Label)
}

func TestEdit_ForeignNodeIsDenied(t *testing.T) {
	h := newHarness(t)
	foreign, err := h.svc.Create(context.Background(), 999, nil, "theirs", nil)
	require.NoError(t, err)

	v := h.handle(t, Edit{ID: foreign})
	assert.Equal(t, []string{msgNotFound}, v.Messages)
	assert.True(t, h.state(t).Idle())
}

func TestEdit_TargetDeletedMeanwhile(t *testing.T) {
	h := newHarness(t)
	id := h.create(t, nil, "x", nil)

	h.handle(t, Edit{ID: id})
	h.expectTx()
	_, err := h.svc.Delete(context.Background(), h.key.OwnerID, id)
	require.NoError(t, err)

	v := h.handle(t, Text{Text: "y"})
	assert.Contains(t, v.Messages[0], "Could not update")
	assert.True(t, h.state(t).Idle())
}

func TestEditContent_WithoutPendingEdit(t *testing.T) {
	h := newHarness(t)

	v := h.handle(t, EditContent{Text: "x"})
	assert.Equal(t, []string{msgNoEdit}, v.Messages)
}

func TestSearchFlow(t *testing.T) {
	h := newHarness(t)
	docs := h.create(t, nil, "Docs", nil)
	h.create(t, &docs, "Report Draft", nil)

	v := h.handle(t, Search{})
	assert.Equal(t, []string{msgSearchPrompt}, v.Messages)

	v = h.handle(t, Text{Text: " d "})
	assert.Equal(t, []string{msgShortQuery}, v.Messages)
	assert.Equal(t, session.AwaitingSearchQuery{}, h.state(t).Pending)

	v = h.handle(t, Text{Text: "draft"})
	require.Len(t, v.Messages, 1)
	assert.Equal(t, "Found 1 results:\n• ID 2: Report Draft\n  Path: Docs → Report Draft", v.Messages[0])
	require.Len(t, v.Items, 1)
	assert.Equal(t, int64(2), v.Items[0].ID)
	assert.True(t, h.state(t).Idle())
}

func TestSearchQuery_ShortQueryWaitsForAnother(t *testing.T) {
	h := newHarness(t)

	v := h.handle(t, SearchQuery{Text: "é"})
	assert.Equal(t, []string{msgShortQuery}, v.Messages)
	assert.Equal(t, session.AwaitingSearchQuery{}, h.state(t).Pending)

	v = h.handle(t, SearchQuery{Text: "éé"})
	assert.Equal(t, []string{msgNothingFound}, v.Messages)
	assert.True(t, h.state(t).Idle())
}

func TestSearch_CorruptPathRendersPlaceholder(t *testing.T) {
	h := newHarness(t)
	a := h.create(t, nil, "loop a", nil)
	b := h.create(t, &a, "loop b", nil)
	h.repo.SetParent(a, &b)

	v := h.handle(t, SearchQuery{Text: "loop"})
	assert.Contains(t, joined(v), "Path: unknown path")
}

func TestDescend_IntoLeafIsRejected(t *testing.T) {
	h := newHarness(t)
	docs := h.create(t, nil, "Docs", nil)
	leaf := h.create(t, &docs, "photo.jpg", photo("f"))
	h.handle(t, Descend{ID: docs})

	v := h.handle(t, Descend{ID: leaf})
	assert.Equal(t, []string{msgNotAFolder}, v.Messages)
	require.NotNil(t, h.state(t).CurrentFolderID)
	assert.Equal(t, docs, *h.state(t).CurrentFolderID)
}

func TestDescend_ForeignOrMissing(t *testing.T) {
	h := newHarness(t)
	foreign, err := h.svc.Create(context.Background(), 999, nil, "theirs", nil)
	require.NoError(t, err)

	for _, id := range []int64{foreign, 12345} {
		v := h.handle(t, Descend{ID: id})
		assert.Equal(t, []string{msgFolderNotFound}, v.Messages)
		assert.Nil(t, h.state(t).CurrentFolderID)
	}
}

func TestDescendAndAscend(t *testing.T) {
	h := newHarness(t)
	docs := h.create(t, nil, "Docs", nil)
	report := h.create(t, &docs, "Report", nil)
	h.create(t, &report, "photo.jpg", photo("f"))

	h.handle(t, Descend{ID: docs})
	v := h.handle(t, Descend{ID: report})
	assert.True(t, strings.HasPrefix(v.Messages[0], "📂 Current folder:\nDocs → Report\nContents:"))
	assert.Equal(t, []Action{ActionAdd, ActionSearch, ActionRoot}, v.Actions)

	v = h.handle(t, AscendToRoot{})
	assert.True(t, strings.HasPrefix(v.Messages[0], "📂 Root folder"))
	assert.Nil(t, h.state(t).CurrentFolderID)
}

func TestNewCommandAbandonsPending(t *testing.T) {
	h := newHarness(t)
	docs := h.create(t, nil, "Docs", nil)

	h.handle(t, Add{})
	h.handle(t, Descend{ID: docs})
	assert.True(t, h.state(t).Idle())

	v := h.handle(t, Text{Text: "stray"})
	assert.Equal(t, []string{msgIdleHint}, v.Messages)

	h.handle(t, Search{})
	h.handle(t, Edit{ID: docs})
	assert.Equal(t, session.AwaitingEditContent{Target: docs}, h.state(t).Pending)

	h.handle(t, Add{})
	assert.Equal(t, session.AwaitingAddContent{}, h.state(t).Pending)
}

func TestDelete_RefreshesListingAndKeepsState(t *testing.T) {
	h := newHarness(t)
	docs := h.create(t, nil, "Docs", nil)
	a := h.create(t, &docs, "a", nil)
	h.handle(t, Descend{ID: docs})

	h.expectTx()
	v := h.handle(t, Delete{ID: a})
	assert.Equal(t, fmt.Sprintf("✅ Node %d deleted.", a), v.Messages[0])
	assert.Contains(t, v.Messages[1], "Folder is empty.")
	assert.Equal(t, docs, *h.state(t).CurrentFolderID)

	h.expectTx()
	v = h.handle(t, Delete{ID: a})
	assert.Equal(t, msgNotFound, v.Messages[0])
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestCurrentFolderDeletedElsewhere(t *testing.T) {
	h := newHarness(t)
	docs := h.create(t, nil, "Docs", nil)
	h.handle(t, Descend{ID: docs})

	h.expectTx()
	_, err := h.svc.Delete(context.Background(), h.key.OwnerID, docs)
	require.NoError(t, err)

	v := h.handle(t, ShowListing{})
	assert.Equal(t, "📂 Current folder:\nunknown path\nFolder is empty.", v.Messages[0])

	v = h.handle(t, AddContent{Text: "orphan?"})
	assert.Equal(t, msgFolderGone, v.Messages[0])
	assert.Nil(t, h.state(t).CurrentFolderID)
}

func TestViewAttachment(t *testing.T) {
	h := newHarness(t)
	folder := h.create(t, nil, "Docs", nil)
	leaf := h.create(t, nil, "holiday", photo("ref-1"))

	v := h.handle(t, ViewAttachment{ID: leaf})
	require.NotNil(t, v.Attachment)
	assert.Equal(t, AttachmentView{
		MediaReference: "ref-1",
		Kind:           models.KindPhoto,
		Caption:        "holiday",
		URL:            "https://media.example/ref-1",
	}, *v.Attachment)

	v = h.handle(t, ViewAttachment{ID: folder})
	assert.Equal(t, []string{msgNotAnAttachment}, v.Messages)

	v = h.handle(t, ViewAttachment{ID: 777})
	assert.Equal(t, []string{"❌ File not found."}, v.Messages)

	h.media.err = errors.New("s3 down")
	v = h.handle(t, ViewAttachment{ID: leaf})
	assert.Nil(t, v.Attachment)
	assert.Equal(t, []string{msgDeliveryFailed}, v.Messages)
}

func TestAddAttachment_Captions(t *testing.T) {
	h := newHarness(t)

	v := h.handle(t, AddAttachment{Kind: models.KindVideo, MediaReference: "v1"})
	assert.Equal(t, "🎥 Video saved! ID: 1", v.Messages[0])

	h.handle(t, AddAttachment{Kind: models.KindVoice, MediaReference: "v2", Caption: "ignored"})
	h.handle(t, AddAttachment{Kind: models.KindDocument, MediaReference: "d1", Caption: " tax.pdf "})

	kids, err := h.svc.ListChildren(context.Background(), h.key.OwnerID, nil)
	require.NoError(t, err)
	require.Len(t, kids, 3)
	assert.Equal(t, "Video", kids[0].Label)
	assert.Equal(t, "Voice message", kids[1].Label)
	assert.Equal(t, "tax.pdf", kids[2].Label)

	v = h.handle(t, AddAttachment{Kind: 0, MediaReference: "x"})
	assert.Contains(t, v.Messages[0], "Unsupported")
}

func TestRequestUpload(t *testing.T) {
	h := newHarness(t)

	v := h.handle(t, RequestUpload{Kind: models.KindAudio})
	require.NotNil(t, v.Upload)
	assert.Equal(t, "users/2024/1/1/abc", v.Upload.MediaReference)
	assert.Equal(t, "https://media.example/put/abc", v.Upload.URL)
	assert.Equal(t, models.KindAudio, v.Upload.Kind)

	noMedia := NewNavigator(h.svc, h.sessions, nil, 0, nil)
	v, err := noMedia.Handle(context.Background(), h.key, RequestUpload{Kind: models.KindAudio})
	require.NoError(t, err)
	assert.Nil(t, v.Upload)
	assert.Equal(t, []string{msgUploadDisabled}, v.Messages)
}

func TestStartAndMenu(t *testing.T) {
	h := newHarness(t)
	docs := h.create(t, nil, "Docs", nil)
	h.handle(t, Descend{ID: docs})
	h.handle(t, Add{})

	v := h.handle(t, Menu{})
	assert.Equal(t, []string{"Quick actions:\n📍 Current folder: Docs"}, v.Messages)
	assert.Equal(t, []Action{ActionAdd, ActionSearch, ActionList, ActionRoot}, v.Actions)
	assert.True(t, h.state(t).Idle())

	v = h.handle(t, Start{})
	assert.Equal(t, msgWelcome, v.Messages[0])
	assert.Nil(t, h.state(t).CurrentFolderID)

	v = h.handle(t, Menu{})
	assert.Equal(t, []string{"Quick actions:\n📍 You are in the root folder."}, v.Messages)
}

func TestStoreFailure_StateUntouched(t *testing.T) {
	h := newHarness(t)
	docs := h.create(t, nil, "Docs", nil)

	h.handle(t, Add{})
	failing := NewNavigator(failingStore{NodeStore: h.svc, err: errors.New("db gone")}, h.sessions, nil, 0, nil)

	v, err := failing.Handle(context.Background(), h.key, Descend{ID: docs})
	require.NoError(t, err)
	assert.Equal(t, []string{msgStoreFailure}, v.Messages)

	st := h.state(t)
	assert.Nil(t, st.CurrentFolderID)
	assert.Equal(t, session.AwaitingAddContent{}, st.Pending)
}

func TestCommittedWrite_SurvivesListingFailure(t *testing.T) {
	h := newHarness(t)
	failing := NewNavigator(failingStore{NodeStore: h.svc, err: errors.New("db gone")}, h.sessions, nil, 0, nil)
	ctx := context.Background()

	h.handle(t, Add{})
	v, err := failing.Handle(ctx, h.key, Text{Text: "groceries"})
	require.NoError(t, err)
	assert.Equal(t, []string{"✅ Node created! ID: 1", msgListingLater}, v.Messages)
	assert.True(t, h.state(t).Idle())

	v, err = failing.Handle(ctx, h.key, Text{Text: "groceries"})
	require.NoError(t, err)
	assert.Equal(t, []string{msgIdleHint}, v.Messages)

	roots, err := h.svc.ListChildren(ctx, h.key.OwnerID, nil)
	require.NoError(t, err)
	assert.Len(t, roots, 1)

	h.expectTx()
	v, err = failing.Handle(ctx, h.key, Delete{ID: roots[0].ID})
	require.NoError(t, err)
	assert.Equal(t, []string{fmt.Sprintf("✅ Node %d deleted.", roots[0].ID), msgListingLater}, v.Messages)
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestListing_ChunkedAtItemBoundaries(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 40; i++ {
		h.create(t, nil, strings.Repeat("n", 30), nil)
	}
	nav := NewNavigator(h.svc, h.sessions, nil, 200, nil)

	v, err := nav.Handle(context.Background(), h.key, ShowListing{})
	require.NoError(t, err)
	require.Greater(t, len(v.Messages), 1)
	for _, m := range v.Messages {
		assert.LessOrEqual(t, len(m), 200)
		for _, line := range strings.Split(m, "\n") {
			assert.True(t, line == "📂 Root folder" || line == "Contents:" || strings.HasPrefix(line, "📁 "), line)
		}
	}
	assert.Len(t, v.Items, 40)
}

func TestHandle_NilIntent(t *testing.T) {
	h := newHarness(t)
	_, err := h.nav.Handle(context.Background(), h.key, nil)
	assert.Error(t, err)
}

func TestScenario_ThroughNavigator(t *testing.T) {
	h := newHarness(t)

	h.handle(t, AddContent{Text: "Docs"})
	h.handle(t, Descend{ID: 1})
	h.handle(t, Add{})
	h.handle(t, Text{Text: "Report"})
	h.handle(t, Descend{ID: 2})
	v := h.handle(t, AddAttachment{Kind: models.KindPhoto, MediaReference: "file-3", Caption: "photo.jpg"})
	assert.Equal(t, "🖼️ Photo saved! ID: 3", v.Messages[0])
	assert.Equal(t, "📂 Current folder:\nDocs → Report\nContents:\n🖼️ photo.jpg [3]", v.Messages[1])

	v = h.handle(t, Descend{ID: 3})
	assert.Equal(t, []string{msgNotAFolder}, v.Messages)
	assert.Equal(t, int64(2), *h.state(t).CurrentFolderID)

	h.handle(t, AscendToRoot{})
	h.handle(t, Descend{ID: 1})
	h.expectTx()
	v = h.handle(t, Delete{ID: 2})
	assert.Equal(t, "✅ Node 2 deleted.", v.Messages[0])
	require.Len(t, v.Items, 1)
	assert.Equal(t, int64(3), v.Items[0].ID)
}
