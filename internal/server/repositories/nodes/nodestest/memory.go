// Package nodestest provides an in-memory nodes.Repository for tests of the
// layers above the store. It is not wired into any binary.
package nodestest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/p1nk23/TgBot/internal/common"
	"github.com/p1nk23/TgBot/internal/server/models"
	"github.com/p1nk23/TgBot/internal/server/repositories/nodes"
)

var _ nodes.Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-process nodes.Repository. It honours the same
// owner scoping and ordering rules as the SQL store; ids come from a
// monotonically increasing counter and are never reused.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]models.Node

	// Err, when set, is returned by every call to simulate an unreachable store.
	Err error
}

// NewMemoryRepository returns an empty in-memory store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[int64]models.Node)}
}

func (r *MemoryRepository) sorted(match func(models.Node) bool) []models.Node {
	out := make([]models.Node, 0)
	for _, n := range r.rows {
		if match(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *MemoryRepository) ListChildren(_ context.Context, ownerID int64, parentID *int64) ([]models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return r.sorted(func(n models.Node) bool {
		return n.OwnerID == ownerID && sameParent(n.ParentID, parentID)
	}), nil
}

func (r *MemoryRepository) Create(_ context.Context, ownerID int64, parentID *int64, label string, att *models.Attachment) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}

	label = strings.TrimSpace(label)
	if label == "" {
		return 0, fmt.Errorf("empty label: %w", common.ErrValidation)
	}
	if att != nil && (!att.Kind.Valid() || strings.TrimSpace(att.MediaReference) == "") {
		return 0, fmt.Errorf("bad attachment: %w", common.ErrValidation)
	}
	if parentID != nil {
		p, ok := r.rows[*parentID]
		if !ok || p.OwnerID != ownerID {
			return 0, common.ErrNotFoundOrNotOwned
		}
	}

	r.nextID++
	n := models.Node{ID: r.nextID, OwnerID: ownerID, Label: label}
	if parentID != nil {
		p := *parentID
		n.ParentID = &p
	}
	if att != nil {
		a := *att
		n.Attachment = &a
	}
	r.rows[n.ID] = n
	return n.ID, nil
}

func (r *MemoryRepository) Delete(_ context.Context, ownerID, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	n, ok := r.rows[id]
	if !ok || n.OwnerID != ownerID {
		return false, nil
	}
	delete(r.rows, id)
	return true, nil
}

func (r *MemoryRepository) UpdateLabel(_ context.Context, ownerID, id int64, label string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return false, nil
	}
	n, ok := r.rows[id]
	if !ok || n.OwnerID != ownerID {
		return false, nil
	}
	n.Label = label
	r.rows[id] = n
	return true, nil
}

func (r *MemoryRepository) ExistsAndOwned(_ context.Context, ownerID, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	n, ok := r.rows[id]
	return ok && n.OwnerID == ownerID, nil
}

func (r *MemoryRepository) GetAttachmentKind(_ context.Context, ownerID, id int64) (*models.AttachmentKind, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	n, ok := r.rows[id]
	if !ok || n.OwnerID != ownerID {
		return nil, common.ErrNotFoundOrNotOwned
	}
	if n.Attachment == nil {
		return nil, nil
	}
	k := n.Attachment.Kind
	return &k, nil
}

func (r *MemoryRepository) Get(_ context.Context, ownerID, id int64) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	n, ok := r.rows[id]
	if !ok || n.OwnerID != ownerID {
		return nil, common.ErrNotFoundOrNotOwned
	}
	return &n, nil
}

// GetForUpdate is Get; the repository mutex already serialises writers.
func (r *MemoryRepository) GetForUpdate(ctx context.Context, ownerID, id int64) (*models.Node, error) {
	return r.Get(ctx, ownerID, id)
}

func (r *MemoryRepository) Parent(_ context.Context, ownerID, id int64) (string, *int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", nil, false, r.Err
	}
	n, ok := r.rows[id]
	if !ok || n.OwnerID != ownerID {
		return "", nil, false, nil
	}
	return n.Label, n.ParentID, true, nil
}

func (r *MemoryRepository) ReparentChildren(_ context.Context, ownerID, from int64, to *int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var moved int64
	for id, n := range r.rows {
		if n.OwnerID != ownerID || n.ParentID == nil || *n.ParentID != from {
			continue
		}
		if to == nil {
			n.ParentID = nil
		} else {
			p := *to
			n.ParentID = &p
		}
		r.rows[id] = n
		moved++
	}
	return moved, nil
}

func (r *MemoryRepository) Search(_ context.Context, ownerID int64, query string) ([]models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	q := strings.ToLower(query)
	return r.sorted(func(n models.Node) bool {
		return n.OwnerID == ownerID && strings.Contains(strings.ToLower(n.Label), q)
	}), nil
}

// SetParent rewrites a parent link directly. It exists so tests can build
// the corrupt shapes the SQL schema would normally refuse.
func (r *MemoryRepository) SetParent(id int64, parentID *int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.rows[id]
	n.ParentID = parentID
	r.rows[id] = n
}
