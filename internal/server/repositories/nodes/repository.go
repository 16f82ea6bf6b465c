package nodes

import (
	"context"

	"github.com/p1nk23/TgBot/internal/server/models"
)

// Repository is the Node Store. Every method is scoped by ownerID in SQL, so
// a caller cannot observe or mutate another owner's rows.
type Repository interface {
	// ListChildren returns the direct children of parentID (nil = root level)
	// ordered by id. A missing folder yields an empty slice.
	ListChildren(ctx context.Context, ownerID int64, parentID *int64) ([]models.Node, error)

	// Create inserts a node and returns its id. Labels are trimmed; an empty
	// label yields common.ErrValidation and a foreign or missing parent yields
	// common.ErrNotFoundOrNotOwned.
	Create(ctx context.Context, ownerID int64, parentID *int64, label string, att *models.Attachment) (int64, error)

	// Delete removes exactly one row and reports whether it existed.
	Delete(ctx context.Context, ownerID, id int64) (bool, error)

	// UpdateLabel sets a new label. A label that trims to empty is rejected
	// with false and no query is issued.
	UpdateLabel(ctx context.Context, ownerID, id int64, label string) (bool, error)

	ExistsAndOwned(ctx context.Context, ownerID, id int64) (bool, error)

	// GetAttachmentKind returns nil for folders.
	GetAttachmentKind(ctx context.Context, ownerID, id int64) (*models.AttachmentKind, error)

	Get(ctx context.Context, ownerID, id int64) (*models.Node, error)

	// GetForUpdate is Get that also row-locks the node until the surrounding
	// transaction ends. Inserts that reference the node as parent wait on it.
	GetForUpdate(ctx context.Context, ownerID, id int64) (*models.Node, error)

	// Parent returns a single hop of the ancestor chain.
	Parent(ctx context.Context, ownerID, id int64) (label string, parentID *int64, found bool, err error)

	// ReparentChildren moves the direct children of from under to and returns
	// how many rows moved.
	ReparentChildren(ctx context.Context, ownerID, from int64, to *int64) (int64, error)

	// Search returns nodes whose label contains query, case-insensitively,
	// ordered by id.
	Search(ctx context.Context, ownerID int64, query string) ([]models.Node, error)
}
