// Package services contains server-side business logic. This file implements
// NodeService: the node store operations as seen by the navigator, plus the
// path resolver, search with breadcrumbs and the delete policy.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/p1nk23/TgBot/internal/common"
	"github.com/p1nk23/TgBot/internal/dbx"
	"github.com/p1nk23/TgBot/internal/logging"
	"github.com/p1nk23/TgBot/internal/server/models"
	"github.com/p1nk23/TgBot/internal/server/repositories/repomanager"
)

// MaxPathDepth bounds the ancestor walk of ResolvePath.
const MaxPathDepth = 1000

// SearchHit is a search match together with its breadcrumb. PathErr is set
// (and Path left empty) when the breadcrumb could not be resolved.
type SearchHit struct {
	models.Node
	Path    []string
	PathErr error
}

// NodeService is the single entry point the navigator uses to reach the
// node store. Every database failure leaves it wrapped in
// common.ErrStoreUnavailable; validation and ownership errors pass through.
type NodeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

// NewNodeService constructs a NodeService.
func NewNodeService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *NodeService {
	if log == nil {
		log = logging.Nop{}
	}
	return &NodeService{db: db, repomanager: m, log: log.With("module", "nodes")}
}

// classify keeps domain errors as they are and files everything else under
// ErrStoreUnavailable.
func (s *NodeService) classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrValidation) ||
		errors.Is(err, common.ErrNotFoundOrNotOwned) ||
		errors.Is(err, common.ErrCorruptPath) ||
		errors.Is(err, common.ErrStoreUnavailable) {
		return err
	}
	s.log.Error(ctx, "store failure", "op", op, "error", err)
	return fmt.Errorf("%s: %w: %w", op, common.ErrStoreUnavailable, err)
}

func (s *NodeService) ListChildren(ctx context.Context, ownerID int64, parentID *int64) ([]models.Node, error) {
	items, err := s.repomanager.Nodes(s.db).ListChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, s.classify(ctx, "list children", err)
	}
	return items, nil
}

func (s *NodeService) Create(ctx context.Context, ownerID int64, parentID *int64, label string, att *models.Attachment) (int64, error) {
	id, err := s.repomanager.Nodes(s.db).Create(ctx, ownerID, parentID, label, att)
	if err != nil {
		return 0, s.classify(ctx, "create node", err)
	}
	return id, nil
}

// Delete removes a single node. Its children are first moved up to the
// deleted node's parent, in the same transaction, so no row is ever left
// pointing at a missing parent. The node is locked before the move, so a
// child created concurrently either lands before the move or fails its
// parent check after the delete.
func (s *NodeService) Delete(ctx context.Context, ownerID, id int64) (bool, error) {
	var deleted bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Nodes(tx)

		n, err := repo.GetForUpdate(ctx, ownerID, id)
		if err != nil {
			if errors.Is(err, common.ErrNotFoundOrNotOwned) {
				return nil
			}
			return err
		}
		if _, err := repo.ReparentChildren(ctx, ownerID, id, n.ParentID); err != nil {
			return err
		}
		deleted, err = repo.Delete(ctx, ownerID, id)
		return err
	})
	if err != nil {
		return false, s.classify(ctx, "delete node", err)
	}
	return deleted, nil
}

func (s *NodeService) UpdateLabel(ctx context.Context, ownerID, id int64, label string) (bool, error) {
	ok, err := s.repomanager.Nodes(s.db).UpdateLabel(ctx, ownerID, id, label)
	if err != nil {
		return false, s.classify(ctx, "update label", err)
	}
	return ok, nil
}

func (s *NodeService) ExistsAndOwned(ctx context.Context, ownerID, id int64) (bool, error) {
	ok, err := s.repomanager.Nodes(s.db).ExistsAndOwned(ctx, ownerID, id)
	if err != nil {
		return false, s.classify(ctx, "exists", err)
	}
	return ok, nil
}

func (s *NodeService) GetAttachmentKind(ctx context.Context, ownerID, id int64) (*models.AttachmentKind, error) {
	kind, err := s.repomanager.Nodes(s.db).GetAttachmentKind(ctx, ownerID, id)
	if err != nil {
		return nil, s.classify(ctx, "attachment kind", err)
	}
	return kind, nil
}

func (s *NodeService) Get(ctx context.Context, ownerID, id int64) (*models.Node, error) {
	n, err := s.repomanager.Nodes(s.db).Get(ctx, ownerID, id)
	if err != nil {
		return nil, s.classify(ctx, "get node", err)
	}
	return n, nil
}

// ResolvePath returns the labels from the root down to id. An unknown id
// yields an empty path. A walk longer than MaxPathDepth, or one that visits
// a node twice, fails with common.ErrCorruptPath.
func (s *NodeService) ResolvePath(ctx context.Context, ownerID, id int64) ([]string, error) {
	return s.resolvePath(ctx, s.repomanager.Nodes(s.db), ownerID, id)
}

type parentFinder interface {
	Parent(ctx context.Context, ownerID, id int64) (string, *int64, bool, error)
}

func (s *NodeService) resolvePath(ctx context.Context, repo parentFinder, ownerID, id int64) ([]string, error) {
	labels := make([]string, 0)
	seen := make(map[int64]struct{})
	cur := &id

	for cur != nil {
		if len(labels) >= MaxPathDepth {
			return nil, fmt.Errorf("node %d: more than %d ancestors: %w", id, MaxPathDepth, common.ErrCorruptPath)
		}
		if _, dup := seen[*cur]; dup {
			return nil, fmt.Errorf("node %d: cycle at %d: %w", id, *cur, common.ErrCorruptPath)
		}
		seen[*cur] = struct{}{}

		label, parent, found, err := repo.Parent(ctx, ownerID, *cur)
		if err != nil {
			return nil, s.classify(ctx, "resolve path", err)
		}
		if !found {
			// legacy orphan: keep what was collected
			break
		}
		labels = append(labels, label)
		cur = parent
	}

	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return labels, nil
}

// Search returns the owner's nodes whose label contains query, ordered by
// id, each with its breadcrumb. A corrupt breadcrumb is reported on the hit
// and does not fail the search.
func (s *NodeService) Search(ctx context.Context, ownerID int64, query string) ([]SearchHit, error) {
	repo := s.repomanager.Nodes(s.db)

	found, err := repo.Search(ctx, ownerID, query)
	if err != nil {
		return nil, s.classify(ctx, "search", err)
	}

	hits := make([]SearchHit, 0, len(found))
	for _, n := range found {
		hit := SearchHit{Node: n}
		path, err := s.resolvePath(ctx, repo, ownerID, n.ID)
		switch {
		case errors.Is(err, common.ErrCorruptPath):
			s.log.Warn(ctx, "corrupt path", "owner", ownerID, "node", n.ID)
			hit.PathErr = err
		case err != nil:
			return nil, err
		default:
			hit.Path = path
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
