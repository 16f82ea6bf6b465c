// Package nodes provides the PostgreSQL-backed Node Store.
package nodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/p1nk23/TgBot/internal/common"
	"github.com/p1nk23/TgBot/internal/dbx"
	"github.com/p1nk23/TgBot/internal/server/models"
)

// foreignKeyViolation is the SQLSTATE raised when parent_id points nowhere.
const foreignKeyViolation = "23503"

const nodeColumns = `id, parent_id, label, media_reference, media_kind`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(ownerID int64, row rowScanner) (models.Node, error) {
	var (
		n         models.Node
		parentID  sql.NullInt64
		reference sql.NullString
		kind      sql.NullString
	)
	if err := row.Scan(&n.ID, &parentID, &n.Label, &reference, &kind); err != nil {
		return models.Node{}, err
	}
	n.OwnerID = ownerID
	if parentID.Valid {
		p := parentID.Int64
		n.ParentID = &p
	}
	if kind.Valid {
		k, err := models.ParseAttachmentKind(kind.String)
		if err != nil {
			return models.Node{}, err
		}
		n.Attachment = &models.Attachment{MediaReference: reference.String, Kind: k}
	}
	return n, nil
}

func (r *PostgresRepository) queryNodes(ctx context.Context, ownerID int64, query string, args ...any) ([]models.Node, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select nodes: %w", err)
	}
	defer rows.Close()

	result := make([]models.Node, 0)
	for rows.Next() {
		n, err := scanNode(ownerID, rows)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListChildren returns direct children ordered by id. Root and non-root
// levels use separate statements so both hit idx_nodes_owner_parent.
func (r *PostgresRepository) ListChildren(ctx context.Context, ownerID int64, parentID *int64) ([]models.Node, error) {
	if parentID == nil {
		query := `SELECT ` + nodeColumns + ` FROM nodes
			WHERE owner_id = $1 AND parent_id IS NULL
			ORDER BY id`
		return r.queryNodes(ctx, ownerID, query, ownerID)
	}
	query := `SELECT ` + nodeColumns + ` FROM nodes
		WHERE owner_id = $1 AND parent_id = $2
		ORDER BY id`
	return r.queryNodes(ctx, ownerID, query, ownerID, *parentID)
}

// Create inserts a node. The parent must exist and belong to the same owner;
// the INSERT ... SELECT inserts nothing otherwise.
func (r *PostgresRepository) Create(ctx context.Context, ownerID int64, parentID *int64, label string, att *models.Attachment) (int64, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0, fmt.Errorf("empty label: %w", common.ErrValidation)
	}

	var reference, kind sql.NullString
	if att != nil {
		if !att.Kind.Valid() || strings.TrimSpace(att.MediaReference) == "" {
			return 0, fmt.Errorf("bad attachment: %w", common.ErrValidation)
		}
		reference = sql.NullString{String: att.MediaReference, Valid: true}
		kind = sql.NullString{String: att.Kind.String(), Valid: true}
	}

	query := `
		INSERT INTO nodes (owner_id, parent_id, label, media_reference, media_kind)
		SELECT $1::bigint, $2::bigint, $3::text, $4::text, $5::text
		WHERE $2::bigint IS NULL
		   OR EXISTS (SELECT 1 FROM nodes WHERE id = $2::bigint AND owner_id = $1::bigint)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, ownerID, parentID, label, reference, kind).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFoundOrNotOwned
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return 0, common.ErrNotFoundOrNotOwned
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

// Delete removes the node if it is owned by ownerID. Children must have been
// moved away first, otherwise the foreign key rejects the statement.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) (bool, error) {
	query := `DELETE FROM nodes WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete node: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) UpdateLabel(ctx context.Context, ownerID, id int64, label string) (bool, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return false, nil
	}

	query := `UPDATE nodes SET label = $1 WHERE id = $2 AND owner_id = $3`
	res, err := r.db.ExecContext(ctx, query, label, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to update node: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) ExistsAndOwned(ctx context.Context, ownerID, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM nodes WHERE id = $1 AND owner_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) GetAttachmentKind(ctx context.Context, ownerID, id int64) (*models.AttachmentKind, error) {
	query := `SELECT media_kind FROM nodes WHERE id = $1 AND owner_id = $2`
	var kind sql.NullString
	if err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(&kind); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFoundOrNotOwned
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !kind.Valid {
		return nil, nil
	}
	k, err := models.ParseAttachmentKind(kind.String)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID, id int64) (*models.Node, error) {
	return r.get(ctx, ownerID, id, `SELECT `+nodeColumns+` FROM nodes WHERE id = $1 AND owner_id = $2`)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, ownerID, id int64) (*models.Node, error) {
	return r.get(ctx, ownerID, id, `SELECT `+nodeColumns+` FROM nodes WHERE id = $1 AND owner_id = $2 FOR UPDATE`)
}

func (r *PostgresRepository) get(ctx context.Context, ownerID, id int64, query string) (*models.Node, error) {
	n, err := scanNode(ownerID, r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFoundOrNotOwned
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &n, nil
}

func (r *PostgresRepository) Parent(ctx context.Context, ownerID, id int64) (string, *int64, bool, error) {
	query := `SELECT label, parent_id FROM nodes WHERE id = $1 AND owner_id = $2`
	var (
		label    string
		parentID sql.NullInt64
	)
	if err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(&label, &parentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, false, nil
		}
		return "", nil, false, fmt.Errorf("db error: %w", err)
	}
	if !parentID.Valid {
		return label, nil, true, nil
	}
	p := parentID.Int64
	return label, &p, true, nil
}

func (r *PostgresRepository) ReparentChildren(ctx context.Context, ownerID, from int64, to *int64) (int64, error) {
	query := `UPDATE nodes SET parent_id = $1 WHERE owner_id = $2 AND parent_id = $3`
	res, err := r.db.ExecContext(ctx, query, to, ownerID, from)
	if err != nil {
		return 0, fmt.Errorf("failed to reparent children: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// Search matches query as a literal substring: LIKE wildcards in the query
// are escaped.
func (r *PostgresRepository) Search(ctx context.Context, ownerID int64, query string) ([]models.Node, error) {
	q := `SELECT ` + nodeColumns + ` FROM nodes
		WHERE owner_id = $1 AND label ILIKE '%' || $2 || '%' ESCAPE '\'
		ORDER BY id`
	return r.queryNodes(ctx, ownerID, q, ownerID, EscapeLike(query))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE metacharacters of s using backslash.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
