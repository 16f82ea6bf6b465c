package repomanager

import (
	"context"
	"database/sql"

	"github.com/p1nk23/TgBot/internal/dbx"
	"github.com/p1nk23/TgBot/internal/server/repositories/nodes"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, and owns the schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Nodes(db dbx.DBTX) nodes.Repository
}
