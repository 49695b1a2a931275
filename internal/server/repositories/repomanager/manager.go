package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophview/internal/dbx"
	"github.com/dmitrijs2005/gophview/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophview/internal/server/repositories/resources"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// them either directly on the pool or inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Resources(db dbx.DBTX) resources.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
