package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/lists"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/loginhistory"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	LoginHistory(db dbx.DBTX) loginhistory.Repository
	Lists(db dbx.DBTX) lists.Repository
	Tasks(db dbx.DBTX) tasks.Repository
}
