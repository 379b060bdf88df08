package database

import (
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
)

// SQLClient is implemented by the postgres and sqlite clients.
type SQLClient interface {
	DB() *sql.DB
	// Dialect is the goqu dialect name ("postgres" or "sqlite3").
	Dialect() string
}

const (
	recordsTable      = "diary_records"
	catalogTable      = "catalog_items"
	catalogMetaTable  = "catalog_meta"
	catalogVersionKey = "version"
)

func newGoqu(client SQLClient) *goqu.Database {
	return goqu.New(client.Dialect(), client.DB())
}

func newSqlx(client SQLClient) *sqlx.DB {
	driver := "postgres"
	if client.Dialect() != "postgres" {
		driver = "sqlite3"
	}
	return sqlx.NewDb(client.DB(), driver)
}
