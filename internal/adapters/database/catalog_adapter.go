package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/repositories"
	apperrors "github.com/portoseguro/backend/pkg/errors"
	"github.com/portoseguro/backend/pkg/utils"
)

// CatalogAdapter persists the item registry.
type CatalogAdapter struct {
	client SQLClient
	db     *goqu.Database
	rows   *sqlx.DB
	now    func() time.Time
}

// NewCatalogAdapter creates a new catalog adapter
func NewCatalogAdapter(client SQLClient) repositories.CatalogRepository {
	return &CatalogAdapter{
		client: client,
		db:     newGoqu(client),
		rows:   newSqlx(client),
		now:    time.Now,
	}
}

type catalogRow struct {
	ID        string `db:"id"`
	Kind      string `db:"kind"`
	Main      string `db:"main"`
	Minor     string `db:"minor"`
	Trackers  string `db:"trackers"`
	UpdatedAt int64  `db:"updated_at"`
}

// Load builds a registry from every stored item.
func (a *CatalogAdapter) Load(ctx context.Context) (*entities.Registry, error) {
	query, args, err := a.db.From(catalogTable).
		Select("id", "kind", "main", "minor", "trackers", "updated_at").
		Order(goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build catalog query", err)
	}

	var rows []catalogRow
	if err := a.rows.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to load catalog", err)
	}

	items := make([]entities.Item, 0, len(rows))
	for _, row := range rows {
		item := entities.Item{ID: row.ID, Kind: entities.ItemKind(row.Kind)}
		if item.Kind == entities.ItemKindComposite {
			def := &entities.CompositeDef{}
			if err := decodeList(row.Main, &def.Main); err != nil {
				return nil, apperrors.NewInternalError(fmt.Sprintf("composite %s has malformed main list", row.ID), err)
			}
			if err := decodeList(row.Minor, &def.Minor); err != nil {
				return nil, apperrors.NewInternalError(fmt.Sprintf("composite %s has malformed minor list", row.ID), err)
			}
			if err := decodeList(row.Trackers, &def.Trackers); err != nil {
				return nil, apperrors.NewInternalError(fmt.Sprintf("composite %s has malformed tracker list", row.ID), err)
			}
			item.Composite = def
		}
		items = append(items, item)
	}

	version, err := a.version(ctx)
	if err != nil {
		return nil, err
	}

	registry, err := entities.NewRegistry(version, items)
	if err != nil {
		return nil, apperrors.NewInternalError("stored catalog is inconsistent", err)
	}
	return registry, nil
}

// Upsert inserts or replaces an item and bumps the catalog version.
func (a *CatalogAdapter) Upsert(ctx context.Context, item entities.Item) error {
	id := utils.CanonicalItemID(item.ID)
	if id == "" {
		return apperrors.NewValidationError("item id is required")
	}
	if !item.Kind.IsValid() {
		return apperrors.NewValidationErrorf("invalid item kind %q", item.Kind)
	}

	var def entities.CompositeDef
	if item.Composite != nil {
		def = *item.Composite
	}
	main, _ := json.Marshal(nonNil(def.Main))
	minor, _ := json.Marshal(nonNil(def.Minor))
	trackers, _ := json.Marshal(nonNil(def.Trackers))

	return a.withTx(ctx, func(tx *sql.Tx, version int64) error {
		values := goqu.Record{
			"kind":       string(item.Kind),
			"main":       string(main),
			"minor":      string(minor),
			"trackers":   string(trackers),
			"updated_at": version,
		}

		update, _, err := a.db.Update(catalogTable).Set(values).Where(goqu.C("id").Eq(id)).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build catalog update query", err)
		}
		res, err := tx.ExecContext(ctx, update)
		if err != nil {
			return apperrors.NewInternalError("failed to update catalog item", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			return nil
		}

		values["id"] = id
		insert, _, err := a.db.Insert(catalogTable).Rows(values).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build catalog insert query", err)
		}
		if _, err := tx.ExecContext(ctx, insert); err != nil {
			return apperrors.NewInternalError("failed to insert catalog item", err)
		}
		return nil
	})
}

// Delete removes an item. Deleting an unknown item is a not-found error.
func (a *CatalogAdapter) Delete(ctx context.Context, id string) error {
	id = utils.CanonicalItemID(id)
	return a.withTx(ctx, func(tx *sql.Tx, _ int64) error {
		query, _, err := a.db.Delete(catalogTable).Where(goqu.C("id").Eq(id)).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build catalog delete query", err)
		}
		res, err := tx.ExecContext(ctx, query)
		if err != nil {
			return apperrors.NewInternalError("failed to delete catalog item", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("item %s not found", id))
		}
		return nil
	})
}

// withTx runs fn inside a transaction that also bumps the catalog version.
// The version is the write time in milliseconds, forced to increase.
func (a *CatalogAdapter) withTx(ctx context.Context, fn func(tx *sql.Tx, version int64) error) error {
	tx, err := a.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	current, found, err := a.readVersion(ctx, tx)
	if err != nil {
		return err
	}
	next := a.now().UnixMilli()
	if next <= current {
		next = current + 1
	}

	if err := fn(tx, next); err != nil {
		return err
	}

	var query string
	if found {
		query, _, err = a.db.Update(catalogMetaTable).
			Set(goqu.Record{"meta_value": next}).
			Where(goqu.C("meta_key").Eq(catalogVersionKey)).
			ToSQL()
	} else {
		query, _, err = a.db.Insert(catalogMetaTable).
			Rows(goqu.Record{"meta_key": catalogVersionKey, "meta_value": next}).
			ToSQL()
	}
	if err != nil {
		return apperrors.NewInternalError("failed to build catalog version query", err)
	}
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return apperrors.NewInternalError("failed to bump catalog version", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit catalog change", err)
	}
	return nil
}

func (a *CatalogAdapter) version(ctx context.Context) (int64, error) {
	v, _, err := a.readVersion(ctx, a.client.DB())
	return v, err
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (a *CatalogAdapter) readVersion(ctx context.Context, q queryRower) (int64, bool, error) {
	query, _, err := a.db.From(catalogMetaTable).
		Select("meta_value").
		Where(goqu.C("meta_key").Eq(catalogVersionKey)).
		ToSQL()
	if err != nil {
		return 0, false, apperrors.NewInternalError("failed to build catalog version query", err)
	}
	var v int64
	err = q.QueryRowContext(ctx, query).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperrors.NewInternalError("failed to read catalog version", err)
	}
	return v, true, nil
}

func decodeList(raw string, out *[]string) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
