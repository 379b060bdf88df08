package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/repositories"
	apperrors "github.com/portoseguro/backend/pkg/errors"
)

// RecordAdapter stores diary rows as JSON field maps.
type RecordAdapter struct {
	client SQLClient
	db     *goqu.Database
	rows   *sqlx.DB
}

// NewRecordAdapter creates a new record adapter
func NewRecordAdapter(client SQLClient) repositories.RecordRepository {
	return &RecordAdapter{
		client: client,
		db:     newGoqu(client),
		rows:   newSqlx(client),
	}
}

type recordRow struct {
	ID        string `db:"id"`
	Seq       int64  `db:"seq"`
	Fields    string `db:"fields"`
	CreatedAt int64  `db:"created_at"`
}

// List returns every record ordered by seq.
func (a *RecordAdapter) List(ctx context.Context) ([]*entities.RawRecord, error) {
	query, args, err := a.db.From(recordsTable).
		Select("id", "seq", "fields", "created_at").
		Order(goqu.C("seq").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build record list query", err)
	}

	var rows []recordRow
	if err := a.rows.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list records", err)
	}

	records := make([]*entities.RawRecord, 0, len(rows))
	for _, row := range rows {
		fields, err := decodeFields(row.Fields)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Sprintf("record %s has malformed fields", row.ID), err)
		}
		records = append(records, &entities.RawRecord{
			ID:        row.ID,
			Seq:       row.Seq,
			Fields:    fields,
			CreatedAt: time.UnixMilli(row.CreatedAt).UTC(),
		})
	}
	return records, nil
}

// Append inserts a record with the next sequence number.
func (a *RecordAdapter) Append(ctx context.Context, record *entities.RawRecord) error {
	if record == nil {
		return apperrors.NewInternalError("record is nil", fmt.Errorf("record is nil"))
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	fields, err := json.Marshal(record.Fields)
	if err != nil {
		return apperrors.NewInternalError("failed to encode record fields", err)
	}

	tx, err := a.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	seqQuery, _, err := a.db.From(recordsTable).
		Select(goqu.COALESCE(goqu.MAX("seq"), 0)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build sequence query", err)
	}
	var last int64
	if err := tx.QueryRowContext(ctx, seqQuery).Scan(&last); err != nil {
		return apperrors.NewInternalError("failed to read last sequence", err)
	}

	insert, args, err := a.db.Insert(recordsTable).Rows(goqu.Record{
		"id":         record.ID,
		"seq":        last + 1,
		"fields":     string(fields),
		"created_at": record.CreatedAt.UnixMilli(),
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build record insert query", err)
	}
	if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
		return apperrors.NewInternalError("failed to insert record", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit record", err)
	}

	record.Seq = last + 1
	return nil
}

// Count returns the number of stored records.
func (a *RecordAdapter) Count(ctx context.Context) (int, error) {
	query, _, err := a.db.From(recordsTable).Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}
	var n int
	if err := a.client.DB().QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, apperrors.NewInternalError("failed to count records", err)
	}
	return n, nil
}

// decodeFields keeps numbers as json.Number so integral cells stay exact.
func decodeFields(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	fields := make(map[string]any)
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}
