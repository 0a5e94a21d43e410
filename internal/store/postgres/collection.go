package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cvenhancer/core/internal/domain"
)

// Collection implements the generic document-store operations spec'd for
// C2 (findById, findOne, find, updateOne, updateMany, atomicFindAndModify,
// countDocuments, aggregate) over a single table shaped
// (id text primary key, doc jsonb, created_at timestamptz, updated_at timestamptz).
// Per-aggregate repositories wrap it with typed marshal/unmarshal.
type Collection[T any] struct {
	Pool  PgxPool
	Table string
}

// NewCollection builds a Collection bound to table.
func NewCollection[T any](pool PgxPool, table string) *Collection[T] {
	return &Collection[T]{Pool: pool, Table: table}
}

func (c *Collection[T]) span(ctx domain.Context, op string) (domain.Context, func()) {
	tracer := otel.Tracer("store.postgres")
	ctx, span := tracer.Start(ctx, c.Table+"."+op)
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", c.Table),
		attribute.String("db.operation", op),
	)
	return ctx, span.End
}

// Insert stores a brand-new document under id.
func (c *Collection[T]) Insert(ctx domain.Context, id string, doc T) error {
	ctx, end := c.span(ctx, "insert")
	defer end()
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", c.Table, err)
	}
	now := time.Now().UTC()
	q := fmt.Sprintf(`INSERT INTO %s (id, doc, created_at, updated_at) VALUES ($1,$2,$3,$4)`, c.Table)
	if _, err := c.Pool.Exec(ctx, q, id, raw, now, now); err != nil {
		return fmt.Errorf("%s: insert: %w", c.Table, err)
	}
	return nil
}

// FindByID implements `findById`.
func (c *Collection[T]) FindByID(ctx domain.Context, id string) (T, error) {
	ctx, end := c.span(ctx, "find_by_id")
	defer end()
	var zero T
	q := fmt.Sprintf(`SELECT doc FROM %s WHERE id=$1`, c.Table)
	row := c.Pool.QueryRow(ctx, q, id)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if err == pgx.ErrNoRows {
			return zero, domain.ErrNotFound(c.Table)
		}
		return zero, fmt.Errorf("%s: find_by_id: %w", c.Table, err)
	}
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return zero, fmt.Errorf("%s: unmarshal: %w", c.Table, err)
	}
	return doc, nil
}

// FindOne implements `findOne(filter)` where filter is a JSONB containment
// predicate (`doc @> $1`), the idiomatic pgx way to query JSONB columns by
// partial-document match.
func (c *Collection[T]) FindOne(ctx domain.Context, filter map[string]any) (T, error) {
	docs, err := c.Find(ctx, filter, FindOptions{Limit: 1})
	var zero T
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, domain.ErrNotFound(c.Table)
	}
	return docs[0], nil
}

// FindOptions controls `find(filter, {sort, limit, skip})`.
type FindOptions struct {
	SortBy string // JSON path expression, e.g. "doc->>'createdAt'"
	Desc   bool
	Limit  int
	Skip   int
}

// Find implements `find(filter, {sort, limit, skip, populate})`; populate is
// a no-op here since every repository embeds its related data directly in
// the document rather than normalizing into foreign tables.
func (c *Collection[T]) Find(ctx domain.Context, filter map[string]any, opts FindOptions) ([]T, error) {
	ctx, end := c.span(ctx, "find")
	defer end()

	q := fmt.Sprintf(`SELECT doc FROM %s`, c.Table)
	args := []any{}
	if len(filter) > 0 {
		raw, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal filter: %w", c.Table, err)
		}
		q += ` WHERE doc @> $1`
		args = append(args, raw)
	}
	if opts.SortBy != "" {
		dir := "ASC"
		if opts.Desc {
			dir = "DESC"
		}
		q += fmt.Sprintf(" ORDER BY %s %s", opts.SortBy, dir)
	}
	if opts.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Skip > 0 {
		q += fmt.Sprintf(" OFFSET %d", opts.Skip)
	}

	rows, err := c.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", c.Table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", c.Table, err)
		}
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%s: unmarshal: %w", c.Table, err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateOne implements `updateOne`: full-document replace by id.
func (c *Collection[T]) UpdateOne(ctx domain.Context, id string, doc T) error {
	ctx, end := c.span(ctx, "update_one")
	defer end()
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", c.Table, err)
	}
	q := fmt.Sprintf(`UPDATE %s SET doc=$2, updated_at=$3 WHERE id=$1`, c.Table)
	tag, err := c.Pool.Exec(ctx, q, id, raw, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s: update_one: %w", c.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound(c.Table)
	}
	return nil
}

// UpdateMany implements `updateMany`: merge a partial JSONB patch into every
// document matching filter.
func (c *Collection[T]) UpdateMany(ctx domain.Context, filter map[string]any, patch map[string]any) (int64, error) {
	ctx, end := c.span(ctx, "update_many")
	defer end()
	filterRaw, err := json.Marshal(filter)
	if err != nil {
		return 0, fmt.Errorf("%s: marshal filter: %w", c.Table, err)
	}
	patchRaw, err := json.Marshal(patch)
	if err != nil {
		return 0, fmt.Errorf("%s: marshal patch: %w", c.Table, err)
	}
	q := fmt.Sprintf(`UPDATE %s SET doc = doc || $2::jsonb, updated_at=$3 WHERE doc @> $1`, c.Table)
	tag, err := c.Pool.Exec(ctx, q, filterRaw, patchRaw, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: update_many: %w", c.Table, err)
	}
	return tag.RowsAffected(), nil
}

// AtomicFindAndModify implements `atomicFindAndModify`: select-for-update one
// row matching filter and apply mutate to it in the same transaction, the
// primitive the C4 broker's job-lease builds on.
func (c *Collection[T]) AtomicFindAndModify(ctx domain.Context, filter map[string]any, mutate func(*T) bool) (T, bool, error) {
	ctx, end := c.span(ctx, "atomic_find_and_modify")
	defer end()
	var zero T
	var result T
	var found bool
	noMatch := fmt.Errorf("%s: no matching document", c.Table)

	err := WithTransaction(ctx, c.Pool, func(tx pgx.Tx) error {
		raw, err := json.Marshal(filter)
		if err != nil {
			return err
		}
		q := fmt.Sprintf(`SELECT id, doc FROM %s WHERE doc @> $1 ORDER BY created_at ASC LIMIT 1 FOR UPDATE SKIP LOCKED`, c.Table)
		row := tx.QueryRow(ctx, q, raw)
		var id string
		var docRaw []byte
		if err := row.Scan(&id, &docRaw); err != nil {
			if err == pgx.ErrNoRows {
				return noMatch // rolls the transaction back
			}
			return err
		}
		var doc T
		if err := json.Unmarshal(docRaw, &doc); err != nil {
			return err
		}
		if !mutate(&doc) {
			return nil
		}
		newRaw, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		upd := fmt.Sprintf(`UPDATE %s SET doc=$2, updated_at=$3 WHERE id=$1`, c.Table)
		if _, err := tx.Exec(ctx, upd, id, newRaw, time.Now().UTC()); err != nil {
			return err
		}
		result = doc
		found = true
		return nil
	})
	if err == noMatch {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("%s: atomic_find_and_modify: %w", c.Table, err)
	}
	return result, found, nil
}

// CountDocuments implements `countDocuments`.
func (c *Collection[T]) CountDocuments(ctx domain.Context, filter map[string]any) (int, error) {
	ctx, end := c.span(ctx, "count_documents")
	defer end()
	q := fmt.Sprintf(`SELECT count(*) FROM %s`, c.Table)
	args := []any{}
	if len(filter) > 0 {
		raw, err := json.Marshal(filter)
		if err != nil {
			return 0, err
		}
		q += ` WHERE doc @> $1`
		args = append(args, raw)
	}
	var n int
	if err := c.Pool.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: count_documents: %w", c.Table, err)
	}
	return n, nil
}

// Aggregate implements a narrow slice of `aggregate`: one scalar statistic
// over the documents matching filter, with no grouping. expr is a raw SQL aggregate expression
// evaluated over the table's doc column, e.g. "avg((doc->>'score')::float8)".
func (c *Collection[T]) Aggregate(ctx domain.Context, filter map[string]any, expr string) (float64, error) {
	ctx, end := c.span(ctx, "aggregate")
	defer end()
	q := fmt.Sprintf(`SELECT coalesce(%s, 0) FROM %s`, expr, c.Table)
	args := []any{}
	if len(filter) > 0 {
		raw, err := json.Marshal(filter)
		if err != nil {
			return 0, err
		}
		q += ` WHERE doc @> $1`
		args = append(args, raw)
	}
	var v float64
	if err := c.Pool.QueryRow(ctx, q, args...).Scan(&v); err != nil {
		return 0, fmt.Errorf("%s: aggregate: %w", c.Table, err)
	}
	return v, nil
}

// Delete removes a document by id.
func (c *Collection[T]) Delete(ctx domain.Context, id string) error {
	ctx, end := c.span(ctx, "delete")
	defer end()
	q := fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, c.Table)
	if _, err := c.Pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("%s: delete: %w", c.Table, err)
	}
	return nil
}
