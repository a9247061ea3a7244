package sink

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/model"
)

// DefaultTable receives rows when no table is configured.
const DefaultTable = "driver_helper_sync"

var tableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Querier is the part of *pgxpool.Pool the sink needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres inserts each batch item as one row of a sync table.
type Postgres struct {
	q     Querier
	pool  *pgxpool.Pool
	table string
	now   func() time.Time
}

// NewPostgres creates a sink over an existing querier.
func NewPostgres(q Querier, table string) (*Postgres, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNameRegex.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Postgres{q: q, table: table, now: time.Now}, nil
}

// OpenPostgres connects a pool for dsn. The pool connects lazily.
func OpenPostgres(ctx context.Context, dsn, table string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	p, err := NewPostgres(pool, table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// Name implements Sink.
func (p *Postgres) Name() string { return "postgres" }

// Send inserts all items in one statement and acknowledges every id.
func (p *Postgres) Send(ctx context.Context, batch model.Batch) (model.Ack, error) {
	if len(batch.Items) == 0 {
		return model.Ack{SyncedIDs: []int64{}}, nil
	}

	now := p.now().UTC()
	query := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert(pgx.Identifier(strings.Split(p.table, ".")).Sanitize()).
		Columns("entity", "operation", "payload", "queue_id", "created_at")
	for _, item := range batch.Items {
		query = query.Values(string(item.Entity), string(item.Operation), string(item.Payload), item.ID, now)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return model.Ack{}, fmt.Errorf("failed to build insert: %w", err)
	}

	start := time.Now()
	tag, err := p.q.Exec(ctx, sql, args...)
	if err != nil {
		return model.Ack{}, fmt.Errorf("insert into %s: %w", p.table, err)
	}

	logging.LoggerFromContext(ctx).Debug("postgres accepted batch",
		logging.KeySink, p.table,
		logging.KeyCount, tag.RowsAffected(),
		logging.KeyDuration, time.Since(start).Milliseconds(),
	)

	return batch.AcceptAll(), nil
}

// Close releases the pool if the sink opened it.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
