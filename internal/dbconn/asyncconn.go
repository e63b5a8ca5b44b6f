// Package dbconn implements AsyncConnection: one non-blocking database
// connection driven as a pipelined command/result pair, the building block
// every IndexWorker binds to. pgx has no libpq-style pollable socket fd to
// register with an OS-level selector, so write-readiness ("the previous
// command has fully drained") is emulated with a channel — see Ready().
package dbconn

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/lonvia/Nominatim/internal/ierrors"
)

// AsyncConnection is not safe for concurrent use by more than one caller;
// it is pinned to exactly one worker, matching the analyzer's own
// single-owner contract.
type AsyncConnection struct {
	dsn  string
	pool *pgxpool.Pool // used only to acquire/hijack a fresh *pgx.Conn on (re)connect
	conn *pgx.Conn

	mu       sync.Mutex
	inFlight bool
	ready    chan struct{}
	rows     [][]any
	fields   []string
	err      error
}

// Dial opens the first connection. pool supplies the runtime parameters
// (application_name, etc.) a fresh Acquire+Hijack should carry.
func Dial(ctx context.Context, pool *pgxpool.Pool) (*AsyncConnection, error) {
	c := &AsyncConnection{pool: pool, ready: make(chan struct{}, 1)}
	if err := c.reconnectLocked(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Perform sends a query. It fails if a previous command is still in flight.
func (c *AsyncConnection) Perform(ctx context.Context, sql string, args []any) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return errors.New("dbconn: Perform called while a command is already in flight")
	}
	c.inFlight = true
	c.rows = nil
	c.fields = nil
	c.err = nil
	conn := c.conn
	c.mu.Unlock()

	go func() {
		rows, err := conn.Query(ctx, sql, args...)
		var collected [][]any
		var fieldNames []string
		if err == nil {
			fds := rows.FieldDescriptions()
			for _, fd := range fds {
				fieldNames = append(fieldNames, string(fd.Name))
			}
			for rows.Next() {
				vals, verr := rows.Values()
				if verr != nil {
					err = verr
					break
				}
				collected = append(collected, vals)
			}
			rows.Close()
			if err == nil {
				err = rows.Err()
			}
		}

		c.mu.Lock()
		c.rows = collected
		c.fields = fieldNames
		if err != nil {
			c.err = ierrors.NewQuery(err, sql)
		}
		c.inFlight = false
		c.mu.Unlock()

		select {
		case c.ready <- struct{}{}:
		default:
		}
	}()

	return nil
}

// IsDone polls without blocking; true once the server has finished
// streaming results for the current command (or there is none in flight).
func (c *AsyncConnection) IsDone() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.inFlight
}

// Ready receives a signal when a command completes. The channel holds at
// most one pending signal: a completion that finds a signal still unread
// adds none. A WorkerPool
// selects across every worker's Ready channel instead of registering an OS
// file descriptor, since a runtime without a pollable drained-socket
// signal needs a different readiness primitive entirely.
func (c *AsyncConnection) Ready() <-chan struct{} {
	return c.ready
}

// Fetchall returns the rows of the most recently completed query.
func (c *AsyncConnection) Fetchall() ([][]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.rows, nil
}

// Fields returns the column names of the most recently completed query, in
// order, for runners that address row data by name rather than position.
func (c *AsyncConnection) Fields() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields
}

// Reconnect closes and reopens the underlying connection, releasing
// server-side memory the way worker.py's periodic reconnect does every
// ~10,000 rows.
func (c *AsyncConnection) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnectLocked(ctx)
}

func (c *AsyncConnection) reconnectLocked(ctx context.Context) error {
	if c.conn != nil {
		_ = c.conn.Close(ctx)
		c.conn = nil
	}

	pooled, err := c.pool.Acquire(ctx)
	if err != nil {
		return ierrors.NewConnectivity(err, "acquire connection for hijack")
	}
	conn := pooled.Hijack()
	if err := registerHstore(ctx, conn); err != nil {
		_ = conn.Close(ctx)
		return err
	}
	c.conn = conn
	c.inFlight = false
	return nil
}

// registerHstore teaches conn's type map how to decode the hstore columns
// placex_prepare_update and get_interpolation_address return. hstore is a
// contrib extension type with no fixed OID, so — unlike psycopg2's
// register_hstore(conn, globally=True), a single process-wide side effect —
// pgx requires looking its OID up and registering a codec on each
// connection individually.
func registerHstore(ctx context.Context, conn *pgx.Conn) error {
	var oid uint32
	err := conn.QueryRow(ctx, "SELECT oid FROM pg_type WHERE typname = 'hstore'").Scan(&oid)
	if err != nil {
		return ierrors.NewQuery(err, "look up hstore type oid")
	}
	conn.TypeMap().RegisterType(&pgtype.Type{
		Name:  "hstore",
		OID:   oid,
		Codec: pgtype.HstoreCodec{},
	})
	return nil
}

// Close releases resources. Idempotent.
func (c *AsyncConnection) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(ctx)
	c.conn = nil
	return err
}
