// Package worker implements IndexWorker: one AsyncConnection bound to one
// Runner, driving a per-slice state machine of up to 300 ids through an
// optional prefetch and a sequence of batched UPDATEs.
package worker

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lonvia/Nominatim/internal/ierrors"
	"github.com/lonvia/Nominatim/internal/place"
	"github.com/lonvia/Nominatim/internal/runner"
)

type state int

const (
	stateIdle state = iota
	statePrefetching
	stateUpdating
)

// reconnectThreshold bounds per-connection server-side memory growth; the
// worker reconnects once it has processed more rows than this since its
// last reconnect.
const reconnectThreshold = 10000

var errSliceInProgress = fmt.Errorf("a slice is already in progress")

// asyncConn is the subset of *dbconn.AsyncConnection the worker drives.
// Accepting the interface rather than the concrete type lets tests exercise
// the slice state machine against a fake connection with no database.
type asyncConn interface {
	Perform(ctx context.Context, sql string, args []any) error
	IsDone() bool
	Ready() <-chan struct{}
	Fetchall() ([][]any, error)
	Fields() []string
	Reconnect(ctx context.Context) error
	Close(ctx context.Context) error
}

// IndexWorker binds one AsyncConnection to one Runner. Not safe for
// concurrent use — it is owned by exactly one caller (the Indexer's
// scheduling loop) at a time.
type IndexWorker struct {
	conn   asyncConn
	run    runner.Runner
	objRun runner.ObjectInfoRunner // non-nil when run also implements it

	st        state
	rows      []runner.Row
	batchSize int
	inBatch   int // rows covered by the in-flight UPDATE, for progress reporting

	placeCount int // rows processed since last reconnect
}

// New creates a worker bound to an already-dialed connection and a runner.
func New(conn asyncConn, r runner.Runner) *IndexWorker {
	w := &IndexWorker{conn: conn, run: r, st: stateIdle}
	if or, ok := r.(runner.ObjectInfoRunner); ok {
		w.objRun = or
	}
	return w
}

// Ready exposes the backing connection's readiness channel so a WorkerPool
// can fan-in across every worker it holds.
func (w *IndexWorker) Ready() <-chan struct{} {
	return w.conn.Ready()
}

// IsDone reports whether the worker has no command in flight right now —
// either genuinely idle, or its last issued command has already drained.
// This is the non-blocking half of write-readiness; a worker pool checks it
// before falling back to waiting on Ready, since a worker that has never
// had a command in flight will never receive on that channel.
func (w *IndexWorker) IsDone() bool {
	return w.conn.IsDone()
}

// StartSlice begins a new slice of up to 300 ids. It is illegal to call
// while another slice is in progress.
func (w *IndexWorker) StartSlice(ctx context.Context, ids []int64, batchSize int) error {
	if w.st != stateIdle {
		return ierrors.NewConfig(errSliceInProgress, "worker: StartSlice")
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	w.batchSize = batchSize

	if w.objRun != nil {
		sql, args := w.objRun.SQLGetObjectInfo(ids)
		if err := w.conn.Perform(ctx, sql, args); err != nil {
			return err
		}
		w.st = statePrefetching
		return nil
	}

	w.rows = rowsFromIDs(ids)
	return w.issueNextBatch(ctx)
}

// ContinueSlice advances the slice by one step. Returns -1 if no slice is
// in progress, 0 if the current sub-command is still in flight, or n > 0
// for the number of rows whose completion was observed on this call.
func (w *IndexWorker) ContinueSlice(ctx context.Context) (int, error) {
	switch w.st {
	case stateIdle:
		return -1, nil

	case statePrefetching:
		if !w.conn.IsDone() {
			return 0, nil
		}
		rows, err := w.conn.Fetchall()
		if err != nil {
			return 0, err
		}
		fields := w.conn.Fields()
		parsed, err := rowsFromPrefetch(fields, rows)
		if err != nil {
			return 0, err
		}
		w.rows = parsed
		if err := w.issueNextBatch(ctx); err != nil {
			return 0, err
		}
		return 0, nil

	case stateUpdating:
		if !w.conn.IsDone() {
			return 0, nil
		}
		if _, err := w.conn.Fetchall(); err != nil {
			return 0, err
		}
		done := w.inBatch
		w.placeCount += done
		w.rows = w.rows[done:]

		if len(w.rows) == 0 {
			w.st = stateIdle
			if err := w.maybeReconnect(ctx); err != nil {
				return 0, err
			}
			return done, nil
		}
		if err := w.issueNextBatch(ctx); err != nil {
			return 0, err
		}
		return done, nil
	}

	return -1, nil
}

func (w *IndexWorker) issueNextBatch(ctx context.Context) error {
	n := w.batchSize
	if n > len(w.rows) {
		n = len(w.rows)
	}
	batch := w.rows[:n]

	sql, args, err := w.run.SQLIndexPlaces(ctx, batch)
	if err != nil {
		return err
	}
	if err := w.conn.Perform(ctx, sql, args); err != nil {
		return err
	}
	w.inBatch = n
	w.st = stateUpdating
	return nil
}

func (w *IndexWorker) maybeReconnect(ctx context.Context) error {
	if w.placeCount <= reconnectThreshold {
		return nil
	}
	w.placeCount = 0
	return w.conn.Reconnect(ctx)
}

// Close releases the worker's connection and its runner's resources.
func (w *IndexWorker) Close(ctx context.Context) error {
	connErr := w.conn.Close(ctx)
	runErr := w.run.Close(ctx)
	if runErr != nil {
		return runErr
	}
	return connErr
}

func rowsFromIDs(ids []int64) []runner.Row {
	rows := make([]runner.Row, len(ids))
	for i, id := range ids {
		rows[i] = runner.Row{Place: place.Place{PlaceID: id}}
	}
	return rows
}

// rowsFromPrefetch maps a prefetch result set (place_id plus a
// placex_prepare_update-shaped composite, or an address-only row for
// interpolations) into Rows. "address" and "name" are hstore columns,
// decoded via hstoreToMap; anything else matching a known Place field is
// mapped directly, everything else is ignored.
func rowsFromPrefetch(fields []string, data [][]any) ([]runner.Row, error) {
	rows := make([]runner.Row, 0, len(data))
	for _, rec := range data {
		var row runner.Row
		for i, f := range fields {
			if i >= len(rec) {
				continue
			}
			v := rec[i]
			switch f {
			case "place_id":
				row.Place.PlaceID = toInt64(v)
			case "address":
				m, err := hstoreToMap(v)
				if err != nil {
					return nil, err
				}
				row.Address = m
				row.Place.Address = m
			case "name":
				m, err := hstoreToMap(v)
				if err != nil {
					return nil, err
				}
				row.Place.Name = m
			case "country_feature":
				if s, ok := v.(string); ok {
					row.Place.CountryFeature = s
				}
			case "rank_address":
				row.Place.RankAddress = int(toInt64(v))
			case "rank_search":
				row.Place.RankSearch = int(toInt64(v))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	}
	return 0
}

// hstoreToMap converts an hstore-typed column value into a plain
// map[string]string. With registerHstore run on the connection (see
// dbconn.registerHstore), rows.Values() decodes these columns as
// pgtype.Hstore (map[string]*string, since hstore values may be SQL NULL);
// a nil value is rendered as the empty string. map[string]string is also
// accepted directly so tests can hand in fake rows without a real hstore
// codec.
func hstoreToMap(v any) (map[string]string, error) {
	switch addr := v.(type) {
	case pgtype.Hstore:
		m := make(map[string]string, len(addr))
		for k, val := range addr {
			if val != nil {
				m[k] = *val
			} else {
				m[k] = ""
			}
		}
		return m, nil
	case map[string]string:
		return addr, nil
	case nil:
		return nil, nil
	default:
		return nil, ierrors.NewQuery(fmt.Errorf("unsupported hstore column type %T", addr), "decode hstore column")
	}
}
