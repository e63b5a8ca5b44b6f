package indexer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lonvia/Nominatim/internal/dbconn"
	"github.com/lonvia/Nominatim/internal/ierrors"
	"github.com/lonvia/Nominatim/internal/pool"
	"github.com/lonvia/Nominatim/internal/runner"
	"github.com/lonvia/Nominatim/internal/worker"
)

// cursorFetchSize is the number of ids pulled per FETCH FORWARD round-trip,
// matching the 300-id slice size workers are handed.
const cursorFetchSize = sliceSize

// runPass drives one indexing pass of runner r at the given batch size. It
// acquires a dedicated connection and opens a transaction holding a named,
// server-side cursor over r.SQLGetObjects(), builds a pool of ix.numThreads workers all bound
// to r, and loops handing free workers the next slice of ids until the
// cursor is exhausted and every worker has drained back to idle.
func (ix *Indexer) runPass(ctx context.Context, r runner.Runner, batchSize int) (err error) {
	passID := uuid.New().String()
	log := ix.log.With().Str("pass_id", passID).Str("pass", r.Name()).Logger()

	start := time.Now()
	defer func() {
		if ix.metrics == nil {
			return
		}
		ix.metrics.PassDuration.WithLabelValues(r.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			ix.metrics.RunnerFailures.WithLabelValues(r.Name()).Inc()
		}
	}()

	cursorConn, acqErr := ix.pool.Acquire(ctx)
	if acqErr != nil {
		return ierrors.NewConnectivity(acqErr, "acquire connection for enumeration cursor")
	}
	defer cursorConn.Release()

	tx, err := cursorConn.Begin(ctx)
	if err != nil {
		return ierrors.NewConnectivity(err, "begin enumeration transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op once committed

	var total int64
	if scanErr := tx.QueryRow(ctx, r.SQLCountObjects()).Scan(&total); scanErr != nil {
		return ierrors.NewQuery(scanErr, r.SQLCountObjects())
	}
	log.Warn().Int64("rows", total).Msg("starting indexing pass")
	if total == 0 {
		return tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, "DECLARE placeids CURSOR FOR "+r.SQLGetObjects()); err != nil {
		return ierrors.NewQuery(err, r.SQLGetObjects())
	}

	workers, err := ix.newWorkerPool(ctx, r)
	if err != nil {
		return err
	}
	wp := pool.New(workers)
	defer wp.Close(ctx) //nolint:errcheck // best-effort on every exit path

	if ix.metrics != nil {
		ix.metrics.ActiveWorkers.Set(float64(len(workers)))
		defer ix.metrics.ActiveWorkers.Set(0)
	}

	var done int64
	cursorExhausted := false

	for wp.HasWorkers() {
		w, err := wp.NextFreeWorker(ctx)
		if err != nil {
			return err
		}

		n, err := w.ContinueSlice(ctx)
		if err != nil {
			return err
		}

		switch {
		case n > 0:
			done += int64(n)
			if ix.metrics != nil {
				ix.metrics.RowsIndexed.WithLabelValues(r.Name()).Add(float64(n))
			}
			log.Warn().Int64("done", done).Int64("total", total).Msg("progress")

		case n == -1:
			if cursorExhausted {
				if err := wp.ShutdownWorker(ctx, w); err != nil {
					return err
				}
				continue
			}
			ids, err := fetchNextIDs(ctx, tx, cursorFetchSize)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				cursorExhausted = true
				if err := wp.ShutdownWorker(ctx, w); err != nil {
					return err
				}
				continue
			}
			if err := w.StartSlice(ctx, ids, batchSize); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func (ix *Indexer) newWorkerPool(ctx context.Context, r runner.Runner) ([]pool.Worker, error) {
	workers := make([]pool.Worker, 0, ix.numThreads)
	for i := 0; i < ix.numThreads; i++ {
		conn, err := dbconn.Dial(ctx, ix.pool)
		if err != nil {
			for _, w := range workers {
				_ = w.Close(ctx)
			}
			return nil, err
		}
		workers = append(workers, worker.New(conn, r))
	}
	return workers, nil
}

func fetchNextIDs(ctx context.Context, tx pgx.Tx, n int) ([]int64, error) {
	rows, err := tx.Query(ctx, "FETCH FORWARD $1 FROM placeids", n)
	if err != nil {
		return nil, ierrors.NewQuery(err, "FETCH FORWARD placeids")
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, ierrors.NewQuery(err, "scan cursor id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
