// Package snapshot records immutable audit copies of scored results in the
// background. Writes are best effort: a full buffer or a failed insert is
// logged and dropped, never surfaced to the scoring path.
package snapshot

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealmatch-cli/internal/model"
)

// Writer is the slice of the store the recorder needs.
type Writer interface {
	InsertSnapshot(ctx context.Context, snap *model.ScoreSnapshot) error
}

const (
	defaultBuffer = 256
	writeTimeout  = 5 * time.Second
)

// Recorder drains snapshot writes through a buffered channel so the scoring
// path never blocks on the audit store.
type Recorder struct {
	writer Writer
	ch     chan *model.ScoreSnapshot
	done   chan struct{}

	dropped   atomic.Int64
	closeOnce sync.Once
	now       func() time.Time
}

// NewRecorder starts a recorder with the given buffer size (0 selects the
// default). Callers must Close it to flush pending writes.
func NewRecorder(writer Writer, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	r := &Recorder{
		writer: writer,
		ch:     make(chan *model.ScoreSnapshot, buffer),
		done:   make(chan struct{}),
		now:    time.Now,
	}
	go r.run()
	return r
}

// Record queues an audit copy of the result. It never blocks: when the
// buffer is full the snapshot is dropped and counted.
func (r *Recorder) Record(result *model.ScoredResult) {
	snap := &model.ScoreSnapshot{
		ID:         uuid.NewString(),
		ResultID:   result.ID,
		ListingID:  result.ListingID,
		BuyerID:    result.BuyerID,
		UniverseID: result.UniverseID,
		Result:     *result,
		RecordedAt: r.now(),
	}

	select {
	case r.ch <- snap:
	default:
		r.dropped.Add(1)
		zap.L().Warn("snapshot buffer full, dropping audit record",
			zap.String("result_id", result.ID),
			zap.Int64("dropped_total", r.dropped.Load()))
	}
}

// Dropped returns the number of snapshots discarded due to a full buffer.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Recorder) run() {
	defer close(r.done)
	for snap := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.writer.InsertSnapshot(ctx, snap); err != nil {
			zap.L().Warn("snapshot write failed",
				zap.String("snapshot_id", snap.ID),
				zap.String("result_id", snap.ResultID),
				zap.Error(err))
		}
		cancel()
	}
}

// Close stops accepting snapshots and waits for the queue to drain, up to
// the context deadline.
func (r *Recorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() { close(r.ch) })

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "snapshot: close")
	}
}
