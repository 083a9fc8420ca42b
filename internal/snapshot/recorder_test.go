package snapshot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealmatch-cli/internal/model"
)

// stubWriter collects inserted snapshots, optionally blocking or failing.
type stubWriter struct {
	mu    sync.Mutex
	snaps []*model.ScoreSnapshot
	err   error
	block chan struct{}
}

func (w *stubWriter) InsertSnapshot(_ context.Context, snap *model.ScoreSnapshot) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.snaps = append(w.snaps, snap)
	return nil
}

func (w *stubWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.snaps)
}

func testScored() *model.ScoredResult {
	return &model.ScoredResult{
		ID:         "result-1",
		ListingID:  "l1",
		BuyerID:    "b1",
		UniverseID: "u1",
		Tier:       model.TierB,
	}
}

func TestRecorderWritesSnapshot(t *testing.T) {
	writer := &stubWriter{}
	rec := NewRecorder(writer, 8)

	rec.Record(testScored())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rec.Close(ctx))

	require.Equal(t, 1, writer.count())
	snap := writer.snaps[0]
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "result-1", snap.ResultID)
	assert.Equal(t, "l1", snap.ListingID)
}

func TestRecorderDropsWhenFull(t *testing.T) {
	writer := &stubWriter{block: make(chan struct{})}
	rec := NewRecorder(writer, 1)

	// First record may be in flight; the buffer holds one more. Everything
	// past that is dropped without blocking.
	for i := 0; i < 5; i++ {
		rec.Record(testScored())
	}
	assert.GreaterOrEqual(t, rec.Dropped(), int64(3))

	close(writer.block)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rec.Close(ctx))
}

func TestRecorderWriteFailureIsSwallowed(t *testing.T) {
	writer := &stubWriter{err: eris.New("db down")}
	rec := NewRecorder(writer, 8)

	rec.Record(testScored())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, rec.Close(ctx))
}

func TestRecorderCloseTimeout(t *testing.T) {
	writer := &stubWriter{block: make(chan struct{})}
	rec := NewRecorder(writer, 8)
	rec.Record(testScored())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := rec.Close(ctx)

	require.Error(t, err)
	close(writer.block)
}

func TestRecorderCloseIdempotent(t *testing.T) {
	rec := NewRecorder(&stubWriter{}, 8)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rec.Close(ctx))
	require.NoError(t, rec.Close(ctx))
}
