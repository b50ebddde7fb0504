package batch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/tinyimg/photo"
)

const (
	// DefaultChunkSize bounds how many files are compressed at once
	DefaultChunkSize = 4
	// DefaultChunkPause is the yield between two chunks
	DefaultChunkPause = 100 * time.Millisecond
)

// Compressor turns one source file into a result; *photo.Worker implements it
type Compressor interface {
	Compress(ctx context.Context, src photo.SourceFile) (photo.ResultFile, error)
}

// Config holds the scheduler tunables
type Config struct {
	ChunkSize int
	Pause     time.Duration
}

// DefaultConfig returns a chunk size of 4 and a 100ms pause
func DefaultConfig() Config {
	return Config{
		ChunkSize: DefaultChunkSize,
		Pause:     DefaultChunkPause,
	}
}

// Option customises a Scheduler
type Option func(*Scheduler)

// WithClock replaces the clock used for the inter-chunk pause
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the logger for per-item failures
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// Scheduler compresses ledger items in fixed-size chunks: members of a chunk
// run concurrently, chunks run one after another with a barrier in between.
type Scheduler struct {
	worker Compressor
	cfg    Config
	clock  Clock
	logger *slog.Logger
}

// NewScheduler creates a Scheduler. A chunk size below 1 falls back to the default.
func NewScheduler(worker Compressor, cfg Config, opts ...Option) *Scheduler {
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Pause < 0 {
		cfg.Pause = 0
	}
	s := &Scheduler{
		worker: worker,
		cfg:    cfg,
		clock:  SystemClock{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration
func (s *Scheduler) Config() Config { return s.cfg }

// Chunk splits items into consecutive groups of size; the last may be smaller
func Chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	var chunks [][]T
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		chunks = append(chunks, items[i:end])
	}
	return chunks
}

// Run compresses the items at indices. Results land in the ledger as they
// settle; Run returns once the last chunk's barrier has cleared, or early
// with ctx's error when cancelled between chunks.
func (s *Scheduler) Run(ctx context.Context, l *Ledger, indices []int) error {
	return s.RunIDs(ctx, l, l.IDsAt(indices))
}

// RunIDs is Run addressed by item ID. Items that are filled, failed, in
// flight or gone are not submitted again.
func (s *Scheduler) RunIDs(ctx context.Context, l *Ledger, ids []ItemID) error {
	pending := s.pending(l, ids)
	chunks := Chunk(pending, s.cfg.ChunkSize)

	for ci, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.runChunk(ctx, l, chunk)
		s.logger.Debug("chunk settled", "chunk", ci+1, "chunks", len(chunks), "size", len(chunk))

		if ci < len(chunks)-1 && s.cfg.Pause > 0 {
			if err := s.clock.Sleep(ctx, s.cfg.Pause); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Scheduler) pending(l *Ledger, ids []ItemID) []ItemID {
	snap := l.Snapshot()
	status := make(map[ItemID]Status, snap.Len())
	for i, id := range snap.IDs {
		status[id] = snap.Status(i)
	}

	out := make([]ItemID, 0, len(ids))
	seen := make(map[ItemID]bool, len(ids))
	for _, id := range ids {
		st, ok := status[id]
		if !ok || st != StatusPending || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (s *Scheduler) runChunk(ctx context.Context, l *Ledger, chunk []ItemID) {
	l.MarkInFlight(chunk)
	// barrier: in-flight flags go away only after every member settled
	defer l.ClearInFlight(chunk)

	var g errgroup.Group
	for _, id := range chunk {
		g.Go(func() error {
			s.compressOne(ctx, l, id)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Scheduler) compressOne(ctx context.Context, l *Ledger, id ItemID) {
	src, ok := l.Source(id)
	if !ok {
		return
	}

	res, err := s.worker.Compress(ctx, src)
	if err != nil {
		s.logger.Error("compression failed", "file", src.Name, "id", id, "error", err)
		l.RecordFailure(id, err)
		return
	}

	if !l.RecordResult(id, res) {
		s.logger.Debug("dropping stale result", "file", src.Name, "id", id)
		return
	}
	s.logger.Info("compressed", "file", src.Name, "from", src.SizeBytes, "to", res.SizeBytes)
}
