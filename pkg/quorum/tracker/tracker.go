// Package tracker maintains smoothed per-model reliability records.
package tracker

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	qerrors "github.com/quorumlabs/quorum/pkg/quorum/errors"
)

// DefaultAlpha is the EMA smoothing factor
const DefaultAlpha = 0.2

const stripes = 64

// Record is the historical reliability state for one model. Both EMAs stay
// within [0,1] for the life of the record.
type Record struct {
	ModelID      string    `json:"model_id"`
	QualityEMA   float64   `json:"quality_ema"`
	SuccessEMA   float64   `json:"success_ema"`
	LatencyEMAMs float64   `json:"latency_ema_ms"`
	Samples      int64     `json:"samples"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Store persists records by model id with last-writer-wins semantics. The
// tracker serializes writers per model, so a Store never needs its own
// per-key coordination beyond atomic put.
type Store interface {
	// Get returns the record for the model; ok is false when the model
	// has never been observed.
	Get(ctx context.Context, modelID string) (rec Record, ok bool, err error)

	// Put writes the record for rec.ModelID
	Put(ctx context.Context, rec Record) error

	// List returns all records in unspecified order
	List(ctx context.Context) ([]Record, error)
}

// Tracker updates records on every completed call. It is safe for
// concurrent use: updates are mutually exclusive per model via lock
// striping, never through one global lock, so unrelated models do not
// serialize each other.
type Tracker struct {
	store Store
	alpha float64
	log   zerolog.Logger
	locks [stripes]sync.Mutex
	clock func() time.Time
}

// Option configures a Tracker
type Option func(*Tracker)

// WithAlpha overrides the smoothing factor. Values outside (0,1] keep the
// default.
func WithAlpha(alpha float64) Option {
	return func(t *Tracker) {
		if alpha > 0 && alpha <= 1 {
			t.alpha = alpha
		}
	}
}

// WithLogger attaches a logger for observation records
func WithLogger(log zerolog.Logger) Option {
	return func(t *Tracker) {
		t.log = log
	}
}

func withClock(clock func() time.Time) Option {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// New creates a tracker backed by the given store
func New(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store: store,
		alpha: DefaultAlpha,
		log:   zerolog.Nop(),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Observation is one completed call outcome
type Observation struct {
	ModelID   string
	Quality   float64
	Succeeded bool
	LatencyMs int64
}

// Observe folds one outcome into the model's record and returns the
// updated record. A failed call counts as quality 0 and success 0. The
// first observation for a model seeds the EMAs directly from the observed
// values.
func (t *Tracker) Observe(ctx context.Context, obs Observation) (Record, error) {
	quality := clamp01(obs.Quality)
	success := 0.0
	if obs.Succeeded {
		success = 1.0
	} else {
		quality = 0.0
	}

	lock := &t.locks[stripeFor(obs.ModelID)]
	lock.Lock()
	defer lock.Unlock()

	rec, ok, err := t.store.Get(ctx, obs.ModelID)
	if err != nil {
		return Record{}, qerrors.Wrap(err, obs.ModelID, "load_record")
	}

	if !ok {
		rec = Record{
			ModelID:      obs.ModelID,
			QualityEMA:   quality,
			SuccessEMA:   success,
			LatencyEMAMs: float64(obs.LatencyMs),
		}
	} else {
		rec.QualityEMA = clamp01(t.alpha*quality + (1-t.alpha)*rec.QualityEMA)
		rec.SuccessEMA = clamp01(t.alpha*success + (1-t.alpha)*rec.SuccessEMA)
		rec.LatencyEMAMs = t.alpha*float64(obs.LatencyMs) + (1-t.alpha)*rec.LatencyEMAMs
	}

	rec.Samples++
	rec.LastUpdated = t.clock()

	if err := t.store.Put(ctx, rec); err != nil {
		return Record{}, qerrors.Wrap(err, obs.ModelID, "store_record")
	}

	t.log.Debug().
		Str("model", obs.ModelID).
		Bool("succeeded", obs.Succeeded).
		Float64("quality_ema", rec.QualityEMA).
		Float64("success_ema", rec.SuccessEMA).
		Int64("samples", rec.Samples).
		Msg("recorded observation")

	return rec, nil
}

// Record returns the current record for a model
func (t *Tracker) Record(ctx context.Context, modelID string) (Record, bool, error) {
	return t.store.Get(ctx, modelID)
}

// Records returns all known records
func (t *Tracker) Records(ctx context.Context) ([]Record, error) {
	return t.store.List(ctx)
}

func stripeFor(modelID string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(modelID))
	return h.Sum32() % stripes
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
