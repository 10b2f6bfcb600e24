// Package quorum orchestrates one prompt across several LLM backends and
// merges their answers by weighted consensus.
package quorum

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quorumlabs/quorum/pkg/quorum/config"
	"github.com/quorumlabs/quorum/pkg/quorum/consensus"
	"github.com/quorumlabs/quorum/pkg/quorum/dispatch"
	qerrors "github.com/quorumlabs/quorum/pkg/quorum/errors"
	"github.com/quorumlabs/quorum/pkg/quorum/merge"
	"github.com/quorumlabs/quorum/pkg/quorum/provider"
	"github.com/quorumlabs/quorum/pkg/quorum/quality"
	"github.com/quorumlabs/quorum/pkg/quorum/registry"
	"github.com/quorumlabs/quorum/pkg/quorum/store"
	"github.com/quorumlabs/quorum/pkg/quorum/tracker"
	"github.com/quorumlabs/quorum/pkg/quorum/weights"
)

// Request asks for one merged answer
type Request struct {
	// Prompt is sent verbatim to every model
	Prompt string

	// ModelIDs optionally restricts the batch to a registry subset
	ModelIDs []string

	// Deadline bounds the whole orchestration; zero means only the
	// per-call timeout applies
	Deadline time.Duration
}

// Result is one merged answer plus its diagnostics. It is returned to the
// caller and not retained.
type Result struct {
	// RequestID identifies this orchestration for logs and diagnostics
	RequestID string

	// FinalContent is the merged answer
	FinalContent string

	// SourceModels lists the model ids whose content made the answer
	SourceModels []string

	// ConsensusScore is agreement among the successful candidates
	ConsensusScore float64

	// Weights is the distribution the selection used
	Weights weights.Distribution

	// Candidates holds every model's outcome, in registry order
	Candidates []dispatch.Candidate
}

// Orchestrator owns the collaborators for merge requests. Construct one
// per registry; the tracker store is injected so instances stay
// independent and testable.
type Orchestrator struct {
	registry  *registry.Registry
	providers map[string]provider.Provider
	tracker   *tracker.Tracker
	dispatch  *dispatch.Dispatcher
	weights   *weights.Calculator
	consensus *consensus.Calculator
	selector  merge.Selector
	log       zerolog.Logger
}

type options struct {
	store       tracker.Store
	factories   *provider.Registry
	selector    merge.Selector
	assessor    quality.Assessor
	similarity  consensus.SimilarityFunc
	calc        *weights.Calculator
	alpha       float64
	callTimeout time.Duration
	defaults    config.Config
	log         zerolog.Logger
}

// Option configures an Orchestrator
type Option func(*options)

// WithStore injects the performance record store (default: in-memory)
func WithStore(s tracker.Store) Option {
	return func(o *options) { o.store = s }
}

// WithFactories injects the provider factory registry
func WithFactories(r *provider.Registry) Option {
	return func(o *options) { o.factories = r }
}

// WithSelector replaces the weighted-plurality merge policy
func WithSelector(s merge.Selector) Option {
	return func(o *options) { o.selector = s }
}

// WithAssessor replaces the default quality scorer
func WithAssessor(a quality.Assessor) Option {
	return func(o *options) { o.assessor = a }
}

// WithSimilarity replaces the default consensus similarity metric
func WithSimilarity(f consensus.SimilarityFunc) Option {
	return func(o *options) { o.similarity = f }
}

// WithWeightExponents tunes the weight formula exponents
func WithWeightExponents(quality, success float64) Option {
	return func(o *options) {
		o.calc = &weights.Calculator{QualityExponent: quality, SuccessExponent: success}
	}
}

// WithAlpha overrides the tracker smoothing factor
func WithAlpha(alpha float64) Option {
	return func(o *options) { o.alpha = alpha }
}

// WithCallTimeout sets the per-model call timeout
func WithCallTimeout(timeout time.Duration) Option {
	return func(o *options) { o.callTimeout = timeout }
}

// WithProviderDefaults layers shared adapter settings (max tokens,
// temperature, retry attempts, circuit breaker) under every model's own
// registry entry. Per-model fields still win.
func WithProviderDefaults(cfg config.Config) Option {
	return func(o *options) { o.defaults = o.defaults.Merge(cfg) }
}

// WithLogger attaches a logger to the orchestrator and its collaborators
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// New builds an orchestrator for the given registry. Each configured
// model gets its adapter up front so a bad configuration fails at
// construction, not mid-request.
func New(reg *registry.Registry, opts ...Option) (*Orchestrator, error) {
	o := options{
		selector:    merge.NewWeightedPlurality(),
		calc:        weights.NewCalculator(),
		alpha:       tracker.DefaultAlpha,
		callTimeout: dispatch.DefaultCallTimeout,
		defaults:    config.NewConfig(),
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.store == nil {
		o.store = store.NewMemory()
	}
	if o.factories == nil {
		o.factories = provider.NewRegistry()
		if err := o.factories.RegisterFactory(&provider.OpenAIFactory{}); err != nil {
			return nil, err
		}
	}

	providers := make(map[string]provider.Provider, reg.Len())
	for _, mc := range reg.Models() {
		p, err := o.factories.Create(mc.Provider, o.defaults.WithOptions(
			config.WithAPIKey(mc.CredentialRef),
			config.WithBaseURL(mc.Endpoint),
			config.WithModel(mc.Model),
			config.WithTimeout(o.callTimeout),
		))
		if err != nil {
			return nil, qerrors.Wrap(err, mc.ID, "build_provider")
		}
		providers[mc.ID] = p
	}

	tr := tracker.New(o.store,
		tracker.WithAlpha(o.alpha),
		tracker.WithLogger(o.log))

	dispatchOpts := []dispatch.Option{
		dispatch.WithCallTimeout(o.callTimeout),
		dispatch.WithLogger(o.log),
	}
	if o.assessor != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithAssessor(o.assessor))
	}

	return &Orchestrator{
		registry:  reg,
		providers: providers,
		tracker:   tr,
		dispatch:  dispatch.New(tr, dispatchOpts...),
		weights:   o.calc,
		consensus: consensus.NewCalculatorWith(o.similarity),
		selector:  o.selector,
		log:       o.log,
	}, nil
}

// Merge runs one orchestration: fan out, assess, track, weigh, measure
// consensus, select. Per-model failures become candidate diagnostics; the
// only fatal outcome is every model failing, surfaced as AllFailedError
// with no partial merge.
func (q *Orchestrator) Merge(ctx context.Context, req Request) (*Result, error) {
	requestID := uuid.NewString()
	log := q.log.With().Str("request_id", requestID).Logger()

	batch, err := q.registry.Subset(req.ModelIDs)
	if err != nil {
		return nil, err
	}

	if req.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Deadline)
		defer cancel()
	}

	targets := make([]dispatch.Target, 0, batch.Len())
	for _, mc := range batch.Models() {
		targets = append(targets, dispatch.Target{ID: mc.ID, Provider: q.providers[mc.ID]})
	}

	candidates, err := q.dispatch.Dispatch(ctx, targets, provider.Request{Prompt: req.Prompt})
	if err != nil {
		log.Warn().Err(err).Msg("merge failed")
		return nil, err
	}

	// Weigh only the models that succeeded in this batch, using their
	// just-updated records.
	var successfulRecords []tracker.Record
	var successfulContents []string
	for _, cand := range candidates {
		if !cand.Succeeded {
			continue
		}
		rec, ok, recErr := q.tracker.Record(ctx, cand.ModelID)
		if recErr != nil {
			return nil, recErr
		}
		if !ok {
			// Observe ran for this call, so a missing record means the
			// store lost it; treat as a fresh one seeded from this call.
			rec = tracker.Record{ModelID: cand.ModelID, QualityEMA: cand.Quality, SuccessEMA: 1}
		}
		successfulRecords = append(successfulRecords, rec)
		successfulContents = append(successfulContents, cand.Content)
	}

	dist := q.weights.Compute(successfulRecords)
	score := q.consensus.Score(successfulContents)

	selection, err := q.selector.Select(candidates, dist, q.registry.Position)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("models", len(targets)).
		Int("succeeded", len(successfulRecords)).
		Float64("consensus", score).
		Strs("sources", selection.Models).
		Msg("merge complete")

	return &Result{
		RequestID:      requestID,
		FinalContent:   selection.Content,
		SourceModels:   selection.Models,
		ConsensusScore: score,
		Weights:        dist,
		Candidates:     candidates,
	}, nil
}

// Records returns the tracker's current reliability records
func (q *Orchestrator) Records(ctx context.Context) ([]tracker.Record, error) {
	return q.tracker.Records(ctx)
}

// Registry returns the model catalog this orchestrator serves
func (q *Orchestrator) Registry() *registry.Registry {
	return q.registry
}
