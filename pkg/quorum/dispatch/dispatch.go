// Package dispatch fans one prompt out to every configured model.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	qerrors "github.com/quorumlabs/quorum/pkg/quorum/errors"
	"github.com/quorumlabs/quorum/pkg/quorum/provider"
	"github.com/quorumlabs/quorum/pkg/quorum/quality"
	"github.com/quorumlabs/quorum/pkg/quorum/tracker"
)

// DefaultCallTimeout bounds each model call when no timeout is configured
const DefaultCallTimeout = 30 * time.Second

// Target pairs a registry model id with its provider adapter
type Target struct {
	ID       string
	Provider provider.Provider
}

// Candidate is one model's outcome for a single batch. Candidates are
// consumed by the merge cycle and discarded; only the tracker keeps
// history.
type Candidate struct {
	ModelID   string
	Content   string
	Quality   float64
	LatencyMs int64
	Succeeded bool
	ErrorKind qerrors.Kind
	Err       error
}

// Dispatcher issues the concurrent calls, assesses each response, and
// reports every outcome to the tracker exactly once.
type Dispatcher struct {
	timeout  time.Duration
	assessor quality.Assessor
	tracker  *tracker.Tracker
	log      zerolog.Logger
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithCallTimeout sets the per-call timeout
func WithCallTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithAssessor replaces the default quality scorer
func WithAssessor(assessor quality.Assessor) Option {
	return func(d *Dispatcher) {
		if assessor != nil {
			d.assessor = assessor
		}
	}
}

// WithLogger attaches a logger for per-call outcomes
func WithLogger(log zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// New creates a dispatcher reporting to the given tracker
func New(tr *tracker.Tracker, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		timeout:  DefaultCallTimeout,
		assessor: quality.Score,
		tracker:  tr,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch calls every target concurrently and returns one candidate per
// target, in target order, regardless of individual failures. A failed
// call yields a candidate with Succeeded=false and a classified error
// kind; it never aborts the batch. Only when every call failed does
// Dispatch also return an AllFailedError. The caller's ctx deadline
// cancels outstanding calls; calls cut off that way count as timeouts
// for their model.
func (d *Dispatcher) Dispatch(ctx context.Context, targets []Target, request provider.Request) ([]Candidate, error) {
	if len(targets) == 0 {
		return nil, &qerrors.AllFailedError{}
	}

	candidates := make([]Candidate, len(targets))

	var wg sync.WaitGroup
	wg.Add(len(targets))

	for i, target := range targets {
		go func(index int, tgt Target) {
			defer wg.Done()
			candidates[index] = d.callOne(ctx, tgt, request)
		}(i, target)
	}

	wg.Wait()

	failures := 0
	causes := make(map[string]error, len(targets))
	for _, cand := range candidates {
		if !cand.Succeeded {
			failures++
			causes[cand.ModelID] = cand.Err
		}
	}

	if failures == len(targets) {
		return candidates, &qerrors.AllFailedError{Causes: causes}
	}

	return candidates, nil
}

// callOne runs a single bounded call, scores the response, and records
// the outcome.
func (d *Dispatcher) callOne(ctx context.Context, target Target, request provider.Request) Candidate {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	response, err := target.Provider.GenerateResponse(callCtx, request)
	latencyMs := time.Since(start).Milliseconds()

	cand := Candidate{
		ModelID:   target.ID,
		LatencyMs: latencyMs,
	}

	if err == nil && strings.TrimSpace(response.Content) == "" {
		err = qerrors.Wrap(qerrors.ErrEmptyResponse, target.ID, "call")
	}

	if err != nil {
		// A call cancelled by the batch deadline is a timeout for this model
		if callCtx.Err() != nil {
			err = qerrors.Wrap(qerrors.ErrTimeout, target.ID, "call")
		}
		cand.Err = err
		cand.ErrorKind = qerrors.Classify(err)

		d.log.Warn().
			Str("model", target.ID).
			Str("kind", string(cand.ErrorKind)).
			Int64("latency_ms", latencyMs).
			Err(err).
			Msg("model call failed")
	} else {
		cand.Content = response.Content
		cand.Succeeded = true
		cand.Quality = d.assess(target.ID, response.Content)

		d.log.Debug().
			Str("model", target.ID).
			Float64("quality", cand.Quality).
			Int64("latency_ms", latencyMs).
			Msg("model call succeeded")
	}

	// Exactly one tracker observation per call, success or failure. The
	// observation uses its own context so a batch that timed out still
	// records its failures; a store failure must not fail the batch.
	obsCtx, obsCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer obsCancel()

	if _, obsErr := d.tracker.Observe(obsCtx, tracker.Observation{
		ModelID:   target.ID,
		Quality:   cand.Quality,
		Succeeded: cand.Succeeded,
		LatencyMs: latencyMs,
	}); obsErr != nil {
		d.log.Error().Str("model", target.ID).Err(obsErr).Msg("recording observation failed")
	}

	return cand
}

// assess never propagates a scorer failure; a panicking assessor degrades
// to quality 0 for that candidate.
func (d *Dispatcher) assess(modelID, content string) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			score = 0
			d.log.Error().
				Str("model", modelID).
				Str("panic", fmt.Sprint(r)).
				Msg("quality assessment failed")
		}
	}()

	score = d.assessor(content)
	if score < 0 || score > 1 {
		score = 0
	}
	return score
}
