// Package pipeline orchestrates a claim's path from submission to automated
// verdict: persist, queue for reasoning, validate the reasoner's output, and
// record the result. Reasoning runs in the background so submission latency
// never includes an upstream model call.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"factgate/internal/audit"
	claimModels "factgate/internal/claims/models"
	"factgate/internal/reasoner"
	"factgate/internal/respcache"
	"factgate/internal/verdicts/aivalidate"
	verdictModels "factgate/internal/verdicts/models"
)

const (
	// maxRetries bounds re-attempts after the first reasoner call fails.
	maxRetries = 2
	// evaluationBudget is the wall-clock allowance for one claim's reasoning,
	// including retries.
	evaluationBudget = 90 * time.Second

	defaultConcurrency = 4
)

var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factgate_pipeline_evaluations_total",
		Help: "Completed automated evaluations by outcome.",
	}, []string{"outcome"})
	reasonerAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "factgate_pipeline_reasoner_attempts_total",
		Help: "Individual reasoner calls, including retries.",
	})
)

// ClaimSubmitter is the slice of the claims service the pipeline drives.
type ClaimSubmitter interface {
	Submit(ctx context.Context, claim *claimModels.Claim) (*claimModels.Claim, error)
}

// VerdictRecorder persists a validated automated verdict and advances the
// claim lifecycle.
type VerdictRecorder interface {
	RecordAutomated(ctx context.Context, verdict *verdictModels.AutomatedVerdict) error
}

type Pipeline struct {
	claims    ClaimSubmitter
	verdicts  VerdictRecorder
	validator *aivalidate.Validator
	reasoner  reasoner.Client
	cache     *respcache.Service
	audit     *audit.Service
	logger    *slog.Logger
	tracer    trace.Tracer

	group    *errgroup.Group
	groupCtx context.Context
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithCache enables proactive invalidation of cached claim reads once an
// automated verdict lands.
func WithCache(cache *respcache.Service) Option {
	return func(p *Pipeline) {
		p.cache = cache
	}
}

func WithAudit(a *audit.Service) Option {
	return func(p *Pipeline) {
		p.audit = a
	}
}

// New builds the pipeline. ctx bounds the background evaluation workers;
// cancel it and call Wait during shutdown.
func New(ctx context.Context, claims ClaimSubmitter, verdicts VerdictRecorder, validator *aivalidate.Validator, rc reasoner.Client, opts ...Option) (*Pipeline, error) {
	if claims == nil {
		return nil, fmt.Errorf("claim submitter is required")
	}
	if verdicts == nil {
		return nil, fmt.Errorf("verdict recorder is required")
	}
	if validator == nil {
		return nil, fmt.Errorf("verdict validator is required")
	}
	if rc == nil {
		return nil, fmt.Errorf("reasoner client is required")
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(defaultConcurrency)

	p := &Pipeline{
		claims:    claims,
		verdicts:  verdicts,
		validator: validator,
		reasoner:  rc,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:    otel.Tracer("factgate/pipeline"),
		group:     group,
		groupCtx:  groupCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Submit persists a claim and schedules its automated evaluation. The caller
// gets the pending_ai claim back immediately.
func (p *Pipeline) Submit(ctx context.Context, claim *claimModels.Claim, device string) (*claimModels.Claim, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.submit",
		trace.WithAttributes(attribute.String("claim.category", claim.Category)))
	defer span.End()

	saved, err := p.claims.Submit(ctx, claim)
	if err != nil {
		return nil, err
	}

	if p.audit != nil {
		p.audit.Emit(ctx, audit.Event{
			Actor:    saved.SubmitterID,
			Action:   audit.ActionClaimSubmitted,
			Resource: saved.ID.String(),
			Device:   device,
		})
	}

	p.Schedule(saved)
	return saved, nil
}

// Schedule queues a claim for background evaluation without re-persisting it.
// Used for submissions and for re-driving claims stuck in pending_ai.
func (p *Pipeline) Schedule(claim *claimModels.Claim) {
	p.group.Go(func() error {
		p.evaluate(p.groupCtx, claim)
		return nil
	})
}

// Wait blocks until all in-flight evaluations finish. Call after cancelling
// the pipeline context during shutdown.
func (p *Pipeline) Wait() error {
	return p.group.Wait()
}

// evaluate runs the reasoner with bounded retries, validates the raw output,
// and records either the validated verdict or the safety fallback. A timeout
// is a soft failure: the claim stays pending_ai for a later sweep.
func (p *Pipeline) evaluate(ctx context.Context, claim *claimModels.Claim) {
	ctx, cancel := context.WithTimeout(ctx, evaluationBudget)
	defer cancel()
	ctx, span := p.tracer.Start(ctx, "pipeline.evaluate",
		trace.WithAttributes(attribute.String("claim.id", claim.ID.String())))
	defer span.End()

	raw, err := p.callReasoner(ctx, claim)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			evaluationsTotal.WithLabelValues("timeout").Inc()
			p.logger.WarnContext(ctx, "reasoner evaluation timed out, leaving claim pending",
				"claim_id", claim.ID, "error", err.Error())
			return
		}
		evaluationsTotal.WithLabelValues("upstream_failed").Inc()
		p.logger.ErrorContext(ctx, "reasoner unavailable, recording fallback verdict",
			"claim_id", claim.ID, "error", err.Error())
		p.record(ctx, claim, p.validator.Fallback(claim.ID), true)
		return
	}

	verdict, ok := p.validator.ValidateBytes(claim.ID, raw)
	if !ok {
		evaluationsTotal.WithLabelValues("fallback").Inc()
		p.record(ctx, claim, verdict, true)
		return
	}
	evaluationsTotal.WithLabelValues("validated").Inc()
	p.record(ctx, claim, verdict, false)
}

func (p *Pipeline) callReasoner(ctx context.Context, claim *claimModels.Claim) ([]byte, error) {
	_, span := p.tracer.Start(ctx, "reasoner.evaluate")
	defer span.End()

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reasonerAttempts.Inc()
		raw, err := p.reasoner.Evaluate(ctx, claim)
		if err == nil {
			span.SetAttributes(attribute.Int("attempts", attempt+1))
			return raw, nil
		}
		lastErr = err
		p.logger.WarnContext(ctx, "reasoner call failed",
			"claim_id", claim.ID, "attempt", attempt+1, "error", err.Error())
	}
	return nil, lastErr
}

func (p *Pipeline) record(ctx context.Context, claim *claimModels.Claim, verdict *verdictModels.AutomatedVerdict, fallback bool) {
	ctx, span := p.tracer.Start(ctx, "verdict.record",
		trace.WithAttributes(attribute.Bool("fallback", fallback)))
	defer span.End()

	if err := p.verdicts.RecordAutomated(ctx, verdict); err != nil {
		p.logger.ErrorContext(ctx, "failed to record automated verdict",
			"claim_id", claim.ID, "error", err.Error())
		return
	}

	if p.audit != nil {
		action := audit.ActionVerdictRecorded
		if fallback {
			action = audit.ActionVerdictFallback
		}
		p.audit.Emit(ctx, audit.Event{
			Actor:    "reasoner/" + p.reasoner.ModelVersion(),
			Action:   action,
			Resource: claim.ID.String(),
			Detail:   string(verdict.Label),
		})
	}

	if p.cache != nil {
		// The claim's cached reads are stale the moment a verdict lands.
		pattern := "rc:claims/" + claim.ID.String() + "*"
		if err := p.cache.Invalidate(ctx, pattern); err != nil {
			p.logger.WarnContext(ctx, "failed to invalidate cached claim reads",
				"claim_id", claim.ID, "error", err.Error())
		}
	}
}
