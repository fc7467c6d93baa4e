package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"jobtrack-backend/internal/application/domain"

	"golang.org/x/time/rate"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second

	blockedNote = "Content blocked by safety filters"
)

// Extractor turns an email into an ExtractionResult. Extract never fails:
// exhausted retries degrade to domain.FallbackExtraction.
type Extractor struct {
	primary   Generator
	secondary Generator
	parser    *ResponseParser
	limiter   *rate.Limiter
	attempts  int
	baseDelay time.Duration
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithSecondary sets the model tried once after the primary is exhausted.
func WithSecondary(g Generator) ExtractorOption {
	return func(e *Extractor) { e.secondary = g }
}

// WithRateLimit bounds model calls per second across all callers.
func WithRateLimit(rps float64) ExtractorOption {
	return func(e *Extractor) {
		if rps > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithBackoff overrides the attempt count and the first retry delay.
func WithBackoff(attempts int, baseDelay time.Duration) ExtractorOption {
	return func(e *Extractor) {
		if attempts > 0 {
			e.attempts = attempts
		}
		if baseDelay >= 0 {
			e.baseDelay = baseDelay
		}
	}
}

func NewExtractor(primary Generator, opts ...ExtractorOption) (*Extractor, error) {
	if primary == nil {
		return nil, errors.New("primary generator is required")
	}
	parser, err := NewResponseParser()
	if err != nil {
		return nil, err
	}
	e := &Extractor{
		primary:   primary,
		parser:    parser,
		attempts:  DefaultAttempts,
		baseDelay: DefaultBaseDelay,
		now:       time.Now,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract classifies one email. The primary model gets up to e.attempts tries
// with doubling delays; a safety block skips straight to the fallback result.
func (e *Extractor) Extract(ctx context.Context, subject, bodyText, bodyHTML string) *domain.ExtractionResult {
	prompt := BuildPrompt(subject, bodyText, bodyHTML, e.now())

	var lastErr error
	for attempt := 0; attempt < e.attempts; attempt++ {
		result, err := e.try(ctx, e.primary, prompt)
		if err == nil {
			return result
		}
		lastErr = err
		log.Printf("[Extractor] attempt %d/%d on %s failed (%s): %v", attempt+1, e.attempts, e.primary.Name(), classify(err), err)

		if isBlockedError(err) {
			return domain.FallbackExtraction(blockedNote)
		}
		if ctx.Err() != nil {
			return domain.FallbackExtraction(fmt.Sprintf("Both attempts failed: %v", ctx.Err()))
		}
		if attempt < e.attempts-1 {
			if err := e.sleep(ctx, e.baseDelay<<attempt); err != nil {
				return domain.FallbackExtraction(fmt.Sprintf("Both attempts failed: %v", err))
			}
		}
	}

	if e.secondary != nil {
		log.Printf("[Extractor] primary exhausted, trying %s", e.secondary.Name())
		result, err := e.try(ctx, e.secondary, prompt)
		if err == nil {
			return result
		}
		log.Printf("[Extractor] secondary %s failed (%s): %v", e.secondary.Name(), classify(err), err)
		if isBlockedError(err) {
			return domain.FallbackExtraction(blockedNote)
		}
		lastErr = err
	}

	return domain.FallbackExtraction(fmt.Sprintf("Both attempts failed: %v", lastErr))
}

func (e *Extractor) try(ctx context.Context, g Generator, prompt string) (*domain.ExtractionResult, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	raw, err := g.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return e.parser.Parse(raw)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
