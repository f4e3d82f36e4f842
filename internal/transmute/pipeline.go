// internal/transmute/pipeline.go
package transmute

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vibe-transmuter/internal/artifacts"
	"vibe-transmuter/internal/common/logger"
	"vibe-transmuter/internal/common/metrics"
	"vibe-transmuter/internal/spec"
)

const tracerName = "vibe-transmuter/transmute"

// MaxAttempts bounds generator calls per Transmute: one generation plus one
// repair.
const MaxAttempts = 2

// Result is the terminal output of one transmutation.
type Result struct {
	Spec         spec.CanonicalSpec `json:"spec"`
	Artifacts    artifacts.Bundle   `json:"artifacts"`
	Attempts     int                `json:"attempts"`
	Repaired     bool               `json:"repaired"`
	RawText      string             `json:"rawText"`
	SchemaIssues []string           `json:"schemaIssues"`
}

type Option func(*Transmuter)

func WithTracer(tracer trace.Tracer) Option {
	return func(t *Transmuter) {
		t.tracer = tracer
	}
}

// Transmuter runs generate → parse → [repair → parse] → normalize → render.
// It holds no per-request state and is safe for concurrent use.
type Transmuter struct {
	generator Generator
	logger    logger.Logger
	tracer    trace.Tracer
}

func NewTransmuter(generator Generator, log logger.Logger, opts ...Option) *Transmuter {
	t := &Transmuter{
		generator: generator,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithModel returns a Transmuter whose generator targets model, when the
// generator supports switching.
func (t *Transmuter) WithModel(model string) *Transmuter {
	sel, ok := t.generator.(ModelSelector)
	if !ok || model == "" {
		return t
	}
	clone := *t
	clone.generator = sel.ForModel(model)
	return &clone
}

// Transmute turns a vibe into a normalized spec and its artifacts. Generator
// errors and a second unparsable response both yield ErrTransmutationFailed
// and no result.
func (t *Transmuter) Transmute(ctx context.Context, vibe string) (*Result, error) {
	ctx, span := t.tracer.Start(ctx, "transmute", trace.WithAttributes(
		attribute.Int("vibe.length", len(vibe)),
	))
	defer span.End()

	raw, err := t.generate(ctx, "generate", BuildGenerationPrompt(vibe))
	attempts := 1
	if err != nil {
		return nil, t.fail(span, attempts, err)
	}

	parsed, parseErr := ParseRaw(raw)
	repaired := false
	if parseErr != nil {
		t.logger.Warn("model returned invalid JSON, requesting repair", map[string]interface{}{
			"error":     parseErr.Error(),
			"rawLength": len(raw),
		})

		raw, err = t.generate(ctx, "repair", BuildRepairPrompt(raw))
		attempts++
		if err != nil {
			return nil, t.fail(span, attempts, err)
		}

		parsed, parseErr = ParseRaw(raw)
		if parseErr != nil {
			return nil, t.fail(span, attempts, parseErr)
		}
		repaired = true
	}

	result := Render(parsed, vibe)
	result.Attempts = attempts
	result.Repaired = repaired
	result.RawText = raw

	metrics.Transmutations.WithLabelValues("success").Inc()
	metrics.CompletenessScore.Observe(float64(result.Spec.Completeness.Score))

	span.SetAttributes(
		attribute.Int("transmute.attempts", attempts),
		attribute.Bool("transmute.repaired", repaired),
		attribute.Int("spec.completeness", result.Spec.Completeness.Score),
		attribute.Int("spec.schema_issues", len(result.SchemaIssues)),
	)

	t.logger.Info("transmutation completed", map[string]interface{}{
		"attempts":     attempts,
		"repaired":     repaired,
		"completeness": result.Spec.Completeness.Score,
		"schemaIssues": len(result.SchemaIssues),
	})
	return result, nil
}

// Render normalizes an already parsed payload and derives its artifacts.
// Schema drift of the payload is reported as data.
func Render(parsed interface{}, vibe string) *Result {
	issues, err := spec.Validate(parsed)
	if err != nil {
		issues = []string{err.Error()}
	}

	s := spec.Normalize(parsed, spec.WithVibe(vibe))
	return &Result{
		Spec:         s,
		Artifacts:    artifacts.Build(s),
		SchemaIssues: issues,
	}
}

func (t *Transmuter) generate(ctx context.Context, kind, prompt string) (string, error) {
	ctx, span := t.tracer.Start(ctx, "generate."+kind)
	defer span.End()

	metrics.GenerationCalls.WithLabelValues(kind).Inc()

	text, err := t.generator.Generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return "", err
	}
	span.SetAttributes(attribute.Int("response.length", len(text)))
	return text, nil
}

func (t *Transmuter) fail(span trace.Span, attempts int, cause error) error {
	metrics.Transmutations.WithLabelValues("failed").Inc()
	span.RecordError(cause)
	span.SetStatus(codes.Error, "transmutation failed")
	span.SetAttributes(attribute.Int("transmute.attempts", attempts))

	t.logger.Error("transmutation failed", map[string]interface{}{
		"attempts": attempts,
		"error":    cause.Error(),
	})
	return fmt.Errorf("%w: %v", ErrTransmutationFailed, cause)
}
