package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/ai"
	"github.com/studyforge/studyforge/internal/chunker"
	"github.com/studyforge/studyforge/internal/gate"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
	"github.com/studyforge/studyforge/internal/usage"
)

// partSeparator joins chunk results in checkpoints and progress snapshots.
const partSeparator = "\n\n"

// digestChars is how much of the accumulated output tail is fed back into
// the next chunk prompt for continuity.
const digestChars = 600

// Sink durably stores checkpoints and final artifacts. Both writes are
// idempotent upserts keyed by (document, mode); a later write wins.
type Sink interface {
	Checkpoint(ctx context.Context, docID string, mode Mode, text string) error
	CommitFinal(ctx context.Context, docID string, mode Mode, text string) error
}

type Config struct {
	TargetChunkSize int
	CheckpointEvery int
	DelayMin        time.Duration
	DelayMax        time.Duration
	MinInputChars   int
}

type Request struct {
	DocumentID string
	UserID     string
	Mode       Mode
	Text       string
	// TargetChunkSize overrides the engine default when > 0.
	TargetChunkSize int
	// MaxChunks caps how many chunks are mapped; quiz and flashcard modes
	// use it to bound total generated items. 0 means all.
	MaxChunks int
}

// Engine drives one document through chunk → map → reduce → save. Each run
// is sequential (one in-flight AI call per run); many runs across users
// proceed concurrently, all sharing the concurrency gate.
type Engine struct {
	gen      ai.IGenerator
	gate     *gate.Gate
	ledger   *usage.Ledger
	sink     Sink
	progress *Publisher
	cfg      Config

	mu     sync.Mutex
	tokens map[string]uint64
}

func New(gen ai.IGenerator, g *gate.Gate, ledger *usage.Ledger, sink Sink, progress *Publisher, cfg Config) *Engine {
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 6
	}
	if cfg.TargetChunkSize <= 0 {
		cfg.TargetChunkSize = 90000
	}
	if cfg.DelayMin <= 0 {
		cfg.DelayMin = 400 * time.Millisecond
	}
	if cfg.DelayMax < cfg.DelayMin {
		cfg.DelayMax = cfg.DelayMin
	}
	return &Engine{
		gen:      gen,
		gate:     g,
		ledger:   ledger,
		sink:     sink,
		progress: progress,
		cfg:      cfg,
		tokens:   make(map[string]uint64),
	}
}

func (e *Engine) Progress() *Publisher {
	return e.progress
}

// Run executes one generation run to completion. A newer Run for the same
// (document, mode) supersedes this one: the superseded run stops writing
// and returns ErrSuperseded.
func (e *Engine) Run(ctx context.Context, req Request) (string, error) {
	key := runKey(req.DocumentID, req.Mode)
	token := e.begin(key)
	logger := logutil.GetLogger(ctx).With(
		zap.String("doc_id", req.DocumentID),
		zap.String("user_id", req.UserID),
		zap.String("mode", string(req.Mode)),
		zap.Uint64("run", token),
	)

	ps, err := ForMode(req.Mode)
	if err != nil {
		return "", e.fail(req, key, token, logger, appErr.ErrInvalid)
	}

	e.publish(key, token, req, PhaseCheckingCredits, 2, "")
	balance, err := e.ledger.CheckBalance(ctx, req.UserID, string(req.Mode))
	if err != nil {
		return "", e.fail(req, key, token, logger, err)
	}
	if balance <= 0 {
		return "", e.fail(req, key, token, logger, appErr.ErrQuotaExhausted)
	}

	text := strings.TrimSpace(req.Text)
	if e.cfg.MinInputChars > 0 && utf8.RuneCountInString(text) < e.cfg.MinInputChars {
		return "", e.fail(req, key, token, logger, appErr.ErrEmptyInput)
	}
	e.publish(key, token, req, PhaseChunking, 6, "")
	target := req.TargetChunkSize
	if target <= 0 {
		target = e.cfg.TargetChunkSize
	}
	chunks := chunker.Split(text, target)
	if len(chunks) == 0 {
		return "", e.fail(req, key, token, logger, appErr.ErrEmptyInput)
	}
	if req.MaxChunks > 0 && len(chunks) > req.MaxChunks {
		logger.Info("early stop", zap.Int("chunks", len(chunks)), zap.Int("max_chunks", req.MaxChunks))
		chunks = chunks[:req.MaxChunks]
	}
	logger.Info("mapping started", zap.Int("chunks", len(chunks)), zap.Int("target_size", target))

	parts, err := e.mapChunks(ctx, req, ps, key, token, chunks, logger)
	if err != nil {
		if errors.Is(err, appErr.ErrSuperseded) {
			logger.Info("run superseded during mapping")
			return "", err
		}
		return "", e.fail(req, key, token, logger, err)
	}
	if len(parts) == 0 {
		return "", e.fail(req, key, token, logger, &ai.InferenceError{Provider: "engine", Message: "all chunks failed"})
	}

	final, err := e.reduce(ctx, req, ps, key, token, parts, logger)
	if err != nil {
		if errors.Is(err, appErr.ErrSuperseded) {
			logger.Info("run superseded before reduce")
			return "", err
		}
		// The last mapping checkpoint stays visible as a degraded result.
		return "", e.fail(req, key, token, logger, err)
	}

	if post, perr := ps.PostProcess(ctx, final); perr != nil {
		logger.Warn("post-process failed, keeping raw output", zap.Error(perr))
	} else {
		final = post
	}

	if e.superseded(key, token) {
		logger.Info("run superseded before save")
		return "", appErr.ErrSuperseded
	}
	e.publish(key, token, req, PhaseSaving, 95, final)
	if err := e.sink.CommitFinal(ctx, req.DocumentID, req.Mode, final); err != nil {
		return "", e.fail(req, key, token, logger, fmt.Errorf("%w: save artifact: %v", appErr.ErrInfra, err))
	}

	// Debit exactly once, and only after the artifact is durable. A failed
	// run never consumes a credit.
	if ok, derr := e.ledger.Decrement(ctx, req.UserID, string(req.Mode)); derr != nil {
		logger.Error("credit decrement failed", zap.Error(derr))
	} else if !ok {
		logger.Warn("balance already exhausted at debit time")
	}

	e.publish(key, token, req, PhaseDone, 100, final)
	logger.Info("run finished", zap.Int("artifact_chars", len(final)))
	return final, nil
}

func (e *Engine) mapChunks(ctx context.Context, req Request, ps PromptSet, key string, token uint64, chunks []string, logger *zap.Logger) ([]string, error) {
	total := len(chunks)
	var parts []string
	sinceCheckpoint := 0
	for i, chunkText := range chunks {
		if e.superseded(key, token) {
			return nil, appErr.ErrSuperseded
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prompt := ps.ChunkPrompt(ChunkContext{
			Text:   chunkText,
			Index:  i,
			Total:  total,
			First:  i == 0,
			Last:   i == total-1,
			Digest: tail(strings.Join(parts, partSeparator), digestChars),
		})

		result, err := e.generate(ctx, key, token, req, PhaseMapping, prompt, parts, 10+75*i/total)
		if err != nil {
			if isChunkSkippable(err) {
				logger.Warn("chunk failed, skipping", zap.Int("chunk", i), zap.Error(err))
				continue
			}
			return nil, err
		}
		if strings.TrimSpace(result) == "" {
			// Provider returned a complete but empty stream.
			logger.Warn("chunk produced empty result, skipping", zap.Int("chunk", i))
			continue
		}

		parts = append(parts, result)
		sinceCheckpoint++
		e.publish(key, token, req, PhaseMapping, 10+75*(i+1)/total, strings.Join(parts, partSeparator))

		if sinceCheckpoint >= e.cfg.CheckpointEvery {
			if err := e.sink.Checkpoint(ctx, req.DocumentID, req.Mode, strings.Join(parts, partSeparator)); err != nil {
				logger.Error("checkpoint failed", zap.Int("chunk", i), zap.Error(err))
			} else {
				logger.Info("checkpoint saved", zap.Int("parts", len(parts)))
				sinceCheckpoint = 0
			}
		}

		if i < total-1 {
			if err := e.pause(ctx); err != nil {
				return nil, err
			}
		}
	}
	return parts, nil
}

func (e *Engine) reduce(ctx context.Context, req Request, ps PromptSet, key string, token uint64, parts []string, logger *zap.Logger) (string, error) {
	// A single mapped result needs no combine call: one more round trip
	// would only let the provider paraphrase detail away.
	if len(parts) == 1 {
		return parts[0], nil
	}
	if e.superseded(key, token) {
		return "", appErr.ErrSuperseded
	}
	logger.Info("reducing", zap.Int("parts", len(parts)))
	e.publish(key, token, req, PhaseReducing, 88, strings.Join(parts, partSeparator))

	final, err := e.generate(ctx, key, token, req, PhaseReducing, ps.CombinePrompt(parts), nil, 88)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(final) == "" {
		return "", &ai.InferenceError{Provider: "engine", Message: "empty reduce result"}
	}
	return final, nil
}

// generate performs one gated AI call, republishing the growing stream as
// deltas arrive.
func (e *Engine) generate(ctx context.Context, key string, token uint64, req Request, phase Phase, prompt string, prior []string, percent int) (string, error) {
	prefix := strings.Join(prior, partSeparator)
	if prefix != "" {
		prefix += partSeparator
	}
	var result string
	err := e.gate.Do(ctx, func(ctx context.Context) error {
		var sb strings.Builder
		out, genErr := e.gen.GenerateStream(ctx, prompt, func(delta string) {
			sb.WriteString(delta)
			e.publish(key, token, req, phase, percent, prefix+sb.String())
		})
		result = out
		return genErr
	})
	return result, err
}

// pause applies the randomized inter-chunk delay, smoothing request load
// instead of bursting it.
func (e *Engine) pause(ctx context.Context) error {
	delay := e.cfg.DelayMin
	if spread := e.cfg.DelayMax - e.cfg.DelayMin; spread > 0 {
		delay += time.Duration(rand.Int64N(int64(spread)))
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (e *Engine) fail(req Request, key string, token uint64, logger *zap.Logger, err error) error {
	logger.Error("run failed", zap.Error(err))
	if e.progress != nil && !e.superseded(key, token) {
		e.progress.Publish(req.DocumentID, req.Mode, Snapshot{
			Phase:  PhaseFailed,
			Reason: FailReason(err),
		})
	}
	return err
}

func (e *Engine) publish(key string, token uint64, req Request, phase Phase, percent int, partial string) {
	if e.progress == nil {
		return
	}
	// A superseded run must not clobber its successor's progress.
	if e.superseded(key, token) {
		return
	}
	e.progress.Publish(req.DocumentID, req.Mode, Snapshot{
		Phase:   phase,
		Percent: percent,
		Partial: partial,
	})
}

// FailReason classifies an error for the caller: the UI offers different
// remedies for "no credits" vs "AI provider error" vs "try again".
func FailReason(err error) string {
	var infErr *ai.InferenceError
	switch {
	case errors.Is(err, appErr.ErrQuotaExhausted):
		return "quota_exhausted"
	case errors.Is(err, appErr.ErrEmptyInput):
		return "empty_document"
	case errors.Is(err, appErr.ErrInfra):
		return "infrastructure"
	case errors.Is(err, ai.ErrUnavailable):
		return "ai_unavailable"
	case errors.As(err, &infErr):
		return "ai_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

// isChunkSkippable: chunk-level inference failures are recovered locally by
// skipping the chunk; anything else (store down, ctx canceled) aborts the
// run.
func isChunkSkippable(err error) bool {
	var infErr *ai.InferenceError
	return errors.As(err, &infErr) || errors.Is(err, ai.ErrUnavailable)
}

func (e *Engine) begin(key string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tokens[key]++
	return e.tokens[key]
}

func (e *Engine) superseded(key string, token uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tokens[key] != token
}

func runKey(docID string, mode Mode) string {
	return docID + "|" + string(mode)
}

func tail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
