package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"MarketBriefing/internal/domain"
	"MarketBriefing/internal/ports"
	"MarketBriefing/pkg/textclean"
)

// MaxTokens bounds the text handed to the primary model.
const MaxTokens = 256

// Mode is the process-wide scoring path.
type Mode int32

const (
	ModeUndecided Mode = iota
	ModePrimary
	ModeFallback
)

func (m Mode) String() string {
	switch m {
	case ModePrimary:
		return "primary"
	case ModeFallback:
		return "fallback"
	default:
		return "undecided"
	}
}

var errNoLogits = errors.New("model returned no logits")

// Classifier scores text with the primary model and falls back to the lexicon
// scorer. The load decision is taken once and never revisited.
type Classifier struct {
	model    ports.SentimentModel
	fallback *Lexicon
	logger   *slog.Logger

	once    sync.Once
	mode    atomic.Int32
	loaded  ports.ModelInfo
	loadErr error
}

var _ ports.Classifier = (*Classifier)(nil)

// NewClassifier wires the primary model; a nil model means lexicon-only scoring.
func NewClassifier(model ports.SentimentModel, logger *slog.Logger) *Classifier {
	return &Classifier{
		model:    model,
		fallback: NewLexicon(),
		logger:   logger,
	}
}

// Init loads the primary model at most once and returns the chosen mode.
func (c *Classifier) Init(ctx context.Context) Mode {
	c.once.Do(func() {
		if c.model == nil {
			c.loadErr = errors.New("no sentiment model configured")
			c.mode.Store(int32(ModeFallback))
			c.notice("sentiment model unavailable, using lexicon fallback", "reason", c.loadErr)
			return
		}

		info, err := c.model.Load(ctx)
		if err != nil {
			c.loadErr = err
			c.mode.Store(int32(ModeFallback))
			c.notice("sentiment model unavailable, using lexicon fallback", "reason", err)
			return
		}

		c.loaded = info
		c.mode.Store(int32(ModePrimary))
		c.notice("sentiment model loaded", "model", info.ID, "labels", len(info.Labels))
	})
	return Mode(c.mode.Load())
}

// Mode reports the decided scoring path without triggering a load.
func (c *Classifier) Mode() Mode {
	return Mode(c.mode.Load())
}

// Classify never fails: empty text is Neutral with zero confidence and any
// model error degrades to the lexicon scorer for that call.
func (c *Classifier) Classify(ctx context.Context, text string) domain.SentimentResult {
	text = textclean.Clean(text)
	if text == "" {
		return domain.SentimentResult{Label: domain.Neutral, Confidence: 0}
	}

	if c.Init(ctx) != ModePrimary {
		return c.fallback.Classify(text)
	}

	result, err := c.predict(ctx, text)
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("inference failed, scoring with lexicon", "error", err)
		}
		return c.fallback.Classify(text)
	}
	return result
}

func (c *Classifier) predict(ctx context.Context, text string) (result domain.SentimentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panic: %v", r)
		}
	}()

	logits, err := c.model.Logits(ctx, textclean.Truncate(text, MaxTokens))
	if err != nil {
		return domain.SentimentResult{}, fmt.Errorf("logits: %w", err)
	}
	if len(logits) == 0 {
		return domain.SentimentResult{}, errNoLogits
	}
	for _, v := range logits {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.SentimentResult{}, fmt.Errorf("non-finite logit %v", v)
		}
	}

	probs := Softmax(logits)
	idx := argmax(probs)

	raw, ok := c.loaded.Labels[idx]
	if !ok {
		raw = strconv.Itoa(idx)
	}
	label, ok := NormalizeLabel(raw)
	if !ok {
		return domain.SentimentResult{}, fmt.Errorf("unrecognised label %q", raw)
	}

	return domain.SentimentResult{Label: label, Confidence: probs[idx]}, nil
}

func (c *Classifier) notice(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}
