package sentiment

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"MarketBriefing/internal/domain"
	"MarketBriefing/internal/ports"
)

type fakeModel struct {
	mu        sync.Mutex
	loadErr   error
	labels    map[int]string
	logits    []float64
	inferErr  error
	loads     int
	calls     int
	lastInput string
}

func (f *fakeModel) Load(context.Context) (ports.ModelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return ports.ModelInfo{}, f.loadErr
	}
	return ports.ModelInfo{ID: "test/finbert", Labels: f.labels}, nil
}

func (f *fakeModel) Logits(_ context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastInput = text
	if f.inferErr != nil {
		return nil, f.inferErr
	}
	return f.logits, nil
}

func finbertLabels() map[int]string {
	return map[int]string{0: "positive", 1: "negative", 2: "neutral"}
}

func TestClassifyEmptyTextSkipsModel(t *testing.T) {
	t.Parallel()

	model := &fakeModel{labels: finbertLabels(), logits: []float64{3, 0, 0}}
	c := NewClassifier(model, nil)

	for _, in := range []string{"", "   ", "\n\t"} {
		got := c.Classify(context.Background(), in)
		if got != (domain.SentimentResult{Label: domain.Neutral, Confidence: 0}) {
			t.Fatalf("Classify(%q) = %+v", in, got)
		}
	}
	if model.loads != 0 || model.calls != 0 {
		t.Fatalf("model touched for empty text: loads=%d calls=%d", model.loads, model.calls)
	}
}

func TestClassifyPrimary(t *testing.T) {
	t.Parallel()

	model := &fakeModel{labels: finbertLabels(), logits: []float64{0.5, 2.5, 0.1}}
	c := NewClassifier(model, nil)

	got := c.Classify(context.Background(), "Oil  slumps on   demand fears")
	if got.Label != domain.Negative {
		t.Fatalf("label = %s, want Negative", got.Label)
	}

	want := Softmax(model.logits)[1]
	if math.Abs(got.Confidence-want) > 1e-12 {
		t.Fatalf("confidence = %v, want %v", got.Confidence, want)
	}
	if model.lastInput != "Oil slumps on demand fears" {
		t.Fatalf("model saw uncleaned text %q", model.lastInput)
	}
	if c.Mode() != ModePrimary {
		t.Fatalf("mode = %s", c.Mode())
	}
}

func TestClassifyTruncatesInput(t *testing.T) {
	t.Parallel()

	model := &fakeModel{labels: finbertLabels(), logits: []float64{1, 0, 0}}
	c := NewClassifier(model, nil)

	long := strings.Repeat("gold ", MaxTokens+50)
	c.Classify(context.Background(), long)

	if n := len(strings.Fields(model.lastInput)); n != MaxTokens {
		t.Fatalf("model saw %d tokens, want %d", n, MaxTokens)
	}
}

func TestLoadFailureIsSticky(t *testing.T) {
	t.Parallel()

	model := &fakeModel{loadErr: errors.New("offline")}
	c := NewClassifier(model, nil)
	lex := NewLexicon()

	text := "Gold rallies to record high"
	for i := 0; i < 3; i++ {
		got := c.Classify(context.Background(), text)
		if got != lex.Classify(text) {
			t.Fatalf("call %d: got %+v, want lexicon result", i, got)
		}
	}
	if model.loads != 1 {
		t.Fatalf("load attempted %d times, want 1", model.loads)
	}
	if model.calls != 0 {
		t.Fatalf("inference attempted after load failure")
	}
	if c.Mode() != ModeFallback {
		t.Fatalf("mode = %s", c.Mode())
	}
}

func TestInferenceFailureFallsBackPerCall(t *testing.T) {
	t.Parallel()

	model := &fakeModel{labels: finbertLabels(), inferErr: errors.New("boom")}
	c := NewClassifier(model, nil)

	text := "Bitcoin crashes as exchange is hacked"
	got := c.Classify(context.Background(), text)
	if got != NewLexicon().Classify(text) {
		t.Fatalf("got %+v, want lexicon result", got)
	}
	if c.Mode() != ModePrimary {
		t.Fatalf("inference failure must not flip the process mode")
	}

	model.mu.Lock()
	model.inferErr = nil
	model.logits = []float64{4, 0, 0}
	model.mu.Unlock()

	if got := c.Classify(context.Background(), text); got.Label != domain.Positive {
		t.Fatalf("primary path not retried on next call: %+v", got)
	}
}

func TestUnknownLabelFallsBack(t *testing.T) {
	t.Parallel()

	model := &fakeModel{labels: map[int]string{0: "LABEL_0", 1: "LABEL_1"}, logits: []float64{1, 0}}
	c := NewClassifier(model, nil)

	text := "Markets are steady"
	if got := c.Classify(context.Background(), text); got != NewLexicon().Classify(text) {
		t.Fatalf("got %+v", got)
	}
}

func TestNonFiniteLogitsFallBack(t *testing.T) {
	t.Parallel()

	model := &fakeModel{labels: finbertLabels(), logits: []float64{math.NaN(), 0, 0}}
	c := NewClassifier(model, nil)

	text := "Crude inventories build"
	if got := c.Classify(context.Background(), text); got != NewLexicon().Classify(text) {
		t.Fatalf("got %+v", got)
	}
}

func TestNilModelUsesFallback(t *testing.T) {
	t.Parallel()

	c := NewClassifier(nil, nil)
	if mode := c.Init(context.Background()); mode != ModeFallback {
		t.Fatalf("mode = %s", mode)
	}
}

func TestFallbackDeterminism(t *testing.T) {
	t.Parallel()

	c := NewClassifier(nil, nil)
	text := "Nvidia shares surge after strong earnings beat"
	first := c.Classify(context.Background(), text)
	for i := 0; i < 10; i++ {
		if got := c.Classify(context.Background(), text); got != first {
			t.Fatalf("call %d: %+v != %+v", i, got, first)
		}
	}
}

func TestConcurrentInitLoadsOnce(t *testing.T) {
	t.Parallel()

	model := &fakeModel{labels: finbertLabels(), logits: []float64{0, 0, 1}}
	c := NewClassifier(model, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Classify(context.Background(), "inflation data due")
		}()
	}
	wg.Wait()

	if model.loads != 1 {
		t.Fatalf("loads = %d, want 1", model.loads)
	}
}
