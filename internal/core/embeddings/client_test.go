package embeddings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var errProviderBroken = errors.New("embedding backend unreachable")

type scriptedProvider struct {
	calls int
	err   error
	dims  int
}

func (p *scriptedProvider) Name() ProviderName { return "scripted" }

func (p *scriptedProvider) Model() string { return "scripted-1" }

func (p *scriptedProvider) GetEmbedding(_ context.Context, _ string) (EmbeddingResult, error) {
	p.calls++

	if p.err != nil {
		return EmbeddingResult{}, p.err
	}

	return EmbeddingResult{
		Vector:     make([]float32, p.dims),
		Dimensions: p.dims,
		Provider:   p.Name(),
	}, nil
}

func newTestClient(p Provider, target, threshold int, resetAfter time.Duration) *client {
	logger := zerolog.Nop()

	return newClient(p, Config{
		TargetDimensions: target,
		CircuitBreakerConfig: CircuitBreakerConfig{
			Threshold:  threshold,
			ResetAfter: resetAfter,
		},
	}, &logger)
}

func TestClient_CircuitOpensAndFailsFast(t *testing.T) {
	provider := &scriptedProvider{err: errProviderBroken}
	c := newTestClient(provider, 4, 2, time.Hour)

	for i := 0; i < 2; i++ {
		if _, err := c.GetEmbedding(context.Background(), "hello"); !errors.Is(err, errProviderBroken) {
			t.Fatalf("GetEmbedding() error = %v, want provider error", err)
		}
	}

	_, err := c.GetEmbedding(context.Background(), "hello")
	if !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Fatalf("GetEmbedding() error = %v, want ErrCircuitBreakerOpen", err)
	}

	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2 (open circuit must not reach the provider)", provider.calls)
	}
}

func TestClient_CircuitClosesAfterResetWindow(t *testing.T) {
	provider := &scriptedProvider{err: errProviderBroken}
	c := newTestClient(provider, 4, 1, 10*time.Millisecond)

	if _, err := c.GetEmbedding(context.Background(), "hello"); err == nil {
		t.Fatal("GetEmbedding() = nil error, want provider error")
	}

	time.Sleep(20 * time.Millisecond)

	provider.err = nil
	provider.dims = 4

	if _, err := c.GetEmbedding(context.Background(), "hello"); err != nil {
		t.Fatalf("GetEmbedding() after reset window = %v", err)
	}
}

func TestClient_PadsToTargetDimensions(t *testing.T) {
	c := newTestClient(NewMockProvider(8), 16, 3, time.Minute)

	vec, err := c.GetEmbedding(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("GetEmbedding() error = %v", err)
	}

	if len(vec) != 16 {
		t.Fatalf("GetEmbedding() len = %d, want 16", len(vec))
	}

	for i := 8; i < 16; i++ {
		if vec[i] != 0 {
			t.Errorf("vec[%d] = %f, want zero padding", i, vec[i])
		}
	}
}

func TestCircuitBreaker_SuccessBreaksStreak(t *testing.T) {
	logger := zerolog.Nop()
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 3, ResetAfter: time.Minute}, &logger)

	cb.RecordFailure(ProviderOpenAI)
	cb.RecordFailure(ProviderOpenAI)
	cb.RecordSuccess()
	cb.RecordFailure(ProviderOpenAI)
	cb.RecordFailure(ProviderOpenAI)

	if err := cb.CheckCircuit(); err != nil {
		t.Errorf("CheckCircuit() = %v although the failure streak was broken", err)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	logger := zerolog.Nop()
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Hour}, &logger)

	cb.RecordFailure(ProviderOpenAI)

	if err := cb.CheckCircuit(); err == nil {
		t.Fatal("CheckCircuit() = nil after failure with threshold 1")
	}

	cb.Reset()

	if err := cb.CheckCircuit(); err != nil {
		t.Errorf("CheckCircuit() = %v after explicit Reset()", err)
	}
}

func TestPadToTargetDimensions(t *testing.T) {
	tests := []struct {
		name   string
		vec    []float32
		target int
		want   int
	}{
		{"exact size", []float32{1, 2, 3}, 3, 3},
		{"pads short vector", []float32{1, 2}, 4, 4},
		{"truncates long vector", []float32{1, 2, 3, 4, 5}, 3, 3},
		{"empty vector", nil, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PadToTargetDimensions(tt.vec, tt.target)

			if len(got) != tt.want {
				t.Fatalf("PadToTargetDimensions() len = %d, want %d", len(got), tt.want)
			}

			for i := 0; i < len(tt.vec) && i < tt.target; i++ {
				if got[i] != tt.vec[i] {
					t.Errorf("PadToTargetDimensions()[%d] = %f, want %f", i, got[i], tt.vec[i])
				}
			}
		})
	}
}

func TestMockProvider_Deterministic(t *testing.T) {
	p := NewMockProvider(8)

	first, err := p.GetEmbedding(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("GetEmbedding() error = %v", err)
	}

	second, err := p.GetEmbedding(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("GetEmbedding() error = %v", err)
	}

	if len(first.Vector) != 8 || first.Dimensions != 8 {
		t.Fatalf("GetEmbedding() len = %d, dims = %d, want 8", len(first.Vector), first.Dimensions)
	}

	for i := range first.Vector {
		if first.Vector[i] != second.Vector[i] {
			t.Fatal("mock embeddings not deterministic for the same input")
		}
	}

	other, err := p.GetEmbedding(context.Background(), "a different text")
	if err != nil {
		t.Fatalf("GetEmbedding() error = %v", err)
	}

	same := true

	for i := range first.Vector {
		if first.Vector[i] != other.Vector[i] {
			same = false
			break
		}
	}

	if same {
		t.Error("mock embeddings identical for different inputs")
	}
}
