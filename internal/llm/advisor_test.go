package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

// MockProvider returns scripted replies in order
type MockProvider struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	prompts []string
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) IsAvailable(ctx context.Context) bool { return true }

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := len(m.prompts)
	m.prompts = append(m.prompts, req.Prompt)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.replies) {
		return &CompletionResponse{Text: m.replies[i]}, nil
	}
	return &CompletionResponse{Text: m.replies[len(m.replies)-1]}, nil
}

func (m *MockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func TestAdvisor_Disabled(t *testing.T) {
	var nilAdvisor *Advisor
	if nilAdvisor.IsEnabled() {
		t.Error("nil advisor should be disabled")
	}

	advisor, err := NewAdvisor(Config{}, nil)
	if err != nil {
		t.Fatalf("NewAdvisor failed: %v", err)
	}
	if advisor.IsEnabled() {
		t.Error("advisor without provider should be disabled")
	}
	if advisor.ProviderName() != "" {
		t.Errorf("expected empty provider name, got %q", advisor.ProviderName())
	}

	_, err = advisor.AskJSON(context.Background(), "q", "ctx")
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
}

func TestAdvisor_AskJSON_Object(t *testing.T) {
	mock := &MockProvider{replies: []string{"```json\n{\"manual_review\": true, \"notes\": \"check captions\"}\n```"}}
	advisor := NewAdvisorWithProvider(mock, Config{MaxRetries: 2}, nil)

	got, err := advisor.AskJSON(context.Background(), "Are captions present?", "<video></video>")
	if err != nil {
		t.Fatalf("AskJSON failed: %v", err)
	}
	if got["manual_review"] != true {
		t.Errorf("expected manual_review=true, got %v", got["manual_review"])
	}
	if mock.calls() != 1 {
		t.Errorf("expected 1 call, got %d", mock.calls())
	}
	if !strings.Contains(mock.prompts[0], "CONTEXT:\n<video></video>") {
		t.Errorf("context block missing from prompt: %q", mock.prompts[0])
	}
}

func TestAdvisor_AskJSON_CoercesList(t *testing.T) {
	mock := &MockProvider{replies: []string{`[{"selector": "img"}]`}}
	advisor := NewAdvisorWithProvider(mock, Config{}, nil)

	got, err := advisor.AskJSON(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("AskJSON failed: %v", err)
	}
	data, ok := got["data"].([]any)
	if !ok || len(data) != 1 {
		t.Errorf("expected wrapped list, got %v", got)
	}
}

func TestAdvisor_AskJSON_RetriesMalformed(t *testing.T) {
	mock := &MockProvider{replies: []string{"I think it is fine", `{"ok": true}`}}
	advisor := NewAdvisorWithProvider(mock, Config{MaxRetries: 2}, nil)

	got, err := advisor.AskJSON(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("AskJSON failed: %v", err)
	}
	if got["ok"] != true {
		t.Errorf("unexpected reply %v", got)
	}
	if mock.calls() != 2 {
		t.Errorf("expected 2 calls, got %d", mock.calls())
	}
	if !strings.HasSuffix(mock.prompts[1], retryInstruction) {
		t.Error("retry prompt should carry the retry instruction")
	}
}

func TestAdvisor_AskJSON_MalformedAfterRetries(t *testing.T) {
	mock := &MockProvider{replies: []string{"nope"}}
	advisor := NewAdvisorWithProvider(mock, Config{MaxRetries: 1}, nil)

	_, err := advisor.AskJSON(context.Background(), "q", "")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if mock.calls() != 2 {
		t.Errorf("expected 2 calls, got %d", mock.calls())
	}
}

func TestAdvisor_AskJSON_ProviderError(t *testing.T) {
	boom := errors.New("boom")
	mock := &MockProvider{replies: []string{""}, errs: []error{boom}}
	advisor := NewAdvisorWithProvider(mock, Config{MaxRetries: 0}, nil)

	_, err := advisor.AskJSON(context.Background(), "q", "")
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}

func TestAdvisor_AskJSON_CancelledContext(t *testing.T) {
	mock := &MockProvider{replies: []string{""}, errs: []error{errors.New("canceled"), errors.New("canceled")}}
	advisor := NewAdvisorWithProvider(mock, Config{MaxRetries: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := advisor.AskJSON(ctx, "q", "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if mock.calls() != 1 {
		t.Errorf("expected no retry after cancellation, got %d calls", mock.calls())
	}
}

func TestBuildPrompt_CapsContext(t *testing.T) {
	got := buildPrompt("  question  ", strings.Repeat("é", 50), 10)
	want := "question\n\nCONTEXT:\n" + strings.Repeat("é", 10)
	if got != want {
		t.Errorf("buildPrompt = %q, want %q", got, want)
	}
	if buildPrompt("q", "   ", 10) != "q" {
		t.Error("empty context should be omitted")
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	if err != nil || p != nil {
		t.Errorf("empty provider should yield nil, nil; got %v, %v", p, err)
	}
	if _, err := NewProvider(Config{Provider: "gemini"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	p, err = NewProvider(Config{Provider: "Ollama"})
	if err != nil || p.Name() != "ollama" {
		t.Errorf("expected ollama provider, got %v, %v", p, err)
	}
}
