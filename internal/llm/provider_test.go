package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMockProvider_ReturnsCanedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"a":1}` {
		t.Fatalf("expected {\"a\":1}, got %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"b":2}` {
		t.Fatalf("expected {\"b\":2}, got %s", resp2.Content)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error from empty queue")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`)},
	)

	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Calls[0].System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Calls[0].System)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 0}},
	)

	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, "quiz-generation")
	if p := PurposeFrom(ctx); p != "quiz-generation" {
		t.Fatalf("expected 'quiz-generation', got %q", p)
	}
}

func TestSelection_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sel     Selection
		wantErr error
	}{
		{"default", DefaultSelection(), nil},
		{"claude friendly name", Selection{Provider: "claude", Model: "claude-haiku"}, nil},
		{"claude api id", Selection{Provider: "claude", Model: "claude-3-5-sonnet-20241022"}, nil},
		{"openai", Selection{Provider: "openai", Model: "gpt-4o-mini"}, nil},
		{"gemini", Selection{Provider: "gemini", Model: "gemini-flash"}, nil},
		{"model from another provider", Selection{Provider: "openai", Model: "claude-3-5-sonnet"}, ErrUnknownModel},
		{"empty model", Selection{Provider: "claude"}, ErrUnknownModel},
		{"unknown provider", Selection{Provider: "llama", Model: "x"}, ErrUnknownProvider},
		{"empty provider", Selection{}, ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sel.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProviders_DefaultModelsBelongToProvider(t *testing.T) {
	for _, p := range Providers() {
		if !p.HasModel(p.DefaultModel) {
			t.Errorf("%s default model %q not in its model set", p.ID, p.DefaultModel)
		}
	}
	if got := DefaultSelection(); got.Provider != ProviderClaude || got.Model != "claude-3-5-sonnet" {
		t.Fatalf("unexpected default selection %+v", got)
	}
}

func TestFactory_RejectsInvalidSelectionBeforeBuilding(t *testing.T) {
	f := NewFactory(Config{})
	if _, err := f(context.Background(), Selection{Provider: "openai", Model: "claude-haiku"}, "sk-test"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
	if _, err := f(context.Background(), Selection{Provider: "claude", Model: "claude-haiku"}, ""); err == nil {
		t.Fatal("expected error for empty credential")
	}
}

func TestFactory_AppliesDecorators(t *testing.T) {
	var wrapped []string
	decorate := func(name string) func(Provider, Selection) Provider {
		return func(p Provider, sel Selection) Provider {
			wrapped = append(wrapped, name+":"+sel.Provider)
			return p
		}
	}

	f := NewFactory(Config{}, decorate("inner"), decorate("outer"))
	p, err := f(context.Background(), Selection{Provider: "openai", Model: "gpt-4o"}, "sk-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "gpt-4o" {
		t.Fatalf("expected gpt-4o, got %q", p.ModelID())
	}
	if len(wrapped) != 2 || wrapped[0] != "inner:openai" || wrapped[1] != "outer:openai" {
		t.Fatalf("unexpected decorator order %v", wrapped)
	}
}

func TestMockFactory_RecordsSelections(t *testing.T) {
	mf := NewMockFactory(MockResponse{Content: json.RawMessage(`"hi"`)})
	var f Factory = mf.Build

	p, err := f(context.Background(), DefaultSelection(), "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != mf.Provider {
		t.Fatal("expected the shared mock provider")
	}
	if mf.BuildCount() != 1 || mf.Selections[0] != DefaultSelection() {
		t.Fatalf("unexpected selections %v", mf.Selections)
	}
}
