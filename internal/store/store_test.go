package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"kv", "llm_events"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("query sqlite_master for %s: %v", table, err)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.KV().Set(ctx, "quiz-coins", "30"); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	v, ok, err := s.KV().Get(ctx, "quiz-coins")
	if err != nil || !ok || v != "30" {
		t.Fatalf("get after reopen = (%q, %v, %v), want (30, true, nil)", v, ok, err)
	}
}

func TestKV(t *testing.T) {
	ctx := context.Background()

	repos := map[string]KVRepo{
		"sqlite": openTestStore(t).KV(),
		"memory": NewMemoryKV(),
	}

	for name, kv := range repos {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("get missing = (%v, %v), want (false, nil)", ok, err)
			}

			if err := kv.Set(ctx, "k", "one"); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := kv.Set(ctx, "k", "two"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			v, ok, err := kv.Get(ctx, "k")
			if err != nil || !ok || v != "two" {
				t.Fatalf("get = (%q, %v, %v), want (two, true, nil)", v, ok, err)
			}

			if err := kv.Delete(ctx, "k"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := kv.Delete(ctx, "k"); err != nil {
				t.Fatalf("delete missing: %v", err)
			}
			if _, ok, _ := kv.Get(ctx, "k"); ok {
				t.Fatal("expected key to be gone")
			}
		})
	}
}

func TestMemoryKV_Err(t *testing.T) {
	kv := NewMemoryKV()
	kv.Err = errors.New("unavailable")

	if err := kv.Set(context.Background(), "k", "v"); err == nil {
		t.Fatal("expected error")
	}
	if _, _, err := kv.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error")
	}
}

func TestEventLog_AppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	log := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "claude", Model: "claude-3-5-sonnet-20241022", Purpose: "quiz-generation", InputTokens: 100, OutputTokens: 50, LatencyMs: 900, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "chat", InputTokens: 20, OutputTokens: 10, LatencyMs: 300, Success: true, RequestBody: "question"},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "chat", InputTokens: 40, OutputTokens: 30, LatencyMs: 500, Success: false, ErrorMessage: "rate limit"},
	}
	for i, e := range events {
		if err := log.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	all, err := log.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}
	if all[0].ErrorMessage != "rate limit" || all[0].Success {
		t.Errorf("newest event = %+v, want the failed chat call", all[0])
	}
	if time.Since(all[0].Timestamp) > time.Minute {
		t.Errorf("timestamp %v is not recent", all[0].Timestamp)
	}

	limited, err := log.QueryLLMEvents(ctx, QueryOpts{Limit: 1, Purpose: "quiz-generation"})
	if err != nil {
		t.Fatalf("query by purpose: %v", err)
	}
	if len(limited) != 1 || limited[0].Provider != "claude" {
		t.Fatalf("unexpected purpose query result %+v", limited)
	}

	got, err := log.GetLLMEvent(ctx, all[1].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.RequestBody != "question" {
		t.Fatalf("get = %+v, want request body", got)
	}

	missing, err := log.GetLLMEvent(ctx, 999)
	if err != nil || missing != nil {
		t.Fatalf("get missing = (%v, %v), want (nil, nil)", missing, err)
	}
}

func TestEventLog_Usage(t *testing.T) {
	s := openTestStore(t)
	log := s.EventRepo()
	ctx := context.Background()

	for _, e := range []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "chat", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "chat", InputTokens: 30, OutputTokens: 15, LatencyMs: 300, Success: true},
		{Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "quiz-generation", InputTokens: 7, OutputTokens: 3, LatencyMs: 50, Success: true},
	} {
		if err := log.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := log.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("got %d purposes, want 2", len(byPurpose))
	}
	chat := byPurpose[0]
	if chat.Purpose != "chat" || chat.Calls != 2 || chat.InputTokens != 40 || chat.OutputTokens != 20 || chat.AvgLatencyMs != 200 {
		t.Errorf("chat usage = %+v", chat)
	}

	byModel, err := log.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "gpt-4o-mini" {
		t.Errorf("model usage = %+v", byModel)
	}
}
