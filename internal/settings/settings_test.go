package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pdfquiz/internal/credentials"
	"github.com/abhisek/pdfquiz/internal/llm"
	"github.com/abhisek/pdfquiz/internal/store"
)

func newResolver(t *testing.T, kv store.KVRepo) *Resolver {
	t.Helper()
	creds := credentials.New(kv, credentials.NewObfuscator("localhost", "pdfquiz-cli"), zerolog.Nop())
	return Load(context.Background(), kv, creds, zerolog.Nop())
}

func TestLoad_DefaultsWhenEmpty(t *testing.T) {
	r := newResolver(t, store.NewMemoryKV())
	assert.Equal(t, llm.DefaultSelection(), r.Selection())

	_, ok := r.ActiveCredential(context.Background())
	assert.False(t, ok)
}

func TestLoad_StoredRecords(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   llm.Selection
	}{
		{"valid", `{"provider":"openai","model":"gpt-4o-mini"}`, llm.Selection{Provider: "openai", Model: "gpt-4o-mini"}},
		{"corrupt json", `{"provider":`, llm.DefaultSelection()},
		{"unknown provider", `{"provider":"llama","model":"x"}`, llm.DefaultSelection()},
		{"mismatched model", `{"provider":"claude","model":"gpt-4o"}`, llm.DefaultSelection()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := store.NewMemoryKV()
			require.NoError(t, kv.Set(context.Background(), Key, tt.stored))
			assert.Equal(t, tt.want, newResolver(t, kv).Selection())
		})
	}
}

func TestUpdate_MergesAndPersists(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	r := newResolver(t, kv)

	require.NoError(t, r.Update(ctx, Update{Model: "claude-haiku"}))
	assert.Equal(t, llm.Selection{Provider: "claude", Model: "claude-haiku"}, r.Selection())

	require.NoError(t, r.Update(ctx, Update{Provider: "gemini"}))
	assert.Equal(t, llm.Selection{Provider: "gemini", Model: "gemini-flash"}, r.Selection(), "provider switch selects its default model")

	require.NoError(t, r.Update(ctx, Update{Provider: "openai", Model: "gpt-4.1"}))

	raw, ok, err := kv.Get(ctx, Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"provider":"openai","model":"gpt-4.1"}`, raw)
	assert.NotContains(t, raw, "key")

	assert.Equal(t, r.Selection(), newResolver(t, kv).Selection())
}

func TestUpdate_RejectsInvalidSelection(t *testing.T) {
	ctx := context.Background()
	r := newResolver(t, store.NewMemoryKV())

	err := r.Update(ctx, Update{Model: "gpt-4o"})
	assert.ErrorIs(t, err, llm.ErrUnknownModel)
	err = r.Update(ctx, Update{Provider: "llama"})
	assert.ErrorIs(t, err, llm.ErrUnknownProvider)

	assert.Equal(t, llm.DefaultSelection(), r.Selection(), "nothing changes on a rejected update")
}

func TestActiveCredential_FollowsProvider(t *testing.T) {
	ctx := context.Background()
	r := newResolver(t, store.NewMemoryKV())

	require.NoError(t, r.Update(ctx, Update{Credentials: map[string]string{
		"claude": "sk-ant",
		"openai": "sk-oai",
	}}))

	got, ok := r.ActiveCredential(ctx)
	require.True(t, ok)
	assert.Equal(t, "sk-ant", got)

	require.NoError(t, r.Update(ctx, Update{Provider: "openai"}))
	got, _ = r.ActiveCredential(ctx)
	assert.Equal(t, "sk-oai", got)

	// Switching back does not lose the other provider's credential.
	require.NoError(t, r.Update(ctx, Update{Provider: "claude"}))
	got, _ = r.ActiveCredential(ctx)
	assert.Equal(t, "sk-ant", got)

	require.NoError(t, r.Update(ctx, Update{Credentials: map[string]string{"claude": ""}}))
	_, ok = r.ActiveCredential(ctx)
	assert.False(t, ok)

	r.ClearCredentials(ctx)
	_, ok = r.Credential(ctx, "openai")
	assert.False(t, ok)
}

func TestUpdate_StorageFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	r := newResolver(t, kv)
	kv.Err = errors.New("read-only")

	require.NoError(t, r.Update(ctx, Update{Provider: "openai"}))
	assert.Equal(t, "openai", r.Selection().Provider)
}
