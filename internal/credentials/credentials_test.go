package credentials

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pdfquiz/internal/store"
)

func testObfuscator() Obfuscator {
	return NewObfuscator("localhost", "pdfquiz-cli")
}

func TestObfuscator_RoundTrip(t *testing.T) {
	ob := testObfuscator()
	for _, plain := range []string{
		"sk-ant-REDACTED",
		"sk-proj-Short",
		"",
		"clé-ünïcode-key",
	} {
		enc := ob.Encode(plain)
		if plain != "" && enc == plain {
			t.Errorf("Encode(%q) returned plaintext", plain)
		}
		got, err := ob.Decode(enc)
		if err != nil {
			t.Fatalf("Decode(%q): %v", enc, err)
		}
		if got != plain {
			t.Errorf("round trip = %q, want %q", got, plain)
		}
	}
}

func TestObfuscator_KeyDerivation(t *testing.T) {
	assert.Equal(t, []byte("localhost-pdfquiz-cl-pdf-quiz-app"), testObfuscator().key)
	assert.Equal(t, []byte("h-short-pdf-quiz-app"), NewObfuscator("h", "short").key)
}

func TestObfuscator_KnownEncoding(t *testing.T) {
	// XOR of "ab" with key "k-c-pdf-quiz-app" prefix "k-" is 0x0a 0x4f.
	ob := NewObfuscator("k", "c")
	assert.Equal(t, "Ck8=", ob.Encode("ab"))
}

func TestObfuscator_DifferentContextCannotRead(t *testing.T) {
	enc := testObfuscator().Encode("sk-secret")
	got, err := NewObfuscator("example.com", "pdfquiz-cli").Decode(enc)
	if err == nil && got == "sk-secret" {
		t.Fatal("another key context decoded the credential")
	}
}

func TestObfuscator_DecodeCorrupt(t *testing.T) {
	ob := testObfuscator()
	_, err := ob.Decode("%%% not base64 %%%")
	require.Error(t, err)
}

func TestStore_SetGetClear(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	s := New(kv, testObfuscator(), zerolog.Nop())

	_, ok := s.Get(ctx, "claude")
	assert.False(t, ok, "absence is a normal state")

	s.Set(ctx, "claude", "sk-ant-1")
	s.Set(ctx, "openai", "sk-oai-1")

	stored, found, err := kv.Get(ctx, "claude-api-key")
	require.NoError(t, err)
	require.True(t, found)
	assert.NotContains(t, stored, "sk-ant-1")

	// A fresh store reads what the first one wrote.
	fresh := New(kv, testObfuscator(), zerolog.Nop())
	got, ok := fresh.Get(ctx, "claude")
	assert.True(t, ok)
	assert.Equal(t, "sk-ant-1", got)

	fresh.Clear(ctx, "claude")
	_, ok = fresh.Get(ctx, "claude")
	assert.False(t, ok)
	_, found, _ = kv.Get(ctx, "claude-api-key")
	assert.False(t, found)

	got, ok = fresh.Get(ctx, "openai")
	assert.True(t, ok, "clearing one provider keeps the others")
	assert.Equal(t, "sk-oai-1", got)

	fresh.Set(ctx, "openai", "")
	_, ok = fresh.Get(ctx, "openai")
	assert.False(t, ok, "setting an empty credential clears it")
}

func TestStore_CorruptValueReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, Key("claude"), "not*base64"))

	var logs bytes.Buffer
	s := New(kv, testObfuscator(), zerolog.New(&logs))

	got, ok := s.Get(ctx, "claude")
	assert.False(t, ok)
	assert.Empty(t, got)
	assert.Contains(t, logs.String(), "credential_decode_failed")
}

func TestStore_StorageFailureKeepsSessionValue(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	kv.Err = errors.New("disk full")

	var logs bytes.Buffer
	s := New(kv, testObfuscator(), zerolog.New(&logs))

	s.Set(ctx, "openai", "sk-live")
	got, ok := s.Get(ctx, "openai")
	assert.True(t, ok)
	assert.Equal(t, "sk-live", got)
	assert.Contains(t, logs.String(), "credential_save_failed")
	assert.NotContains(t, logs.String(), "sk-live")
}
