// Package credentials keeps one provider credential per provider in the
// local key-value store, obfuscated at rest.
package credentials

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/abhisek/pdfquiz/internal/store"
)

// Key returns the storage key for a provider's credential.
func Key(provider string) string {
	return provider + "-api-key"
}

// Store is the credential store. Storage failures are logged and
// swallowed; the in-memory view keeps what the caller asked for until the
// process exits.
type Store struct {
	kv  store.KVRepo
	ob  Obfuscator
	log zerolog.Logger

	mu sync.Mutex
	// mem holds every provider touched this session. An empty value means
	// the credential was cleared.
	mem map[string]string
}

// New creates a Store over kv.
func New(kv store.KVRepo, ob Obfuscator, log zerolog.Logger) *Store {
	return &Store{kv: kv, ob: ob, log: log, mem: map[string]string{}}
}

// Get returns the credential for provider. ok is false when none is stored
// or the stored value cannot be decoded.
func (s *Store) Get(ctx context.Context, provider string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, seen := s.mem[provider]; seen {
		return v, v != ""
	}

	stored, found, err := s.kv.Get(ctx, Key(provider))
	if err != nil {
		s.log.Warn().Err(err).Str("provider", provider).Msg("credential_load_failed")
		return "", false
	}
	if !found {
		return "", false
	}

	plain, err := s.ob.Decode(stored)
	if err != nil {
		s.log.Warn().Err(err).Str("provider", provider).Msg("credential_decode_failed")
		plain = ""
	}
	s.mem[provider] = plain
	return plain, plain != ""
}

// Set stores credential for provider. An empty credential clears it.
func (s *Store) Set(ctx context.Context, provider, credential string) {
	if credential == "" {
		s.Clear(ctx, provider)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mem[provider] = credential
	if err := s.kv.Set(ctx, Key(provider), s.ob.Encode(credential)); err != nil {
		s.log.Warn().Err(err).Str("provider", provider).Msg("credential_save_failed")
	}
}

// Clear removes the credential for provider.
func (s *Store) Clear(ctx context.Context, provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mem[provider] = ""
	if err := s.kv.Delete(ctx, Key(provider)); err != nil {
		s.log.Warn().Err(err).Str("provider", provider).Msg("credential_clear_failed")
	}
}
