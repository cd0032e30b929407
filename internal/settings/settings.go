// Package settings resolves the active provider, model and credential for
// the terminal client.
package settings

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/abhisek/pdfquiz/internal/credentials"
	"github.com/abhisek/pdfquiz/internal/llm"
	"github.com/abhisek/pdfquiz/internal/store"
)

// Key is the storage key of the selection record. Credentials are stored
// separately by the credential store.
const Key = "llm-settings"

// Update is a partial change. Empty Provider and Model fields are left
// as they are. A Credentials entry with an empty value clears that
// provider's credential.
type Update struct {
	Provider    string
	Model       string
	Credentials map[string]string
}

// Resolver owns the selection for one client session. It is constructed at
// session start and passed explicitly to whatever needs it.
type Resolver struct {
	kv    store.KVRepo
	creds *credentials.Store
	log   zerolog.Logger

	mu  sync.Mutex
	sel llm.Selection
}

// Load reads the stored selection. A missing, unreadable or no longer valid
// record yields the default selection.
func Load(ctx context.Context, kv store.KVRepo, creds *credentials.Store, log zerolog.Logger) *Resolver {
	r := &Resolver{kv: kv, creds: creds, log: log, sel: llm.DefaultSelection()}

	raw, ok, err := kv.Get(ctx, Key)
	if err != nil {
		log.Warn().Err(err).Msg("settings_load_failed")
		return r
	}
	if !ok {
		return r
	}

	var sel llm.Selection
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		log.Warn().Err(err).Msg("settings_decode_failed")
		return r
	}
	if err := sel.Validate(); err != nil {
		log.Warn().Err(err).Msg("settings_selection_invalid")
		return r
	}
	r.sel = sel
	return r
}

// Selection returns the current provider and model.
func (r *Resolver) Selection() llm.Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sel
}

// Update merges u into the settings. Switching provider without naming a
// model selects the new provider's default model. An invalid merged
// selection is rejected and nothing changes.
func (r *Resolver) Update(ctx context.Context, u Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.sel
	if u.Provider != "" && u.Provider != next.Provider {
		next.Provider = u.Provider
		next.Model = ""
		if info, ok := llm.LookupProvider(u.Provider); ok {
			next.Model = info.DefaultModel
		}
	}
	if u.Model != "" {
		next.Model = u.Model
	}
	if err := next.Validate(); err != nil {
		return err
	}

	if next != r.sel {
		r.sel = next
		r.persist(ctx)
	}

	for provider, cred := range u.Credentials {
		r.creds.Set(ctx, provider, cred)
	}
	return nil
}

// ActiveCredential returns the stored credential of the selected provider.
func (r *Resolver) ActiveCredential(ctx context.Context) (string, bool) {
	return r.creds.Get(ctx, r.Selection().Provider)
}

// Credential returns the stored credential of any provider.
func (r *Resolver) Credential(ctx context.Context, provider string) (string, bool) {
	return r.creds.Get(ctx, provider)
}

// ClearCredentials removes every provider's credential.
func (r *Resolver) ClearCredentials(ctx context.Context) {
	for _, p := range llm.Providers() {
		r.creds.Clear(ctx, p.ID)
	}
}

func (r *Resolver) persist(ctx context.Context) {
	data, err := json.Marshal(r.sel)
	if err != nil {
		r.log.Warn().Err(err).Msg("settings_encode_failed")
		return
	}
	if err := r.kv.Set(ctx, Key, string(data)); err != nil {
		r.log.Warn().Err(err).Msg("settings_save_failed")
	}
}
