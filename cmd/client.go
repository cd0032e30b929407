package cmd

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/pdfquiz/internal/config"
	"github.com/abhisek/pdfquiz/internal/credentials"
	"github.com/abhisek/pdfquiz/internal/rewards"
	"github.com/abhisek/pdfquiz/internal/settings"
	"github.com/abhisek/pdfquiz/internal/store"
	"github.com/abhisek/pdfquiz/internal/telemetry"
)

// clientID is mixed into the credential obfuscation key.
const clientID = "pdfquiz-cli"

// clientEnv is the persistent client state shared by the TUI and the
// settings, coins and ask commands.
type clientEnv struct {
	store    *store.Store
	server   string
	settings *settings.Resolver
	ledger   *rewards.Ledger
	log      zerolog.Logger
}

func (e *clientEnv) Close() error {
	return e.store.Close()
}

// openClient opens the local database and loads settings and the coin
// ledger. Logs go to a file next to the database so they never reach the
// terminal.
func openClient(cmd *cobra.Command) (*clientEnv, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	logCfg := telemetry.FromEnv(config.GetEnv)
	logCfg.FileOnly = true
	if logCfg.File == "" {
		logCfg.File = filepath.Join(filepath.Dir(dbPath), "pdfquiz.log")
	}
	log := telemetry.Init(logCfg).With().Str("component", "client").Logger()

	server := resolveServer(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	kv := st.KV()
	creds := credentials.New(kv, credentials.NewObfuscator(originOf(server), clientID), log)

	return &clientEnv{
		store:    st,
		server:   server,
		settings: settings.Load(ctx, kv, creds, log),
		ledger:   rewards.Load(ctx, kv, log),
		log:      log,
	}, nil
}

// originOf reduces a server URL to its host, so keys stay readable when
// only the path or scheme changes.
func originOf(server string) string {
	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return server
	}
	return u.Host
}
