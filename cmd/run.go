package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/pdfquiz/internal/apiclient"
	"github.com/abhisek/pdfquiz/internal/app"
	"github.com/abhisek/pdfquiz/internal/screen"
)

// runApp opens local state and launches the TUI against the server.
func runApp(cmd *cobra.Command) error {
	env, err := openClient(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	env.log.Info().Str("server", env.server).Msg("client_started")

	return app.Run(screen.Services{
		Backend:  apiclient.New(env.server, 0),
		Settings: env.settings,
		Ledger:   env.ledger,
		Log:      env.log,
	})
}
