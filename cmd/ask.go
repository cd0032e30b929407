package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pdfquiz/internal/apiclient"
	"github.com/abhisek/pdfquiz/internal/docreq"
)

var askCmd = &cobra.Command{
	Use:   "ask <file.pdf> <question...>",
	Short: "Ask a single question about a PDF",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openClient(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := cmd.Context()
		sel := env.settings.Selection()

		doc, err := docreq.ReadFile(args[0], 0)
		if err != nil {
			return errors.New(docreq.Hint(err, sel.Provider))
		}
		cred, ok := env.settings.ActiveCredential(ctx)
		if !ok {
			return fmt.Errorf("no %s API key set; run: pdfquiz settings set-key %s", sel.Label(), sel.Provider)
		}

		timeout, _ := cmd.Flags().GetDuration("timeout")
		client := apiclient.New(env.server, timeout)
		answer, err := client.Chat(ctx, docreq.Input{Document: doc, Selection: sel, Credential: cred},
			strings.Join(args[1:], " "), nil)
		if err != nil {
			env.log.Warn().Err(err).Msg("ask_failed")
			return errors.New(docreq.Hint(err, sel.Provider))
		}
		fmt.Println(answer)
		return nil
	},
}

func init() {
	askCmd.Flags().Duration("timeout", apiclient.DefaultTimeout, "Request timeout")
}
