package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/pdfquiz/internal/config"
	"github.com/abhisek/pdfquiz/internal/store"
)

const defaultServer = "http://localhost:8080"

var rootCmd = &cobra.Command{
	Use:   "pdfquiz",
	Short: "Turn PDFs into quizzes",
	Long:  "pdfquiz generates five-question quizzes from PDF documents using Claude, OpenAI or Gemini, and lets you chat about them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PDFQUIZ_DB env var)")
	rootCmd.PersistentFlags().String("server", "", "Server base URL (overrides PDFQUIZ_SERVER env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(coinsCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then PDFQUIZ_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// resolveServer returns the server URL from --server, then PDFQUIZ_SERVER.
func resolveServer(cmd *cobra.Command) string {
	if s, _ := cmd.Flags().GetString("server"); s != "" {
		return s
	}
	return config.GetEnv("PDFQUIZ_SERVER", defaultServer)
}
