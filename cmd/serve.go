package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/abhisek/pdfquiz/internal/chat"
	"github.com/abhisek/pdfquiz/internal/config"
	"github.com/abhisek/pdfquiz/internal/llm"
	"github.com/abhisek/pdfquiz/internal/quizgen"
	"github.com/abhisek/pdfquiz/internal/server"
	"github.com/abhisek/pdfquiz/internal/store"
	"github.com/abhisek/pdfquiz/internal/telemetry"
)

const shutdownGrace = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server that talks to the LLM providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if addr, _ := cmd.Flags().GetString("port"); addr != "" {
			cfg.AppPort = addr
		}

		log := telemetry.Init(telemetry.FromEnv(config.GetEnv))
		log.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Msg("booting pdfquiz server")

		var events store.EventRepo
		if cfg.LLMEventDB != "" {
			if err := store.EnsureDir(cfg.LLMEventDB); err != nil {
				return err
			}
			st, err := store.Open(cfg.LLMEventDB)
			if err != nil {
				return fmt.Errorf("open event log: %w", err)
			}
			defer st.Close()
			events = st.EventRepo()
			log.Info().Str("path", cfg.LLMEventDB).Msg("llm event log enabled")
		}

		factory := llm.NewFactory(providerConfig(cfg), providerDecorators(cfg, log, events)...)

		genCfg := quizgen.DefaultConfig()
		genCfg.MaxTokens = cfg.GenerateMaxTokens
		srv := server.New(cfg,
			quizgen.New(factory, genCfg, log),
			chat.New(factory, cfg.GenerateMaxTokens, log),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Listen(":" + cfg.AppPort)
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info().Msg("shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			return srv.Shutdown(sctx)
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func providerConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		Anthropic: llm.AnthropicConfig{BaseURL: cfg.AnthropicBaseURL},
		OpenAI:    llm.OpenAIConfig{BaseURL: cfg.OpenAIBaseURL},
		Gemini:    llm.GeminiConfig{BaseURL: cfg.GeminiBaseURL},
		Timeout:   cfg.ProviderTimeout,
	}
}

// providerDecorators logs every call and throttles each provider with its own
// limiter. Logging is innermost so recorded latency excludes limiter waits.
func providerDecorators(cfg *config.Config, log zerolog.Logger, events store.EventRepo) []func(llm.Provider, llm.Selection) llm.Provider {
	limiters := make(map[string]*rate.Limiter)
	if cfg.ProviderRPS > 0 {
		for _, p := range llm.Providers() {
			limiters[p.ID] = rate.NewLimiter(rate.Limit(cfg.ProviderRPS), max(cfg.ProviderBurst, 1))
		}
	}

	return []func(llm.Provider, llm.Selection) llm.Provider{
		func(p llm.Provider, sel llm.Selection) llm.Provider {
			return llm.WithLogging(p, sel.Provider, log, events)
		},
		func(p llm.Provider, sel llm.Selection) llm.Provider {
			return llm.WithRateLimit(p, limiters[sel.Provider])
		},
	}
}

func init() {
	serveCmd.Flags().String("port", "", "Port to listen on (overrides APP_PORT)")
}
