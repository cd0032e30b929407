package cmd

import (
	"bufio"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/pdfquiz/internal/llm"
	"github.com/abhisek/pdfquiz/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the provider, model and API keys",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active selection and which providers have keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openClient(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := cmd.Context()
		sel := env.settings.Selection()
		fmt.Printf("Server:    %s\n", env.server)
		fmt.Printf("Provider:  %s (%s)\n", sel.Label(), sel.Provider)
		fmt.Printf("Model:     %s\n", sel.Model)
		fmt.Println()

		fmt.Printf("%-10s  %-8s  %s\n", "Provider", "Key", "Models")
		fmt.Println(strings.Repeat("─", 72))
		for _, p := range llm.Providers() {
			key := color.HiBlackString("%-8s", "-")
			if _, ok := env.settings.Credential(ctx, p.ID); ok {
				key = color.GreenString("%-8s", "set")
			}
			id := fmt.Sprintf("%-10s", p.ID)
			if p.ID == sel.Provider {
				id = color.CyanString("%-10s", p.ID)
			}
			models := slices.Sorted(maps.Keys(p.Models))
			fmt.Printf("%s  %s  %s\n", id, key, strings.Join(models, ", "))
		}
		return nil
	},
}

var settingsUseCmd = &cobra.Command{
	Use:   "use <provider> [model]",
	Short: "Select a provider and optionally a model",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openClient(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		u := settings.Update{Provider: args[0]}
		if len(args) == 2 {
			u.Model = args[1]
		}
		if err := env.settings.Update(cmd.Context(), u); err != nil {
			return err
		}
		sel := env.settings.Selection()
		fmt.Printf("Using %s · %s\n", sel.Label(), sel.Model)
		return nil
	},
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key <provider> [key]",
	Short: "Store an API key. Reads it from stdin when not given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := args[0]
		if _, ok := llm.LookupProvider(provider); !ok {
			return fmt.Errorf("%w: %q", llm.ErrUnknownProvider, provider)
		}

		key := ""
		if len(args) == 2 {
			key = args[1]
		} else {
			fmt.Fprint(os.Stderr, "API key: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read key: %w", err)
			}
			key = line
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("empty key; use clear-key to remove one")
		}

		env, err := openClient(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.settings.Update(cmd.Context(), settings.Update{
			Credentials: map[string]string{provider: key},
		}); err != nil {
			return err
		}
		fmt.Printf("%s API key saved.\n", llm.Selection{Provider: provider}.Label())
		return nil
	},
}

var settingsClearKeyCmd = &cobra.Command{
	Use:   "clear-key <provider>",
	Short: "Remove one provider's API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := args[0]
		if _, ok := llm.LookupProvider(provider); !ok {
			return fmt.Errorf("%w: %q", llm.ErrUnknownProvider, provider)
		}
		env, err := openClient(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.settings.Update(cmd.Context(), settings.Update{
			Credentials: map[string]string{provider: ""},
		}); err != nil {
			return err
		}
		fmt.Printf("%s API key removed.\n", llm.Selection{Provider: provider}.Label())
		return nil
	},
}

var settingsClearKeysCmd = &cobra.Command{
	Use:   "clear-keys",
	Short: "Remove every stored API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openClient(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		env.settings.ClearCredentials(cmd.Context())
		fmt.Println("All API keys removed.")
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsUseCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsClearKeyCmd)
	settingsCmd.AddCommand(settingsClearKeysCmd)
}
