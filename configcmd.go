package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"go.aimuz.me/hober/internal/types"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit provider credentials and profiles",
	}
	cmd.AddCommand(configShowCmd(), credentialCmd(), speechConfigCmd(), translationConfigCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with API keys masked",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, e env, _ []string) error {
			view := *e.cfg
			view.Credentials = make([]types.APICredential, len(e.cfg.Credentials))
			for i, c := range e.cfg.Credentials {
				c.APIKey = maskKey(c.APIKey)
				view.Credentials[i] = c
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		}),
	}
}

// maskKey keeps only the last four characters of an API key.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func credentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage provider API credentials",
	}

	var cred types.APICredential
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a credential (elevenlabs, gemini, openai, openai-compatible)",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, e env, _ []string) error {
			if err := e.cfg.AddCredential(cred); err != nil {
				return err
			}
			added := e.cfg.Credentials[len(e.cfg.Credentials)-1]
			fmt.Fprintln(cmd.OutOrStdout(), added.ID)
			return nil
		}),
	}
	add.Flags().StringVar(&cred.Type, "type", "", "provider type")
	add.Flags().StringVar(&cred.Name, "name", "", "display name")
	add.Flags().StringVar(&cred.APIKey, "key", "", "API key")
	add.Flags().StringVar(&cred.BaseURL, "base-url", "", "API base URL (required for openai-compatible)")
	add.MarkFlagRequired("type")
	add.MarkFlagRequired("key")

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a credential that no profile uses",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(_ *cobra.Command, e env, args []string) error {
			return e.cfg.RemoveCredential(args[0])
		}),
	}

	cmd.AddCommand(add, remove)
	return cmd
}

func speechConfigCmd() *cobra.Command {
	var sc types.SpeechConfig
	cmd := &cobra.Command{
		Use:   "speech",
		Short: "Set the speech credential and voice",
		Args:  cobra.NoArgs,
		RunE: run(func(_ *cobra.Command, e env, _ []string) error {
			return e.cfg.SetSpeechConfig(sc)
		}),
	}
	cmd.Flags().StringVar(&sc.CredentialID, "credential", "", "elevenlabs credential id")
	cmd.Flags().StringVar(&sc.VoiceID, "voice", "", "voice id")
	cmd.Flags().StringVar(&sc.Model, "model", "", "speech model")
	cmd.Flags().StringVar(&sc.OutputFormat, "format", "", "output format, e.g. mp3_44100_128")
	cmd.MarkFlagRequired("credential")
	return cmd
}

func translationConfigCmd() *cobra.Command {
	var p types.TranslationProfile
	cmd := &cobra.Command{
		Use:   "translation",
		Short: "Set the translation credential and model",
		Args:  cobra.NoArgs,
		RunE: run(func(_ *cobra.Command, e env, _ []string) error {
			return e.cfg.SetTranslationProfile(p)
		}),
	}
	cmd.Flags().StringVar(&p.CredentialID, "credential", "", "credential id")
	cmd.Flags().StringVar(&p.Model, "model", "", "model name")
	cmd.Flags().IntVar(&p.MaxTokens, "max-tokens", 0, "maximum output tokens (default 2048)")
	cmd.Flags().Float64Var(&p.Temperature, "temperature", 0, "sampling temperature (default 0.1)")
	cmd.MarkFlagRequired("credential")
	cmd.MarkFlagRequired("model")
	return cmd
}
