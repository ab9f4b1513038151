package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go.aimuz.me/hober/clipboard"
	"go.aimuz.me/hober/internal/app"
	"go.aimuz.me/hober/messaging"
)

// bridgeCmds talk to a running background daemon the way the page and the
// popup do.
func bridgeCmds() []*cobra.Command {
	return []*cobra.Command{speakCmd(), translateCmd(), langCmd(), statusCmd(), signInCmd(), signUpCmd(), signOutCmd()}
}

func bridge(e env) *messaging.Client {
	return messaging.NewClient(messaging.Socket{Path: e.cfg.SocketPath})
}

func speakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "speak [text...]",
		Short: "Read text aloud (clipboard when no text, - for stdin)",
		RunE: run(func(cmd *cobra.Command, e env, args []string) error {
			text, err := app.InputText(args, cmd.InOrStdin(), clipboard.GetText)
			if err != nil {
				return err
			}
			player, err := app.NewAudioPlayer()
			if err != nil {
				return err
			}
			_, err = app.RunAction(cmd.Context(), text, app.ActionSpeak, app.PageConfig{
				Bridge:  bridge(e),
				Player:  player,
				Timeout: e.cfg.RequestTimeout(),
				Logger:  e.log,
			})
			return err
		}),
	}
}

func translateCmd() *cobra.Command {
	var noCopy bool
	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate text into the target language (clipboard when no text, - for stdin)",
		RunE: run(func(cmd *cobra.Command, e env, args []string) error {
			text, err := app.InputText(args, cmd.InOrStdin(), clipboard.GetText)
			if err != nil {
				return err
			}
			cfg := app.PageConfig{
				Bridge:  bridge(e),
				Timeout: e.cfg.RequestTimeout(),
				Logger:  e.log,
			}
			if !noCopy {
				cfg.Clipboard = clipboard.System{}
			}
			st, err := app.RunAction(cmd.Context(), text, app.ActionTranslate, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.Translation)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&noCopy, "no-copy", false, "do not copy the translation to the clipboard")
	return cmd
}

func langCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lang",
		Short: "Show or change the target language",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the target language",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, e env, _ []string) error {
				rep, err := bridge(e).GetTargetLanguage(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), rep.Language)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "set <language>",
			Short: "Set the target language, e.g. fr or pt-BR",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, e env, args []string) error {
				_, err := bridge(e).SetTargetLanguage(cmd.Context(), args[0])
				return err
			}),
		},
	)
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is signed in",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, e env, _ []string) error {
			rep, err := bridge(e).GetAuthStatus(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !rep.IsAuthenticated || rep.User == nil {
				fmt.Fprintln(out, "signed out")
				return nil
			}
			if rep.User.DisplayName != "" {
				fmt.Fprintf(out, "signed in as %s <%s>\n", rep.User.DisplayName, rep.User.Email)
			} else {
				fmt.Fprintf(out, "signed in as %s\n", rep.User.Email)
			}
			return nil
		}),
	}
}

func signInCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with Google (token from HOBER_GOOGLE_TOKEN) or with --email",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, e env, _ []string) error {
			c := bridge(e)
			if email == "" {
				_, err := c.SignIn(cmd.Context())
				return err
			}
			if password == "" {
				return errors.New("--password is required with --email")
			}
			_, err := c.SignInWithEmail(cmd.Context(), strings.TrimSpace(email), password)
			return err
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func signUpCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an email account and sign in",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, e env, _ []string) error {
			_, err := bridge(e).SignUpWithEmail(cmd.Context(), strings.TrimSpace(email), password, name)
			return err
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, e env, _ []string) error {
			_, err := bridge(e).SignOut(cmd.Context())
			return err
		}),
	}
}
