package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/draftwire/draftwire/pkg/auth"
	"github.com/draftwire/draftwire/pkg/mirror"
)

var loginOwner string
var loginRepo string
var loginClientID string
var loginToken string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize draftwire and choose the target repository",
	Long: `Store the credentials publishing needs: a GitHub token plus the owner and
name of the repository posts are published to.

By default a device authorization flow runs: a one-time code is shown to
enter at github.com while the command polls for approval. Pass --token to
store a personal access token instead. Changing the repository resets the
local mirror; the next publish treats every post as new.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fail("Failed to load configuration: %v", err)
		}

		store := auth.NewStore(cfg.CredentialsFile)
		previous, err := store.Get()
		if err != nil {
			fail("Failed to load existing credentials: %v", err)
		}

		token := loginToken
		if token == "" {
			clientID := loginClientID
			if clientID == "" {
				clientID = cfg.OAuthClientID
			}

			flow := &auth.Flow{
				ClientID: clientID,
				Notify: func(code, url string) {
					fmt.Printf("Visit %s and enter the code %s\n", url, code)
				},
			}
			token, err = flow.Authorize(context.Background())
			if err != nil {
				fail("Authorization failed: %v", err)
			}
		}

		creds := auth.Credentials{Token: token, Owner: loginOwner, Repo: loginRepo}
		if err := store.Set(creds); err != nil {
			fail("Failed to store credentials: %v", err)
		}

		// A repository identity change invalidates the mirror's baseline.
		if previous != nil && (previous.Owner != creds.Owner || previous.Repo != creds.Repo) {
			if err := mirror.NewStore(cfg.MirrorDir).Reset(); err != nil {
				fail("Failed to reset mirror for new repository: %v", err)
			}
			fmt.Println("repository changed, mirror reset")
		}

		fmt.Printf("Logged in for %s/%s\n", creds.Owner, creds.Repo)
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginOwner, "owner", "", "Repository owner")
	loginCmd.Flags().StringVar(&loginRepo, "repo", "", "Repository name")
	loginCmd.Flags().StringVar(&loginClientID, "client-id", "", "OAuth app client ID for device flow")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Personal access token (skips device flow)")
	_ = loginCmd.MarkFlagRequired("owner")
	_ = loginCmd.MarkFlagRequired("repo")
	rootCmd.AddCommand(loginCmd)
}
