package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/draftwire/draftwire/pkg/auth"
	"github.com/draftwire/draftwire/pkg/document"
	"github.com/draftwire/draftwire/pkg/githubapi"
	"github.com/draftwire/draftwire/pkg/mirror"
	"github.com/draftwire/draftwire/pkg/publish"
)

var postsDir string

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Detect changed posts and publish them",
	Long: `Compare the posts directory against the repository mirror, commit the
changed posts, push, and open an auto-merge pull request. With no changes
this is a no-op. Run one publish at a time; concurrent attempts share the
mirror unguarded.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fail("Failed to load configuration: %v", err)
		}

		store := auth.NewStore(cfg.CredentialsFile)
		creds, err := store.Get()
		if err != nil {
			fail("Failed to load credentials: %v", err)
		}

		dir := cfg.PostsDir
		if postsDir != "" {
			dir = postsDir
		}

		ctx := context.Background()
		mirrorStore := mirror.NewStore(cfg.MirrorDir)

		driver := &publish.Driver{
			Source:      document.NewDirSource(dir),
			Mirror:      mirrorStore,
			Credentials: creds,
			AuthorName:  cfg.AuthorName,
			AuthorEmail: cfg.AuthorEmail,
		}

		if creds.Complete() {
			client := githubapi.NewClient(ctx, creds.Token, creds.Owner, creds.Repo)
			if cfg.APIBaseURL != "" {
				if err := client.SetBaseURL(cfg.APIBaseURL); err != nil {
					fail("Invalid API base URL: %v", err)
				}
			}
			driver.Client = client

			if err := mirrorStore.Init(creds.RemoteURL(cfg.GitHost)); err != nil {
				fail("Failed to prepare mirror: %v", err)
			}
		}

		outcome, err := driver.Publish(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, publish.UserMessage(err))
			os.Exit(1)
		}
		fmt.Println(outcome.Summary())
	},
}

func init() {
	publishCmd.Flags().StringVar(&postsDir, "dir", "", "Posts directory (overrides config)")
	rootCmd.AddCommand(publishCmd)
}
