package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/draftwire/draftwire/pkg/mirror"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the local repository mirror",
	Long: `Remove the mirror entirely. The next publish rebuilds it from the remote
and treats every post as new.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fail("Failed to load configuration: %v", err)
		}

		if err := mirror.NewStore(cfg.MirrorDir).Reset(); err != nil {
			fail("Failed to reset mirror: %v", err)
		}
		fmt.Println("mirror reset")
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
