package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/draftwire/draftwire/pkg/config"
	"github.com/draftwire/draftwire/pkg/log"
)

var configFile string
var logLevel string

var rootCmd = &cobra.Command{
	Use:   "draftwire",
	Short: "Publish locally edited posts to a GitHub repository as pull requests",
	Long: `draftwire synchronizes a directory of locally edited posts with a GitHub
repository. Changed posts are committed to a timestamped branch and opened
as an auto-merge pull request; a brand-new empty repository receives its
first commit directly on the default branch.`,
}

// loadConfig resolves configuration and initializes logging. Every command
// calls it first.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	log.Init(log.Level(level))
	return cfg, nil
}

// fail prints a message to stderr and exits. Used once per command for
// the final user-facing failure.
func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	err := rootCmd.Execute()
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}
