package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"igharvest/pkg/auth"
	"igharvest/pkg/config"
	"igharvest/pkg/logger"
	"igharvest/pkg/page"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	logLevel    string
	outputDir   string
	sessionFile string
	headless    bool
	accountName string
)

var rootCmd = &cobra.Command{
	Use:   "igharvest",
	Short: "Browser-session Instagram harvester",
	Long: `igharvest drives an authenticated browser session over Instagram
profiles and extracts structured data from what the session can see.

It collects content links by scrolling the profile grid, resolves the
tagged accounts, likes count, and timestamp of every item, reads
follower and following lists, and can perform paced social actions.

All access happens through a real browser seeded with your own logged-in
session; there is no private API use.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .igharvest.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "path to the saved browser session")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", true, "run the browser headless")
	rootCmd.PersistentFlags().StringVar(&accountName, "account", "", "stored account to authenticate with")

	rootCmd.SetVersionTemplate(`igharvest {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig resolves configuration from every source and initializes
// logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := make(map[string]interface{})
	if sessionFile != "" {
		flags["session-file"] = sessionFile
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	logger.Initialize(&cfg.Logging)
	return cfg, nil
}

// resolveSession finds an authenticated browser session: the session
// file first, then the credential store.
func resolveSession(cfg *config.Config) (*page.Session, error) {
	if sess, err := page.LoadSession(cfg.Instagram.SessionFile); err == nil {
		return sess, nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return nil, err
	}

	var account *auth.Account
	if accountName != "" {
		account, err = manager.Retrieve(accountName)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("no session available: run 'igharvest session save' or 'igharvest auth login' first (%w)", err)
	}
	return account.Session(), nil
}
