package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"igharvest/pkg/collector"
	"igharvest/pkg/config"
	"igharvest/pkg/page"
)

var followLimit int

var followersCmd = &cobra.Command{
	Use:   "followers <username>",
	Short: "Collect the accounts following a profile",
	Long: `Open the profile's followers popup and scroll it until the list
converges or the limit is reached. Handles are printed in discovery
order and written to a text file in the output directory.`,
	Example: `  igharvest followers someprofile
  igharvest followers someprofile --limit 200`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListCollection(cmd, args[0], collector.ListFollowers)
	},
}

var followingCmd = &cobra.Command{
	Use:     "following <username>",
	Short:   "Collect the accounts a profile follows",
	Example: `  igharvest following someprofile --limit 200`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListCollection(cmd, args[0], collector.ListFollowing)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{followersCmd, followingCmd} {
		cmd.Flags().IntVarP(&followLimit, "limit", "l", 0, "stop after this many handles (0 = all)")
		rootCmd.AddCommand(cmd)
	}
}

func runListCollection(cmd *cobra.Command, username string, kind collector.ListKind) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sess, err := resolveSession(cfg)
	if err != nil {
		return err
	}

	browser, err := page.NewBrowser(cfg, nil)
	if err != nil {
		return err
	}
	defer browser.Close()

	p, err := browser.NewPage(sess)
	if err != nil {
		return err
	}
	if err := p.Navigate(cfg.Instagram.BaseURL + "/" + username + "/"); err != nil {
		return err
	}

	handles, err := collector.NewFollowerCollector(p, cfg, nil).Collect(kind, followLimit)
	if err != nil {
		return err
	}

	for _, handle := range handles {
		fmt.Println(handle)
	}
	return writeHandles(cfg, username, string(kind), handles)
}

func writeHandles(cfg *config.Config, username, kind string, handles []string) error {
	dir := filepath.Join(cfg.Output.BaseDirectory, username)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, kind+".txt")
	content := strings.Join(handles, "\n")
	if len(handles) > 0 {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0644)
}
