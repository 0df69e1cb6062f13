package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"igharvest/pkg/collector"
	"igharvest/pkg/export"
	"igharvest/pkg/page"
)

var collectTarget int

var collectCmd = &cobra.Command{
	Use:   "collect <username>",
	Short: "Collect content links without extracting them",
	Long: `Scroll a profile grid and write the discovered content links as a
TSV file, one url/kind pair per line. No per-item extraction happens.`,
	Example: `  igharvest collect someprofile
  igharvest collect someprofile --target 100`,
	Args: cobra.ExactArgs(1),
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().IntVarP(&collectTarget, "target", "t", 0, "stop after this many links (0 = all)")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	username := args[0]

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

	links := collector.NewLinkCollector(p, cfg, nil).Collect(collectTarget)

	exporter, err := export.NewExporter(cfg, username, nil)
	if err != nil {
		return err
	}
	if err := exporter.WriteLinks(links); err != nil {
		return err
	}

	fmt.Printf("Collected %d links into %s\n", len(links), exporter.Dir())
	return nil
}
