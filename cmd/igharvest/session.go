package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"igharvest/pkg/auth"
	"igharvest/pkg/page"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the saved browser session",
}

var sessionSaveCmd = &cobra.Command{
	Use:   "save [username]",
	Short: "Log in manually and save the browser session",
	Long: `Open a visible browser window so you can log in by hand, then
snapshot the authenticated cookies into the session file. The saved
session is what every other command seeds its tabs from.

When a username is given the credential cookies are also written to the
secure credential store.`,
	Example: `  igharvest session save
  igharvest session save myusername`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessionSave,
}

func init() {
	sessionCmd.AddCommand(sessionSaveCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionSave(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Manual login needs a window.
	cfg.Browser.Headless = false

	browser, err := page.NewBrowser(cfg, nil)
	if err != nil {
		return err
	}
	defer browser.Close()

	p, err := browser.NewPage(nil)
	if err != nil {
		return err
	}
	if err := p.Navigate(cfg.Instagram.BaseURL); err != nil {
		// Landing on the login page is expected here.
		fmt.Println("Log in in the browser window.")
	}

	fmt.Print("Press Enter once you are logged in... ")
	if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
		return err
	}

	sess, err := page.SnapshotSession(p, cfg.Instagram.UserAgent)
	if err != nil {
		return err
	}
	if err := sess.Save(cfg.Instagram.SessionFile); err != nil {
		return err
	}
	fmt.Printf("Session saved to %s (%d cookies)\n", cfg.Instagram.SessionFile, len(sess.Cookies))

	if len(args) == 1 {
		account, err := auth.AccountFromSession(args[0], sess)
		if err != nil {
			return err
		}
		manager, err := auth.NewManager()
		if err != nil {
			return err
		}
		if err := manager.Store(account); err != nil {
			return err
		}
		fmt.Printf("Credentials stored for %s\n", args[0])
	}
	return nil
}
