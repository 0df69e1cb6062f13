package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igharvest/pkg/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored credentials",
	Long: `Manage the stored session credentials used to seed authenticated
browser tabs.

Credentials are stored in the system keychain when available, falling
back to an encrypted file and finally IGHARVEST_* environment
variables. Never share your credentials or config files.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store session credentials",
	Long: `Store session credentials securely.

You will be prompted for the sessionid and csrftoken cookie values. To
find them: log into Instagram in your browser, open Developer Tools,
and copy both values from Application/Storage > Cookies.`,
	Example: `  igharvest auth login
  igharvest auth login myusername`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:     "logout <username>",
	Short:   "Remove stored credentials",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := auth.NewManager()
		if err != nil {
			return err
		}
		if err := manager.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed credentials for %s\n", args[0])
		return nil
	},
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := auth.NewManager()
		if err != nil {
			return err
		}
		accounts, err := manager.List()
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Println("No stored accounts")
			return nil
		}
		for _, account := range accounts {
			masked := auth.Sanitize(account)
			fmt.Printf("%s  session=%s  modified=%s\n",
				masked.Username, masked.SessionID,
				masked.LastModified.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	authCmd.AddCommand(loginCmd, logoutCmd, authListCmd)
	rootCmd.AddCommand(authCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	sessionID, err := promptSecret("Session ID (sessionid cookie): ")
	if err != nil {
		return err
	}
	csrfToken, err := promptSecret("CSRF Token (csrftoken cookie): ")
	if err != nil {
		return err
	}

	fmt.Print("User Agent (Enter for default): ")
	userAgent, err := reader.ReadString('\n')
	if err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return err
	}
	if err := manager.Store(&auth.Account{
		Username:  username,
		SessionID: sessionID,
		CSRFToken: csrfToken,
		UserAgent: strings.TrimSpace(userAgent),
	}); err != nil {
		return err
	}

	fmt.Printf("Credentials stored for %s\n", username)
	return nil
}

// promptSecret reads a value without echoing it.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	value, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	secret := strings.TrimSpace(string(value))
	if secret == "" {
		return "", fmt.Errorf("value is required")
	}
	return secret, nil
}
