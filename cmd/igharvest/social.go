package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"igharvest/pkg/page"
	"igharvest/pkg/social"
)

var messageText string

var socialCmd = &cobra.Command{
	Use:   "social",
	Short: "Perform paced account actions",
	Long: `Follow, unfollow, or message accounts. Actions are paced with a
randomized delay and a per-minute budget so bursts stay under the
platform's automation heuristics.`,
}

var followCmd = &cobra.Command{
	Use:     "follow <username>...",
	Short:   "Follow one or more accounts",
	Example: `  igharvest social follow account_one account_two`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSocial(cmd, args, func(actor *social.Actor, username string) error {
			return actor.Follow(username)
		})
	},
}

var unfollowCmd = &cobra.Command{
	Use:     "unfollow <username>...",
	Short:   "Unfollow one or more accounts",
	Example: `  igharvest social unfollow account_one`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSocial(cmd, args, func(actor *social.Actor, username string) error {
			return actor.Unfollow(username)
		})
	},
}

var messageCmd = &cobra.Command{
	Use:   "message <username>...",
	Short: "Send a direct message to one or more accounts",
	Example: `  igharvest social message account_one --text "hello"
  igharvest social message a b c --text "same message to each"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMessage,
}

func init() {
	messageCmd.Flags().StringVar(&messageText, "text", "", "message text to send")
	messageCmd.MarkFlagRequired("text")

	socialCmd.AddCommand(followCmd, unfollowCmd, messageCmd)
	rootCmd.AddCommand(socialCmd)
}

func newActor(cmd *cobra.Command) (*social.Actor, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	sess, err := resolveSession(cfg)
	if err != nil {
		return nil, nil, err
	}
	browser, err := page.NewBrowser(cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	p, err := browser.NewPage(sess)
	if err != nil {
		browser.Close()
		return nil, nil, err
	}
	return social.NewActor(p, cfg, nil), browser.Close, nil
}

func runSocial(cmd *cobra.Command, usernames []string, action func(*social.Actor, string) error) error {
	actor, cleanup, err := newActor(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var failures int
	for _, username := range usernames {
		if err := action(actor, username); err != nil {
			fmt.Printf("%s: %v\n", username, err)
			failures++
			continue
		}
		fmt.Printf("%s: ok\n", username)
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d actions failed", failures, len(usernames))
	}
	return nil
}

func runMessage(cmd *cobra.Command, args []string) error {
	actor, cleanup, err := newActor(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := actor.SendBatch(args, messageText)
	for _, username := range result.Sent {
		fmt.Printf("%s: sent\n", username)
	}
	for username, ferr := range result.Failed {
		fmt.Printf("%s: %v\n", username, ferr)
	}
	if err != nil {
		return err
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d of %d messages failed", len(result.Failed), len(args))
	}
	return nil
}
