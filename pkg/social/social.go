// Package social performs account actions: follow, unfollow, and direct
// messages. Every action navigates to the target profile, drives the
// button flow through a selector cascade, and paces itself so bursts of
// actions do not trip the platform's automation heuristics.
package social

import (
	"fmt"
	"strings"
	"time"

	"igharvest/pkg/config"
	"igharvest/pkg/errors"
	"igharvest/pkg/logger"
	"igharvest/pkg/page"
	"igharvest/pkg/ratelimit"
)

const (
	xpFollowButton    = `//button[.//div[text()="Follow"] or text()="Follow" or .//div[text()="Follow Back"]]`
	xpFollowingButton = `//button[.//div[text()="Following"] or text()="Following" or .//*[name()="svg" and @aria-label="Following"]]`
	xpRequestedButton = `//button[.//div[text()="Requested"] or text()="Requested"]`
	xpUnfollowConfirm = `//div[@role="dialog"]//*[text()="Unfollow"]`
	xpMessageButton   = `//div[@role="button" and text()="Message"] | //button[text()="Message"]`
	xpSendButton      = `//div[@role="button" and text()="Send"] | //button[text()="Send"]`
	selMessageInput   = `textarea[placeholder="Message..."], div[contenteditable="true"][role="textbox"]`
)

// Actor drives social actions over an authenticated page.
type Actor struct {
	page   page.Page
	cfg    *config.Config
	logger logger.Logger
	sleep  func(time.Duration)
	pause  func()
}

// NewActor builds an actor whose pacing follows the rate-limit config.
func NewActor(p page.Page, cfg *config.Config, log logger.Logger) *Actor {
	if log == nil {
		log = logger.GetLogger()
	}
	pacer := ratelimit.NewPacer(cfg.RateLimit.ActionsPerMinute,
		cfg.RateLimit.ActionDelayMin, cfg.RateLimit.ActionDelayMax)
	return &Actor{
		page:   p,
		cfg:    cfg,
		logger: log,
		sleep:  time.Sleep,
		pause:  pacer.Pause,
	}
}

func (a *Actor) profileURL(username string) string {
	return a.cfg.Instagram.BaseURL + "/" + strings.Trim(username, "/@ ") + "/"
}

// Follow follows the account. Already following or requested is a
// no-op, not an error.
func (a *Actor) Follow(username string) error {
	err := a.withProfile(username, func() error {
		if a.firstMatch(xpFollowingButton) != nil || a.firstMatch(xpRequestedButton) != nil {
			a.logger.WithField("username", username).Info("already following")
			return nil
		}
		button := a.firstMatch(xpFollowButton)
		if button == nil {
			return errors.New(errors.ErrorTypeNotFound, "follow button not found")
		}
		return button.Click()
	})
	logger.LogSocialAction("follow", username, err == nil, err)
	return err
}

// Unfollow unfollows the account, confirming through the dialog the
// platform raises. Not following is a no-op.
func (a *Actor) Unfollow(username string) error {
	err := a.withProfile(username, func() error {
		button := a.firstMatch(xpFollowingButton)
		if button == nil {
			a.logger.WithField("username", username).Info("not following")
			return nil
		}
		if err := button.Click(); err != nil {
			return err
		}
		a.sleep(a.cfg.Extraction.PopupAnimationDelay)

		confirm := a.firstMatch(xpUnfollowConfirm)
		if confirm == nil {
			a.page.PressEscape()
			return errors.New(errors.ErrorTypeNotFound, "unfollow confirmation not found")
		}
		return confirm.Click()
	})
	logger.LogSocialAction("unfollow", username, err == nil, err)
	return err
}

// SendMessage opens the account's message thread and sends one text
// message.
func (a *Actor) SendMessage(username, message string) error {
	err := a.withProfile(username, func() error {
		button := a.firstMatch(xpMessageButton)
		if button == nil {
			return errors.New(errors.ErrorTypeNotFound, "message button not found")
		}
		if err := button.Click(); err != nil {
			return err
		}
		a.sleep(a.cfg.Extraction.PopupAnimationDelay)

		inputs, err := a.page.Query(selMessageInput)
		if err != nil || len(inputs) == 0 {
			return errors.New(errors.ErrorTypeNotFound, "message input not found")
		}
		if err := inputs[0].Type(message); err != nil {
			return fmt.Errorf("failed to type message: %w", err)
		}

		send := a.firstMatch(xpSendButton)
		if send == nil {
			return errors.New(errors.ErrorTypeNotFound, "send button not found")
		}
		if err := send.Click(); err != nil {
			return err
		}
		a.sleep(a.cfg.Extraction.PopupContentDelay)
		return a.page.PressEscape()
	})
	logger.LogSocialAction("message", username, err == nil, err)
	return err
}

// BatchResult holds per-account outcomes of a batch action.
type BatchResult struct {
	Sent   []string
	Failed map[string]error
}

// SendBatch messages every account in turn. A per-account failure is
// recorded and the batch continues; only a fatal session error aborts.
func (a *Actor) SendBatch(usernames []string, message string) (BatchResult, error) {
	result := BatchResult{Failed: make(map[string]error)}
	for _, username := range usernames {
		err := a.SendMessage(username, message)
		if err == nil {
			result.Sent = append(result.Sent, username)
			continue
		}
		result.Failed[username] = err
		if herr, ok := err.(*errors.Error); ok && errors.IsFatal(herr.Type) {
			return result, err
		}
	}
	return result, nil
}

// withProfile navigates to the profile, runs the action, then paces.
func (a *Actor) withProfile(username string, action func() error) error {
	if err := a.page.Navigate(a.profileURL(username)); err != nil {
		return err
	}
	a.sleep(a.cfg.Browser.PageLoadDelay)
	if err := action(); err != nil {
		return err
	}
	a.pause()
	return nil
}

// firstMatch returns the first element of an XPath cascade, or nil.
func (a *Actor) firstMatch(expr string) page.Element {
	elems, err := a.page.QueryXPath(expr)
	if err != nil || len(elems) == 0 {
		return nil
	}
	return elems[0]
}
