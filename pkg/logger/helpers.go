package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// LogNavigation logs a page navigation with its outcome
func LogNavigation(url string, attempt int, success bool, duration time.Duration) {
	log := GetLogger()

	fields := map[string]interface{}{
		"url":      url,
		"attempt":  attempt,
		"duration": duration,
	}

	if success {
		log.DebugWithFields("page navigation complete", fields)
	} else {
		log.WarnWithFields("page navigation failed", fields)
	}
}

// LogScrollCycle logs one scroll-and-collect cycle
func LogScrollCycle(cycle, collected, added, noProgress int) {
	GetLogger().DebugWithFields("scroll cycle", map[string]interface{}{
		"cycle":       cycle,
		"collected":   collected,
		"added":       added,
		"no_progress": noProgress,
	})
}

// LogExtraction logs the outcome of a single fact extraction
func LogExtraction(url, fact, strategy string, found bool) {
	log := GetLogger()

	fields := map[string]interface{}{
		"url":      url,
		"fact":     fact,
		"strategy": strategy,
	}

	if found {
		log.DebugWithFields("fact extracted", fields)
	} else {
		log.DebugWithFields("fact not found", fields)
	}
}

// LogSocialAction logs a follow/unfollow/message action
func LogSocialAction(action, username string, success bool, err error) {
	log := GetLogger()

	fields := map[string]interface{}{
		"action":   action,
		"username": username,
		"success":  success,
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	if success {
		log.InfoWithFields("social action complete", fields)
	} else {
		log.WarnWithFields("social action failed", fields)
	}
}

// LogComponentStart logs when a major component starts
func LogComponentStart(component string, config map[string]interface{}) {
	fields := map[string]interface{}{
		"component": component,
	}
	for k, v := range config {
		fields[k] = v
	}
	GetLogger().InfoWithFields("component started", fields)
}

// LogComponentStop logs when a major component stops
func LogComponentStop(component string, reason string) {
	GetLogger().InfoWithFields("component stopped", map[string]interface{}{
		"component": component,
		"reason":    reason,
	})
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}

func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
