// Package notify is the fire-and-forget user feedback sink. Components emit
// exactly one notification per failure or completed action; the sink keeps
// no state of its own.
package notify

import "github.com/unihive/unihive/utils/log"

type Notifier interface {
	Success(message string)
	Error(message string)
	Info(message string)
}

// LogNotifier renders notifications into the service log. The HTTP layer
// carries user-visible messages in responses instead, so this is the default
// sink for everything running server-side.
type LogNotifier struct{}

func (LogNotifier) Success(message string) {
	log.Log.Info("notification: ", message)
}

func (LogNotifier) Error(message string) {
	log.Log.Error("notification: ", message)
}

func (LogNotifier) Info(message string) {
	log.Log.Info("notification: ", message)
}

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	Successes []string
	Errors    []string
	Infos     []string
}

func (r *Recorder) Success(message string) { r.Successes = append(r.Successes, message) }
func (r *Recorder) Error(message string)   { r.Errors = append(r.Errors, message) }
func (r *Recorder) Info(message string)    { r.Infos = append(r.Infos, message) }
