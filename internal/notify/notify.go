// Package notify plays the timer chime and raises desktop notifications.
package notify

import (
	"io"
	"log/slog"

	"github.com/gen2brain/beeep"
)

const (
	AppName = "lockin"

	chimeFrequency = 800 // Hz
	chimeDuration  = 500 // ms
)

// Notifier is the sound and notification sink for timer completions.
// Disabled channels are silently skipped.
type Notifier struct {
	Sound   bool
	Desktop bool

	beep   func(freq float64, duration int) error
	notify func(title, message string) error
	logger *slog.Logger
}

func New(sound, desktop bool, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{
		Sound:   sound,
		Desktop: desktop,
		beep:    beeep.Beep,
		notify:  func(title, message string) error { return beeep.Notify(title, message, "") },
		logger:  logger,
	}
}

// Play sounds the completion tone.
func (n *Notifier) Play() error {
	if !n.Sound {
		return nil
	}
	return n.beep(chimeFrequency, chimeDuration)
}

// Info shows a desktop notification. Failures are logged, not returned:
// a missing notification daemon must not interrupt the timer.
func (n *Notifier) Info(title, message string) {
	if !n.Desktop {
		return
	}
	if err := n.notify(title, message); err != nil {
		n.logger.Debug("desktop notification failed", "err", err)
	}
}
