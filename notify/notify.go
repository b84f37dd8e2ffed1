// Package notify delivers user-facing notifications. Delivery is fire and
// forget: a notifier never reports failure to its caller.
package notify

import (
	"go.uber.org/zap"
)

type Notifier interface {
	Notify(title, body string)
}

// LogNotifier writes notifications to the application log.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(title, body string) {
	n.log.Info("notification", zap.String("title", title), zap.String("body", body))
}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(title, body string) {
	for _, n := range m {
		n.Notify(title, body)
	}
}
