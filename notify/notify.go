//go:generate mockgen -package notify -destination mock_notify.go -source=notify.go
package notify

import (
	"context"
	"strings"

	"github.com/relloyd/tableload/logger"
)

// Attachment is a named blob sent with a message, e.g. the run log.
type Attachment struct {
	Name    string
	Content []byte
}

type Message struct {
	Recipients  []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Notifier sends status messages. Delivery is best effort: callers log the error and carry on.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log. Used when no mail transport is configured.
type LogNotifier struct {
	Log logger.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	n.Log.Info("Notification for ", strings.Join(msg.Recipients, ", "), ": ", msg.Subject)
	n.Log.Info(msg.Body)
	for _, a := range msg.Attachments {
		n.Log.Debug("attachment ", a.Name, " (", len(a.Content), " bytes) not sent")
	}
	return nil
}
