package identity

import "context"

// LogNotifier writes payloads to the logger instead of a real channel.
// The default until a mail/SMS integration is plugged in; payloads are
// raw secrets, so production setups should replace it.
type LogNotifier struct {
	logger Logger
}

func NewLogNotifier(logger Logger) *LogNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, recipient, payload string) error {
	n.logger.Info("out-of-band notification", "recipient", recipient, "payload", payload)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
