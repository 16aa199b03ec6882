package notify

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"

	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/ports"
)

// DesktopNotifier posts desktop notifications through the host notification
// daemon. The platform layer has no replacement API, so slot semantics are
// carried by the router's slot store; the desktop shows the latest body.
type DesktopNotifier struct{}

var _ ports.Notifier = (*DesktopNotifier)(nil)

// NewDesktopNotifier builds the desktop sink.
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{}
}

// Notify posts one desktop notification.
func (d *DesktopNotifier) Notify(ctx context.Context, n domain.Notification) error {
	if err := beeep.Notify(n.Title, n.Body, ""); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}
