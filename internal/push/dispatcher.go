package push

import (
	"context"
	"fmt"

	"swapp/api/internal/logging"
	"swapp/api/internal/metrics"
	"swapp/api/internal/models"
	"swapp/api/internal/utils"
)

// DeviceLookup finds a user's registered device. It returns nil, nil when there is none.
type DeviceLookup interface {
	FindDevice(ctx context.Context, userID utils.SixID) (*models.PushDevice, error)
}

// Dispatcher resolves a user's device and sends a notice to it.
type Dispatcher struct {
	devices DeviceLookup
	sender  Sender
}

func NewDispatcher(devices DeviceLookup, sender Sender) *Dispatcher {
	return &Dispatcher{devices: devices, sender: sender}
}

// Deliver sends n to userID's device. A user without a device is a no-op and
// delivery failures are logged, never returned. Only a failed device lookup
// is reported so the caller may retry.
func (d *Dispatcher) Deliver(ctx context.Context, userID utils.SixID, n Notice) error {
	device, err := d.devices.FindDevice(ctx, userID)
	if err != nil {
		return fmt.Errorf("looking up device for user %s: %w", userID, err)
	}
	if device == nil || device.Token == "" {
		metrics.PushDeliveries.WithLabelValues(n.Type, "no_device").Inc()
		return nil
	}

	if err := d.sender.Send(ctx, BuildMessage(device.Token, n)); err != nil {
		metrics.PushDeliveries.WithLabelValues(n.Type, "failed").Inc()
		logging.Warn().Err(err).Str("user_id", userID.String()).Str("type", n.Type).Msg("push delivery failed")
		return nil
	}
	metrics.PushDeliveries.WithLabelValues(n.Type, "sent").Inc()
	return nil
}
