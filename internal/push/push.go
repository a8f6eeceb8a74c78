// Package push is the platform notification collaborator. The backend only
// schedules and cancels; delivery belongs to the device. The capability is
// optional: callers hold a nil Channel when no transport is configured and
// skip scheduling entirely.
package push

import (
	"context"

	"okusuri/backend/internal/model"
)

type Channel interface {
	Schedule(ctx context.Context, userID string, notification model.PushNotification) error
	Cancel(ctx context.Context, userID string, medicationID int64) error
}
