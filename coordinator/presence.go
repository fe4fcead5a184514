package coordinator

import (
	"context"
	"errors"
	"log/slog"

	pkgerrors "github.com/absmach/fedround/pkg/errors"
	"github.com/absmach/fedround/pkg/events"
)

// DropOffline removes participants reported offline from the pool so later
// rounds stop selecting them. Unknown participants are ignored.
func DropOffline(svc Service, logger *slog.Logger) events.OfflineFunc {
	return func(ctx context.Context, id string) error {
		err := svc.RemoveParticipant(ctx, id)
		switch {
		case errors.Is(err, pkgerrors.ErrNotFound):
			return nil
		case err != nil:
			return err
		}
		logger.Warn("participant went offline and was removed", slog.String("participant_id", id))

		return nil
	}
}
