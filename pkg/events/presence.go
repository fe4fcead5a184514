package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/fedround/pkg/mqtt"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"

	unsubscribeTimeout = 5 * time.Second
)

var errUnknownStatusTopic = errors.New("not a participant status topic")

// Announce publishes an online status for a participant. The matching offline
// status is the participant's MQTT will, set to ParticipantStatusTopic.
func Announce(ctx context.Context, pubsub mqtt.PubSub, topics *TopicBuilder, participantID string) error {
	status := map[string]string{"status": StatusOnline, "client_id": participantID}

	return pubsub.Publish(ctx, topics.ParticipantStatusTopic(participantID), status)
}

// OfflineFunc is called with the ID of a participant reported offline.
type OfflineFunc func(ctx context.Context, participantID string) error

// WatchParticipants subscribes to participant status topics and calls
// offline for every offline status until ctx is done.
func WatchParticipants(ctx context.Context, pubsub mqtt.PubSub, topics *TopicBuilder, offline OfflineFunc, logger *slog.Logger) error {
	filter := topics.ParticipantStatusFilter()

	handler := func(topic string, msg map[string]any) error {
		id, ok := topics.ParticipantFromStatusTopic(topic)
		if !ok {
			return fmt.Errorf("%w: %s", errUnknownStatusTopic, topic)
		}
		status, _ := msg["status"].(string)
		logger.Debug("participant status received", slog.String("participant_id", id), slog.String("status", status))
		if status != StatusOffline {
			return nil
		}

		return offline(ctx, id)
	}

	if err := pubsub.Subscribe(ctx, filter, handler); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", filter, err)
	}
	logger.Info("watching participant status", slog.String("topic", filter))

	<-ctx.Done()

	uctx, cancel := context.WithTimeout(context.Background(), unsubscribeTimeout)
	defer cancel()
	if err := pubsub.Unsubscribe(uctx, filter); err != nil {
		logger.Warn("failed to unsubscribe from participant status", slog.Any("error", err))
	}

	return nil
}
