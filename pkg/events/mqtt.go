package events

import (
	"context"
	"errors"
	"time"

	"github.com/absmach/fedround/pkg/mqtt"
)

var errEmptyRunID = errors.New("event has no run id")

type mqttEmitter struct {
	pubsub mqtt.PubSub
	topics *TopicBuilder
}

func NewMQTTEmitter(pubsub mqtt.PubSub, topics *TopicBuilder) Emitter {
	return &mqttEmitter{
		pubsub: pubsub,
		topics: topics,
	}
}

func (e *mqttEmitter) Emit(ctx context.Context, ev Event) error {
	if ev.RunID == "" {
		return errEmptyRunID
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	return e.pubsub.Publish(ctx, e.topics.EventTopic(ev), ev)
}
