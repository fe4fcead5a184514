package events

import (
	"fmt"
	"strings"
)

type TopicBuilder struct {
	prefix string
}

func NewTopicBuilder(prefix string) *TopicBuilder {
	if prefix == "" {
		prefix = "fedround"
	}

	return &TopicBuilder{prefix: prefix}
}

func (tb *TopicBuilder) BaseTopic() string {
	return tb.prefix
}

func (tb *TopicBuilder) CoordinatorStatusTopic(coordinatorID string) string {
	return fmt.Sprintf("%s/coordinators/%s/status", tb.prefix, coordinatorID)
}

func (tb *TopicBuilder) ParticipantStatusTopic(participantID string) string {
	return fmt.Sprintf("%s/participants/%s/status", tb.prefix, participantID)
}

// ParticipantStatusFilter matches the status topic of every participant.
func (tb *TopicBuilder) ParticipantStatusFilter() string {
	return tb.prefix + "/participants/+/status"
}

// ParticipantFromStatusTopic extracts the participant ID from a topic built
// by ParticipantStatusTopic.
func (tb *TopicBuilder) ParticipantFromStatusTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, tb.prefix+"/participants/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/status")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}

	return id, true
}

// EventTopic places run level events under the run and everything else under
// its session, e.g. fedround/runs/<run>/sessions/<session>/round.finished.
func (tb *TopicBuilder) EventTopic(ev Event) string {
	if ev.SessionID == "" {
		return fmt.Sprintf("%s/runs/%s/%s", tb.prefix, ev.RunID, ev.Type)
	}

	return fmt.Sprintf("%s/runs/%s/sessions/%s/%s", tb.prefix, ev.RunID, ev.SessionID, ev.Type)
}
