package stubapi

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
)

// LogoutTopic is where logout notifications land.
const LogoutTopic = "auth.logout"

// LogoutEvent notifies interested parties that a credential was revoked.
type LogoutEvent struct {
	UserID  string `json:"user_id"`
	TokenID string `json:"token_id"`
}

// EventPublisher publishes auth events.
type EventPublisher interface {
	PublishLogout(ctx context.Context, userID, tokenID string) error
}

// WatermillPublisher implements EventPublisher over any watermill publisher
// (a gochannel pub/sub in dev, a broker-backed one elsewhere).
type WatermillPublisher struct {
	publisher message.Publisher
}

var _ EventPublisher = (*WatermillPublisher)(nil)

func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) PublishLogout(ctx context.Context, userID, tokenID string) error {
	payload, err := json.Marshal(LogoutEvent{UserID: userID, TokenID: tokenID})
	if err != nil {
		return errors.Wrap(err, "marshalling event")
	}
	if err := p.publisher.Publish(LogoutTopic, message.NewMessage(tokenID, payload)); err != nil {
		return errors.Wrap(err, "publishing event")
	}
	return nil
}
