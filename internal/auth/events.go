package auth

import (
	"context"
	"time"
)

const (
	EventLogin   = "login"
	EventLogout  = "logout"
	EventExpired = "session_expired"
)

type Event struct {
	Type   string    `json:"type"`
	UserID string    `json:"user_id,omitempty"`
	Email  string    `json:"email,omitempty"`
	At     time.Time `json:"at"`
}

// EventPublisher matches mykafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type noopPublisher struct{}

func (noopPublisher) PublishEvent(context.Context, string, string, any) error { return nil }
