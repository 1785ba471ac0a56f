// Package notify delivers finished artifacts and failure notices back to the
// originating Telegram chat. Delivery is fire-and-forget: failures are logged
// by callers and never affect a job's terminal status.
package notify

import (
	"context"

	"botserver/internal/infra"
)

// Reason keys the generic, user-facing failure explanation. Raw provider
// error payloads never reach the chat.
type Reason string

const (
	ReasonExpired     Reason = "expired"
	ReasonRejected    Reason = "rejected"
	ReasonExhausted   Reason = "exhausted"
	ReasonUnavailable Reason = "unavailable"
)

// Notifier is the delivery contract consumed by the worker.
type Notifier interface {
	Deliver(ctx context.Context, chatID int64, resultLocation, locale string) error
	DeliverFailure(ctx context.Context, chatID int64, reason Reason, locale string) error
}

// LogNotifier writes deliveries to the log only. Used when no bot token is
// configured, typically in development.
type LogNotifier struct {
	Logger infra.Logger
}

func (n LogNotifier) Deliver(ctx context.Context, chatID int64, resultLocation, locale string) error {
	n.Logger.Info().Int64("chat_id", chatID).Str("result", resultLocation).Msg("notify: deliver (log only)")
	return nil
}

func (n LogNotifier) DeliverFailure(ctx context.Context, chatID int64, reason Reason, locale string) error {
	n.Logger.Info().Int64("chat_id", chatID).Str("reason", string(reason)).Msg("notify: deliver failure (log only)")
	return nil
}

var _ Notifier = LogNotifier{}
