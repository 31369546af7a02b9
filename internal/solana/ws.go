package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeLogs subscribes to logs mentioning the filter's accounts.
	// The returned subscription stays alive across reconnects; its channel
	// is closed only by Unsubscribe or Close.
	SubscribeLogs(ctx context.Context, filter LogsFilter) (*Subscription, error)

	// Unsubscribe cancels a subscription and closes its channel.
	Unsubscribe(ctx context.Context, sub *Subscription) error

	// Close closes the WebSocket connection and all subscriptions.
	Close() error
}

// LogsFilter defines a subscription filter for logs.
type LogsFilter struct {
	// Mentions filters logs that mention any of these account addresses.
	Mentions []string
}

// Subscription is one live logs subscription.
type Subscription struct {
	// C delivers notifications in arrival order.
	C <-chan LogNotification

	id int64
}

// LogNotification represents a logs subscription message.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}
