package outbound

import "context"

// BotMessage is what the conversational bot collaborator accepts. The
// gateway forwards WhatsApp text messages only; other channels never reach
// the bot.
type BotMessage struct {
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	ContactName string `json:"contactName"`
	ChannelType string `json:"channelType"`
}

// BotDispatcher is the outbound port for the rule-based conversation bot.
// Dispatch is fire-and-forget from the gateway's perspective: errors are
// logged by the caller and never retried.
type BotDispatcher interface {
	Dispatch(ctx context.Context, msg BotMessage) error
}
