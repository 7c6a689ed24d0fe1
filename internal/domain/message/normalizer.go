package message

import "fmt"

// Normalizer converts one provider's webhook payload into canonical
// InboundMessages. Each provider dialect (WAHA, WhatsApp Cloud API, Meta)
// has its own Normalizer implementation that knows how to walk its envelope
// and extract sender, content, and media fields.
//
// Normalizers are pure: they hold no state between calls and never perform
// I/O. Events that must not produce a record (self-sent messages, reactions,
// non-message events) are silently dropped, not errored — a batch with ten
// entries and one reaction yields nine messages and a nil error.
type Normalizer interface {
	// Normalize parses a raw webhook body and returns the canonical
	// messages it contains, in delivery order. A structurally invalid
	// envelope returns a *MalformedPayloadError.
	Normalize(payload []byte) ([]*InboundMessage, error)

	// Provider returns the dialect name this normalizer handles
	// (e.g., "waha").
	Provider() string
}

// MalformedPayloadError indicates a provider envelope missing its expected
// structure. Callers skip the payload and acknowledge the delivery anyway,
// so the provider does not retry a body that will never parse.
type MalformedPayloadError struct {
	Provider string
	Reason   string
}

// Error implements the error interface.
func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed %s payload: %s", e.Provider, e.Reason)
}

// Bracketed placeholder strings synthesized when a non-text message carries
// no caption. These match what the storefront renders for media messages.
const (
	placeholderAudio       = "[Áudio]"
	placeholderDocument    = "[Documento]"
	placeholderSticker     = "[Sticker]"
	placeholderContact     = "[Contato compartilhado]"
	placeholderInteractive = "[Resposta interativa]"
)
