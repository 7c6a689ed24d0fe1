// Package message defines the canonical inbound-message type system: a
// channel-agnostic representation of any customer message flowing into the
// Novix platform. Every message — regardless of provider (WAHA, WhatsApp
// Cloud API, Meta) — is normalized into an InboundMessage for uniform
// persistence and bot dispatch.
package message

// ChannelType identifies which external messaging provider produced a message.
type ChannelType string

const (
	// ChannelWhatsApp covers both WAHA and WhatsApp Cloud API deliveries.
	ChannelWhatsApp ChannelType = "whatsapp"
	// ChannelInstagram covers Instagram Direct deliveries via the Meta webhook.
	ChannelInstagram ChannelType = "instagram"
	// ChannelFacebook covers Facebook Messenger deliveries via the Meta webhook.
	ChannelFacebook ChannelType = "facebook"
)

// String returns the string representation of the ChannelType.
func (c ChannelType) String() string {
	return string(c)
}

// ContentType categorizes the kind of content a message carries.
// Values are derived from provider-specific type tags, never copied verbatim
// unless the provider's tag already matches.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImage    ContentType = "image"
	ContentVideo    ContentType = "video"
	ContentAudio    ContentType = "audio"
	ContentDocument ContentType = "document"
	ContentSticker  ContentType = "sticker"
	ContentLocation ContentType = "location"
	ContentContact  ContentType = "contact"
)

// String returns the string representation of the ContentType.
func (t ContentType) String() string {
	return string(t)
}

// SenderIdentity tags a sender with exactly one channel-specific identifier.
// Which field is populated matches the message's ChannelType.
type SenderIdentity struct {
	// Phone is the sender's phone number (whatsapp channel only).
	Phone string
	// InstagramID is the Instagram-scoped sender ID (instagram channel only).
	InstagramID string
	// FacebookID is the page-scoped sender ID (facebook channel only).
	FacebookID string
}

// PhoneIdentity returns a SenderIdentity for a WhatsApp sender.
func PhoneIdentity(phone string) SenderIdentity {
	return SenderIdentity{Phone: phone}
}

// InstagramIdentity returns a SenderIdentity for an Instagram sender.
func InstagramIdentity(id string) SenderIdentity {
	return SenderIdentity{InstagramID: id}
}

// FacebookIdentity returns a SenderIdentity for a Facebook sender.
func FacebookIdentity(id string) SenderIdentity {
	return SenderIdentity{FacebookID: id}
}

// Key returns the populated identifier, whichever field it lives in.
func (s SenderIdentity) Key() string {
	switch {
	case s.Phone != "":
		return s.Phone
	case s.InstagramID != "":
		return s.InstagramID
	default:
		return s.FacebookID
	}
}

// InboundMessage is the canonical form every provider payload is normalized
// into. The record is immutable once constructed: normalizers build it and
// hand it off, nothing mutates it afterwards.
type InboundMessage struct {
	// Channel identifies the provider dialect that produced the payload.
	Channel ChannelType
	// ExternalID is the provider-assigned message identifier, used for
	// deduplication by downstream storage. Always populated: empty string
	// when the provider omits it, never absent.
	ExternalID string
	// Sender carries exactly one channel-specific identity field.
	Sender SenderIdentity
	// SenderName is a best-effort display name, empty when unavailable.
	SenderName string
	// ContentType categorizes the payload.
	ContentType ContentType
	// Content is the human-readable text. For non-text types without a
	// caption it holds the synthesized placeholder for the content type.
	Content string
	// MediaURL is set only when the payload carries a directly fetchable
	// URL (or, for WhatsApp Cloud images, the provider media ID). Empty
	// otherwise; no download round-trip is ever made to resolve it.
	MediaURL string
}
