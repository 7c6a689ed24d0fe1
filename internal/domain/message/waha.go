package message

import (
	"encoding/json"
	"strconv"
	"strings"
)

// wahaEnvelope is the webhook body a WAHA instance posts for session events.
type wahaEnvelope struct {
	Event   string       `json:"event"`
	Payload *wahaPayload `json:"payload"`
}

// wahaPayload carries the message fields of a WAHA "message" event.
type wahaPayload struct {
	ID         string        `json:"id"`
	From       string        `json:"from"`
	Body       string        `json:"body"`
	Type       string        `json:"type"`
	FromMe     bool          `json:"fromMe"`
	HasMedia   bool          `json:"hasMedia"`
	MediaURL   string        `json:"mediaUrl"`
	NotifyName string        `json:"notifyName"`
	Location   *wahaLocation `json:"location"`
}

type wahaLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WAHANormalizer converts WAHA webhook payloads into InboundMessages.
type WAHANormalizer struct{}

// Compile-time check that WAHANormalizer implements Normalizer.
var _ Normalizer = (*WAHANormalizer)(nil)

// NewWAHANormalizer creates a new WAHANormalizer.
func NewWAHANormalizer() *WAHANormalizer {
	return &WAHANormalizer{}
}

// Provider returns the dialect name.
func (n *WAHANormalizer) Provider() string {
	return "waha"
}

// Normalize parses a WAHA webhook body. Non-message events and self-sent
// messages yield no records.
func (n *WAHANormalizer) Normalize(payload []byte) ([]*InboundMessage, error) {
	var env wahaEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, &MalformedPayloadError{Provider: n.Provider(), Reason: "invalid JSON envelope"}
	}
	if env.Event != "message" {
		return nil, nil
	}
	if env.Payload == nil {
		return nil, &MalformedPayloadError{Provider: n.Provider(), Reason: "message event without payload"}
	}
	if env.Payload.FromMe {
		return nil, nil
	}

	p := env.Payload

	contentType := ContentText
	if p.HasMedia {
		contentType = wahaContentType(p.Type)
	}

	content := p.Body
	if content == "" && contentType != ContentText {
		content = wahaPlaceholder(contentType, p.Location)
	}

	msg := &InboundMessage{
		Channel:     ChannelWhatsApp,
		ExternalID:  p.ID,
		Sender:      PhoneIdentity(wahaPhone(p.From)),
		SenderName:  p.NotifyName,
		ContentType: contentType,
		Content:     content,
		MediaURL:    p.MediaURL,
	}
	return []*InboundMessage{msg}, nil
}

// wahaPhone extracts the bare phone number from a WAHA chat id such as
// "5581999998888@c.us". The leading BR country code is dropped to match how
// shop contact numbers are stored.
// TODO: make the stripped country code configurable; non-BR numbers that
// happen to start with 55 currently lose their prefix.
func wahaPhone(from string) string {
	phone := strings.TrimSuffix(from, "@c.us")
	phone = strings.TrimPrefix(phone, "55")
	return phone
}

// wahaContentType maps a WAHA media type tag onto the canonical enum.
// Tags that already match pass through; WAHA-specific tags are translated.
func wahaContentType(tag string) ContentType {
	switch tag {
	case "image":
		return ContentImage
	case "video":
		return ContentVideo
	case "audio", "ptt":
		return ContentAudio
	case "sticker":
		return ContentSticker
	case "location":
		return ContentLocation
	case "vcard", "multi_vcard":
		return ContentContact
	default:
		return ContentDocument
	}
}

// wahaPlaceholder synthesizes display content for captionless media.
func wahaPlaceholder(t ContentType, loc *wahaLocation) string {
	switch t {
	case ContentAudio:
		return placeholderAudio
	case ContentDocument:
		return placeholderDocument
	case ContentSticker:
		return placeholderSticker
	case ContentContact:
		return placeholderContact
	case ContentLocation:
		if loc != nil {
			return formatLatLong(loc.Latitude, loc.Longitude)
		}
		return ""
	default:
		// image and video stay empty when no caption exists
		return ""
	}
}

// formatLatLong renders coordinates as a "lat,long" string.
func formatLatLong(lat, long float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(long, 'f', -1, 64)
}
