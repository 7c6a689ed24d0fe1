package message

import (
	"encoding/json"
)

// cloudEnvelope mirrors the structure sent by Meta's WhatsApp Cloud API
// webhook callbacks: an entry list, each entry carrying changes, each change
// carrying the actual message batch plus a contacts array for display names.
type cloudEnvelope struct {
	Object string       `json:"object"`
	Entry  []cloudEntry `json:"entry"`
}

type cloudEntry struct {
	ID      string        `json:"id"`
	Changes []cloudChange `json:"changes"`
}

type cloudChange struct {
	Field string     `json:"field"`
	Value cloudValue `json:"value"`
}

type cloudValue struct {
	MessagingProduct string         `json:"messaging_product"`
	Contacts         []cloudContact `json:"contacts"`
	Messages         []cloudMessage `json:"messages"`
}

type cloudContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type cloudMessage struct {
	From        string            `json:"from"`
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Text        *cloudText        `json:"text,omitempty"`
	Image       *cloudMedia       `json:"image,omitempty"`
	Video       *cloudMedia       `json:"video,omitempty"`
	Audio       *cloudMedia       `json:"audio,omitempty"`
	Document    *cloudMedia       `json:"document,omitempty"`
	Sticker     *cloudMedia       `json:"sticker,omitempty"`
	Location    *cloudLocation    `json:"location,omitempty"`
	Interactive *cloudInteractive `json:"interactive,omitempty"`
}

type cloudText struct {
	Body string `json:"body"`
}

type cloudMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}

type cloudLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type cloudInteractive struct {
	Type        string          `json:"type"`
	ButtonReply *cloudListReply `json:"button_reply,omitempty"`
	ListReply   *cloudListReply `json:"list_reply,omitempty"`
}

type cloudListReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CloudNormalizer converts WhatsApp Cloud API webhook payloads into
// InboundMessages. One delivery may contain several entries, each with
// several changes; only changes on the "messages" field carry messages.
type CloudNormalizer struct{}

// Compile-time check that CloudNormalizer implements Normalizer.
var _ Normalizer = (*CloudNormalizer)(nil)

// NewCloudNormalizer creates a new CloudNormalizer.
func NewCloudNormalizer() *CloudNormalizer {
	return &CloudNormalizer{}
}

// Provider returns the dialect name.
func (n *CloudNormalizer) Provider() string {
	return "whatsapp_cloud"
}

// Normalize walks every entry × change of a Cloud API delivery. Status-only
// changes and reaction messages are dropped. The contacts array is
// cross-referenced by WhatsApp ID to recover each sender's display name.
func (n *CloudNormalizer) Normalize(payload []byte) ([]*InboundMessage, error) {
	var env cloudEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, &MalformedPayloadError{Provider: n.Provider(), Reason: "invalid JSON envelope"}
	}

	var out []*InboundMessage
	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			names := contactNames(change.Value.Contacts)
			for _, msg := range change.Value.Messages {
				normalized := n.normalizeOne(msg, names[msg.From])
				if normalized != nil {
					out = append(out, normalized)
				}
			}
		}
	}
	return out, nil
}

// normalizeOne converts a single Cloud message, or returns nil for message
// types that must not produce a record (reactions).
func (n *CloudNormalizer) normalizeOne(msg cloudMessage, senderName string) *InboundMessage {
	out := &InboundMessage{
		Channel:     ChannelWhatsApp,
		ExternalID:  msg.ID,
		Sender:      PhoneIdentity(msg.From),
		SenderName:  senderName,
		ContentType: ContentText,
	}

	switch msg.Type {
	case "text":
		if msg.Text != nil {
			out.Content = msg.Text.Body
		}
	case "image":
		out.ContentType = ContentImage
		if msg.Image != nil {
			out.Content = msg.Image.Caption
			// The media ID is carried as-is; resolving it to a URL needs a
			// separate authenticated download call that is not made here.
			out.MediaURL = msg.Image.ID
		}
	case "video":
		out.ContentType = ContentVideo
		if msg.Video != nil {
			out.Content = msg.Video.Caption
		}
	case "audio":
		out.ContentType = ContentAudio
		out.Content = placeholderAudio
	case "document":
		out.ContentType = ContentDocument
		out.Content = placeholderDocument
		if msg.Document != nil {
			switch {
			case msg.Document.Caption != "":
				out.Content = msg.Document.Caption
			case msg.Document.Filename != "":
				out.Content = msg.Document.Filename
			}
		}
	case "sticker":
		out.ContentType = ContentSticker
		out.Content = placeholderSticker
	case "location":
		out.ContentType = ContentLocation
		if msg.Location != nil {
			out.Content = formatLatLong(msg.Location.Latitude, msg.Location.Longitude)
		}
	case "contacts":
		out.ContentType = ContentContact
		out.Content = placeholderContact
	case "interactive":
		out.Content = interactiveContent(msg.Interactive)
	case "reaction":
		// Reactions never become records.
		return nil
	default:
		out.Content = "[" + msg.Type + "]"
	}

	return out
}

// interactiveContent extracts the selected button or list title from an
// interactive reply.
func interactiveContent(i *cloudInteractive) string {
	if i != nil {
		if i.ButtonReply != nil && i.ButtonReply.Title != "" {
			return i.ButtonReply.Title
		}
		if i.ListReply != nil && i.ListReply.Title != "" {
			return i.ListReply.Title
		}
	}
	return placeholderInteractive
}

// contactNames indexes the change's contacts array by WhatsApp ID.
func contactNames(contacts []cloudContact) map[string]string {
	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		if c.WaID != "" {
			names[c.WaID] = c.Profile.Name
		}
	}
	return names
}
