package message

import (
	"encoding/json"
)

// metaEnvelope mirrors the Meta Messenger Platform webhook body shared by
// Facebook Messenger and Instagram Direct. The two channels arrive on the
// same endpoint and are told apart by the entry id.
type metaEnvelope struct {
	Object string      `json:"object"`
	Entry  []metaEntry `json:"entry"`
}

type metaEntry struct {
	ID        string      `json:"id"`
	Messaging []metaEvent `json:"messaging"`
}

type metaEvent struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message *metaMessage `json:"message"`
}

type metaMessage struct {
	MID         string           `json:"mid"`
	Text        string           `json:"text"`
	IsEcho      bool             `json:"is_echo"`
	Attachments []metaAttachment `json:"attachments"`
}

type metaAttachment struct {
	Type    string `json:"type"`
	Payload struct {
		URL string `json:"url"`
	} `json:"payload"`
}

// MetaNormalizer converts Meta webhook payloads into InboundMessages.
// The channel is disambiguated by comparing each entry id against the
// configured Facebook page id: a match means the message arrived on the
// page's Messenger inbox, anything else is the linked Instagram account.
type MetaNormalizer struct {
	pageID string
}

// Compile-time check that MetaNormalizer implements Normalizer.
var _ Normalizer = (*MetaNormalizer)(nil)

// NewMetaNormalizer creates a MetaNormalizer bound to the configured
// Facebook page id.
func NewMetaNormalizer(pageID string) *MetaNormalizer {
	return &MetaNormalizer{pageID: pageID}
}

// Provider returns the dialect name.
func (n *MetaNormalizer) Provider() string {
	return "meta"
}

// Normalize walks every entry and every nested messaging event. Events
// without a message, echoes, and messages sent by the page itself yield no
// records.
func (n *MetaNormalizer) Normalize(payload []byte) ([]*InboundMessage, error) {
	var env metaEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, &MalformedPayloadError{Provider: n.Provider(), Reason: "invalid JSON envelope"}
	}

	var out []*InboundMessage
	for _, entry := range env.Entry {
		channel := ChannelInstagram
		if entry.ID == n.pageID {
			channel = ChannelFacebook
		}
		for _, event := range entry.Messaging {
			if event.Message == nil || event.Message.IsEcho {
				continue
			}
			if event.Sender.ID == "" || event.Sender.ID == n.pageID {
				continue
			}
			out = append(out, n.normalizeOne(channel, event))
		}
	}
	return out, nil
}

func (n *MetaNormalizer) normalizeOne(channel ChannelType, event metaEvent) *InboundMessage {
	sender := InstagramIdentity(event.Sender.ID)
	if channel == ChannelFacebook {
		sender = FacebookIdentity(event.Sender.ID)
	}

	out := &InboundMessage{
		Channel:     channel,
		ExternalID:  event.Message.MID,
		Sender:      sender,
		ContentType: ContentText,
		Content:     event.Message.Text,
	}

	if len(event.Message.Attachments) > 0 {
		out.ContentType = ContentImage
		out.MediaURL = event.Message.Attachments[0].Payload.URL
	}

	return out
}
