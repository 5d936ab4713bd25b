package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MessageKind is the key wrapping a message body on the wire.
type MessageKind string

const (
	MessageKindOrder   MessageKind = "order"
	MessageKindCantDo  MessageKind = "cant-do"
	MessageKindDispute MessageKind = "dispute"
	MessageKindRate    MessageKind = "rate"
	MessageKindDM      MessageKind = "dm"
)

// IsValid ...
func (k MessageKind) IsValid() bool {
	switch k {
	case MessageKindOrder, MessageKindCantDo, MessageKindDispute,
		MessageKindRate, MessageKindDM:
		return true
	}
	return false
}

// Message is the content of a Mostro rumor:
//
//	{"<kind>": {"version", "request_id"?, "trade_index"?, "id"?, "action", "content"}}
//
// RequestID is nil when the sender did not set one: responses to a client
// request echo it, broadcast status updates do not.
type Message struct {
	Kind       MessageKind
	Version    int
	RequestID  *uint64
	TradeIndex *uint32
	ID         string
	Action     Action
	Content    json.RawMessage
}

type messageBody struct {
	Version    int             `json:"version"`
	RequestID  *uint64         `json:"request_id,omitempty"`
	TradeIndex *uint32         `json:"trade_index,omitempty"`
	ID         string          `json:"id,omitempty"`
	Action     Action          `json:"action"`
	Content    json.RawMessage `json:"content"`
}

// NewMessage returns a message of the current protocol version. Content is
// marshaled as is, nil gives a null content.
func NewMessage(
	kind MessageKind, action Action, orderID string, content interface{},
) (*Message, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageKind, kind)
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encoding %s content: %w", action, err)
	}
	return &Message{
		Kind:    kind,
		Version: ProtocolVersion,
		ID:      orderID,
		Action:  action,
		Content: raw,
	}, nil
}

// SetRequestID ...
func (m *Message) SetRequestID(id uint64) {
	m.RequestID = &id
}

// SetTradeIndex ...
func (m *Message) SetTradeIndex(index uint32) {
	m.TradeIndex = &index
}

// HasContent reports whether the content is anything but null.
func (m *Message) HasContent() bool {
	trimmed := bytes.TrimSpace(m.Content)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// IsCantDo reports whether Mostro refused the request.
func (m *Message) IsCantDo() bool {
	return m.Kind == MessageKindCantDo || m.Action == ActionCantDo
}

// Encode returns the rumor content for the message.
func (m *Message) Encode() (string, error) {
	buf, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func (m Message) MarshalJSON() ([]byte, error) {
	if !m.Kind.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageKind, m.Kind)
	}
	content := m.Content
	if len(content) == 0 {
		content = json.RawMessage("null")
	}
	return json.Marshal(map[MessageKind]messageBody{
		m.Kind: {
			Version:    m.Version,
			RequestID:  m.RequestID,
			TradeIndex: m.TradeIndex,
			ID:         m.ID,
			Action:     m.Action,
			Content:    content,
		},
	})
}

// UnmarshalJSON accepts both the plain object form and the
// [message, signature] tuple form.
func (m *Message) UnmarshalJSON(buf []byte) error {
	buf = bytes.TrimSpace(buf)
	if len(buf) > 0 && buf[0] == '[' {
		var tuple []json.RawMessage
		if err := json.Unmarshal(buf, &tuple); err != nil {
			return err
		}
		if len(tuple) < 1 || len(tuple) > 2 {
			return ErrMalformedMessage
		}
		buf = bytes.TrimSpace(tuple[0])
		if len(buf) == 0 || buf[0] != '{' {
			return ErrMalformedMessage
		}
	}

	var wrapper map[MessageKind]json.RawMessage
	if err := json.Unmarshal(buf, &wrapper); err != nil {
		return err
	}
	if len(wrapper) != 1 {
		return ErrMalformedMessage
	}
	for kind, rawBody := range wrapper {
		if !kind.IsValid() {
			return fmt.Errorf("%w: %s", ErrUnknownMessageKind, kind)
		}
		var body messageBody
		if err := json.Unmarshal(rawBody, &body); err != nil {
			return err
		}
		if body.Action == "" {
			return fmt.Errorf("%w: missing action", ErrMalformedMessage)
		}
		*m = Message{
			Kind:       kind,
			Version:    body.Version,
			RequestID:  body.RequestID,
			TradeIndex: body.TradeIndex,
			ID:         body.ID,
			Action:     body.Action,
			Content:    body.Content,
		}
	}
	return nil
}

// DecodeMessage parses the content of a rumor.
func DecodeMessage(content string) (*Message, error) {
	msg := &Message{}
	if err := json.Unmarshal([]byte(content), msg); err != nil {
		return nil, newDecodeError("message", "%s", err)
	}
	return msg, nil
}

// Order returns the order carried by new-order like messages.
func (m *Message) Order() (*Order, error) {
	var content OrderContent
	if !m.HasContent() {
		return nil, ErrMissingOrder
	}
	if err := json.Unmarshal(m.Content, &content); err != nil {
		return nil, newDecodeError("content", "%s", err)
	}
	if content.Order == nil {
		return nil, ErrMissingOrder
	}
	return content.Order, nil
}

// PaymentRequest returns the payment request carried by add-invoice and
// pay-invoice messages.
func (m *Message) PaymentRequest() (*PaymentRequest, error) {
	var content PaymentRequestContent
	if !m.HasContent() {
		return nil, ErrMissingPaymentRequest
	}
	if err := json.Unmarshal(m.Content, &content); err != nil {
		return nil, newDecodeError("content", "%s", err)
	}
	if content.PaymentRequest == nil {
		return nil, ErrMissingPaymentRequest
	}
	return content.PaymentRequest, nil
}

// CantDoReason returns the reason of a cant-do message, if any.
func (m *Message) CantDoReason() string {
	var content CantDoContent
	if !m.HasContent() {
		return ""
	}
	if err := json.Unmarshal(m.Content, &content); err != nil {
		return ""
	}
	return content.CantDo
}

// Text returns the text of a dm message, if any.
func (m *Message) Text() string {
	var content TextContent
	if !m.HasContent() {
		return ""
	}
	if err := json.Unmarshal(m.Content, &content); err != nil {
		return ""
	}
	return content.TextMessage
}
