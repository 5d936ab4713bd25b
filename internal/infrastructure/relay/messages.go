package relay

import (
	"encoding/json"
	"fmt"

	"github.com/mostrop2p/mostro-go/pkg/nostr"
)

const (
	labelEvent  = "EVENT"
	labelReq    = "REQ"
	labelClose  = "CLOSE"
	labelOK     = "OK"
	labelEOSE   = "EOSE"
	labelNotice = "NOTICE"
	labelClosed = "CLOSED"
)

// relayMessage is any message a relay sends to a client. Only the fields of
// the given Type are set.
type relayMessage struct {
	Type           string
	SubscriptionID string
	Event          *nostr.Event
	EventID        string
	Accepted       bool
	Message        string
}

func parseRelayMessage(data []byte) (*relayMessage, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedRelayMessage, err)
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: too few elements", ErrMalformedRelayMessage)
	}

	msg := &relayMessage{}
	if err := json.Unmarshal(raw[0], &msg.Type); err != nil {
		return nil, fmt.Errorf("%w: label: %s", ErrMalformedRelayMessage, err)
	}

	var err error
	switch msg.Type {
	case labelEvent:
		if len(raw) < 3 {
			return nil, fmt.Errorf("%w: EVENT without event", ErrMalformedRelayMessage)
		}
		if err = json.Unmarshal(raw[1], &msg.SubscriptionID); err == nil {
			msg.Event = &nostr.Event{}
			err = json.Unmarshal(raw[2], msg.Event)
		}
	case labelOK:
		if len(raw) < 3 {
			return nil, fmt.Errorf("%w: OK without status", ErrMalformedRelayMessage)
		}
		if err = json.Unmarshal(raw[1], &msg.EventID); err == nil {
			err = json.Unmarshal(raw[2], &msg.Accepted)
		}
		if err == nil && len(raw) > 3 {
			err = json.Unmarshal(raw[3], &msg.Message)
		}
	case labelEOSE:
		err = json.Unmarshal(raw[1], &msg.SubscriptionID)
	case labelNotice:
		err = json.Unmarshal(raw[1], &msg.Message)
	case labelClosed:
		if err = json.Unmarshal(raw[1], &msg.SubscriptionID); err == nil && len(raw) > 2 {
			err = json.Unmarshal(raw[2], &msg.Message)
		}
	default:
		return nil, fmt.Errorf("%w: unknown label %q", ErrMalformedRelayMessage, msg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrMalformedRelayMessage, msg.Type, err)
	}
	return msg, nil
}

func reqMessage(subID string, filters ...nostr.Filter) []interface{} {
	msg := []interface{}{labelReq, subID}
	for _, f := range filters {
		msg = append(msg, f)
	}
	return msg
}

func closeMessage(subID string) []interface{} {
	return []interface{}{labelClose, subID}
}

func eventMessage(ev *nostr.Event) []interface{} {
	return []interface{}{labelEvent, ev}
}
