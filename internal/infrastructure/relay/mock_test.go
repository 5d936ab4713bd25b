package relay_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/mostrop2p/mostro-go/pkg/nostr"
)

type relaySub struct {
	conn    *serverConn
	filters []nostr.Filter
}

type serverConn struct {
	lock sync.Mutex
	ws   *websocket.Conn
}

func (c *serverConn) send(msg ...interface{}) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.ws.WriteJSON(msg)
}

// mockRelay is a minimal in-process relay: it stores every accepted event,
// answers REQ with the stored matches followed by EOSE and forwards new
// events to the open subscriptions.
type mockRelay struct {
	t      *testing.T
	server *httptest.Server

	lock   sync.Mutex
	events []*nostr.Event
	subs   map[string]*relaySub
	conns  []*serverConn
	reqs   int
	reject string
}

func newMockRelay(t *testing.T) *mockRelay {
	r := &mockRelay{t: t, subs: make(map[string]*relaySub)}
	r.server = httptest.NewServer(http.HandlerFunc(r.handle))
	t.Cleanup(r.server.Close)
	return r
}

func (r *mockRelay) url() string {
	return "ws" + strings.TrimPrefix(r.server.URL, "http")
}

func (r *mockRelay) handle(w http.ResponseWriter, req *http.Request) {
	upgrader := websocket.Upgrader{}
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	conn := &serverConn{ws: ws}
	r.lock.Lock()
	r.conns = append(r.conns, conn)
	r.lock.Unlock()

	defer ws.Close()
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg []json.RawMessage
		if err := json.Unmarshal(data, &msg); err != nil || len(msg) < 2 {
			continue
		}
		var label string
		json.Unmarshal(msg[0], &label)

		switch label {
		case "EVENT":
			ev := &nostr.Event{}
			if err := json.Unmarshal(msg[1], ev); err != nil {
				continue
			}
			r.onEvent(conn, ev)
		case "REQ":
			var subID string
			json.Unmarshal(msg[1], &subID)
			filters := make([]nostr.Filter, 0, len(msg)-2)
			for _, raw := range msg[2:] {
				var f nostr.Filter
				if err := json.Unmarshal(raw, &f); err == nil {
					filters = append(filters, f)
				}
			}
			r.onReq(conn, subID, filters)
		case "CLOSE":
			var subID string
			json.Unmarshal(msg[1], &subID)
			r.lock.Lock()
			delete(r.subs, subID)
			r.lock.Unlock()
		}
	}
}

func (r *mockRelay) onEvent(conn *serverConn, ev *nostr.Event) {
	r.lock.Lock()
	if r.reject != "" {
		reason := r.reject
		r.lock.Unlock()
		conn.send("OK", ev.ID, false, reason)
		return
	}
	r.events = append(r.events, ev)
	subs := make(map[string]*relaySub, len(r.subs))
	for id, sub := range r.subs {
		subs[id] = sub
	}
	r.lock.Unlock()

	conn.send("OK", ev.ID, true, "")
	for id, sub := range subs {
		if matchesAny(sub.filters, ev) {
			sub.conn.send("EVENT", id, ev)
		}
	}
}

func (r *mockRelay) onReq(conn *serverConn, subID string, filters []nostr.Filter) {
	r.lock.Lock()
	r.subs[subID] = &relaySub{conn: conn, filters: filters}
	r.reqs++
	stored := append([]*nostr.Event(nil), r.events...)
	r.lock.Unlock()

	for _, ev := range stored {
		if matchesAny(filters, ev) {
			conn.send("EVENT", subID, ev)
		}
	}
	conn.send("EOSE", subID)
}

// inject sends an event to every open subscription without checks.
func (r *mockRelay) inject(ev *nostr.Event) {
	r.lock.Lock()
	subs := make(map[string]*relaySub, len(r.subs))
	for id, sub := range r.subs {
		subs[id] = sub
	}
	r.lock.Unlock()

	for id, sub := range subs {
		sub.conn.send("EVENT", id, ev)
	}
}

// dropConnections closes every client connection, server side.
func (r *mockRelay) dropConnections() {
	r.lock.Lock()
	conns := r.conns
	r.conns = nil
	r.subs = make(map[string]*relaySub)
	r.lock.Unlock()

	for _, c := range conns {
		c.ws.Close()
	}
}

func (r *mockRelay) setReject(reason string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.reject = reason
}

func (r *mockRelay) numOfReqs() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.reqs
}

func matchesAny(filters []nostr.Filter, ev *nostr.Event) bool {
	for _, f := range filters {
		if f.Matches(ev) {
			return true
		}
	}
	return false
}
