// Package remote carries a history.Store over a WebSocket.
//
// A server exposes a Store with NewHandler; a client obtains a Store bound to
// it with Dial. Frames are JSON text messages:
//
//	{"type":"location","location":{...}}          server -> client
//	{"type":"navigate","id":1,"to":"/a"}          client -> server
//	{"type":"go","id":2,"delta":-1}               client -> server
//	{"type":"ack","id":1,"error":"..."}           server -> client
//
// The server writes the location frames produced by a request before the
// request's ack, so a client's listeners have seen a change by the time the
// Navigate that caused it returns.
package remote

import (
	"encoding/json"
	"errors"

	"github.com/vango-dev/wayfinder/pkg/history"
)

// Frame types.
const (
	FrameLocation = "location"
	FrameNavigate = "navigate"
	FrameGo       = "go"
	FrameAck      = "ack"
)

var (
	// ErrClosed is returned by client operations after the connection ends.
	ErrClosed = errors.New("remote: connection closed")

	// ErrUnsupported is acked when the served store cannot perform a request.
	ErrUnsupported = errors.New("remote: operation not supported by store")
)

// Frame is one protocol message.
type Frame struct {
	Type     string        `json:"type"`
	ID       uint64        `json:"id,omitempty"`
	To       string        `json:"to,omitempty"`
	Replace  bool          `json:"replace,omitempty"`
	Delta    int           `json:"delta,omitempty"`
	State    any           `json:"state,omitempty"`
	Location *WireLocation `json:"location,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// WireLocation is the JSON form of a history.Location.
type WireLocation struct {
	Pathname string          `json:"pathname"`
	Search   string          `json:"search,omitempty"`
	Hash     string          `json:"hash,omitempty"`
	Key      string          `json:"key"`
	State    json.RawMessage `json:"state,omitempty"`
}

// Error is a failure reported by the server in an ack.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "remote: " + e.Message
}

func encodeLocation(loc history.Location) *WireLocation {
	wire := &WireLocation{
		Pathname: loc.Pathname,
		Search:   loc.Search,
		Hash:     loc.Hash,
		Key:      loc.Key,
	}
	if loc.State != nil {
		if raw, err := json.Marshal(loc.State); err == nil {
			wire.State = raw
		}
	}
	return wire
}

func decodeLocation(wire *WireLocation) history.Location {
	loc := history.Location{
		Pathname: wire.Pathname,
		Search:   wire.Search,
		Hash:     wire.Hash,
		Key:      wire.Key,
	}
	if loc.Pathname == "" {
		loc.Pathname = "/"
	}
	if len(wire.State) > 0 {
		var state any
		if err := json.Unmarshal(wire.State, &state); err == nil {
			loc.State = state
		}
	}
	return loc
}
