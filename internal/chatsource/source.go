// Package chatsource abstracts the external chat platform from which
// trading-signal messages are ingested (spec §1 "an opaque upstream
// event producer"; §4.2 Inputs).
package chatsource

import "time"

// EventKind is the chat-platform action that produced an Event (spec
// §4.2's state-machine table: new/edited/deleted).
type EventKind string

const (
	EventNew     EventKind = "new"
	EventEdited  EventKind = "edited"
	EventDeleted EventKind = "deleted"
)

// Event is a normalized chat event (spec §4.2 Inputs: "Normalized event
// {kind, chat_external_id, message_external_id, text, post_time,
// reply_to_external_id?}").
type Event struct {
	Kind               EventKind
	ChatExternalID     string
	MessageExternalID  string
	Text               string
	PostTime           time.Time
	ReplyToExternalID  string // empty if not a reply
}

// Source is the boundary between a concrete chat platform adapter and
// the lifecycle processor: a single channel of normalized Events.
type Source interface {
	// Events returns a channel of normalized Events. The channel is
	// closed when the Source's underlying connection ends (error or
	// clean shutdown via Close).
	Events() <-chan Event

	// Close releases the Source's underlying connection.
	Close() error
}
