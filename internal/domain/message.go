package domain

import "time"

// MessageState is the per-(chat, external_message_id) lifecycle state
// driven by the processor's state machine (spec §4.2).
type MessageState string

const (
	MessageStateNone          MessageState = "NONE"
	MessageStateBare          MessageState = "BARE"
	MessageStateSignalLinked  MessageState = "SIGNAL_LINKED"
	MessageStateReplyLinked   MessageState = "REPLY_LINKED"
	MessageStateReplyAttached MessageState = "SIGNAL_LINKED+REPLY_ATTACHED"
)

// MinTextLen and MaxTextLen bound Message.Text after normalization
// (spec §3, §8 invariant 10).
const (
	MinTextLen = 4
	MaxTextLen = 2000
)

// Message is a record of an observed chat utterance, uniquely keyed by
// (ChatRoomID, ExternalMessageID) (spec §3, §8 invariant 3). Never
// hard-deleted: deletion is modeled by emitting a SignalReply.
type Message struct {
	ID                int64
	ChatRoomID        int64
	ExternalMessageID string
	Text              string
	PostTime          time.Time // UTC, naive (spec §4.2 Time handling)

	SignalID      *int64
	SignalReplyID *int64
}

// State derives the lifecycle state from the message's current links.
func (m *Message) State() MessageState {
	switch {
	case m == nil:
		return MessageStateNone
	case m.SignalReplyID != nil && m.SignalID != nil:
		return MessageStateReplyAttached
	case m.SignalReplyID != nil:
		return MessageStateReplyLinked
	case m.SignalID != nil:
		return MessageStateSignalLinked
	default:
		return MessageStateBare
	}
}
