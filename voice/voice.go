// Package voice streams audio into the voice calls of chats.
package voice

import (
	"context"
	"errors"
)

var (
	ErrNoActiveCall  = errors.New("no active voice call in the chat")
	ErrAlreadyJoined = errors.New("already joined the chat's voice call")
	ErrNotInCall     = errors.New("not in the chat's voice call")
	ErrTransport     = errors.New("voice transport failure")
)

// Track is the media streamed into a voice call.
type Track struct {
	ID      string // Identifies the track in the stream ended events
	Locator string // Direct media url or local file path
}

// Event is emitted when the stream of a chat's voice call ends on its own,
// either because the track finished or because the call was lost.
type Event struct {
	ChatID       string
	TrackID      string
	Err          error // Set if the stream ended because of an error
	Disconnected bool  // The bot is no longer in the chat's voice call
}

// Calls controls the voice calls of all chats.
type Calls interface {
	// JoinAndStream joins the chat's voice call and starts streaming the track.
	// Returns ErrAlreadyJoined if a session for the chat already exists and
	// ErrNoActiveCall if the chat has no voice call to join.
	JoinAndStream(ctx context.Context, chatID string, track Track) error
	// SwitchStream replaces the stream of the chat's current session.
	// Returns ErrNotInCall if there is no such session.
	SwitchStream(ctx context.Context, chatID string, track Track) error
	Leave(ctx context.Context, chatID string) error
	Pause(ctx context.Context, chatID string) error
	Resume(ctx context.Context, chatID string) error
	// Events returns the channel on which stream ended events are delivered.
	Events() <-chan Event
}
