package model

type State string

const (
	Idle    State = "idle"    // Nothing is playing and the queue is empty
	Playing State = "playing" // A song is being streamed into the chat's voice call
)

// Snapshot is a read-only copy of a chat's playback state.
// Modifying it has no effect on the chat.
type Snapshot struct {
	ChatID     string  `json:"chat_id"`
	State      State   `json:"state"`
	NowPlaying *Song   `json:"now_playing"`
	Queue      []*Song `json:"queue"`
}

// Size returns the number of songs in the snapshot,
// including the one currently playing.
func (snapshot *Snapshot) Size() int {
	size := len(snapshot.Queue)
	if snapshot.NowPlaying != nil {
		size++
	}
	return size
}
