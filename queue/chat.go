package queue

import (
	"context"
	"rhythmix/model"
)

// Chat holds the playback state of a single chat: the pending
// songs in request order and the song currently playing.
// All methods expect the caller to hold the chat, see Store.Acquire.
type Chat struct {
	id         string
	maxSize    int
	songs      []*model.Song
	nowPlaying *model.Song
	failures   map[string]int
	evicted    bool
	lock       chan struct{}
}

func newChat(id string, maxSize int) *Chat {
	return &Chat{
		id:       id,
		maxSize:  maxSize,
		songs:    make([]*model.Song, 0),
		failures: make(map[string]int),
		lock:     make(chan struct{}, 1),
	}
}

// ID returns the identifier of the chat
func (chat *Chat) ID() string {
	return chat.id
}

// NowPlaying returns the song currently playing
// in the chat, nil if the chat is idle.
func (chat *Chat) NowPlaying() *model.Song {
	return chat.nowPlaying
}

// State returns Playing if a song is currently
// playing in the chat, Idle otherwise.
func (chat *Chat) State() model.State {
	if chat.nowPlaying != nil {
		return model.Playing
	}
	return model.Idle
}

// Len returns the number of pending songs.
func (chat *Chat) Len() int {
	return len(chat.songs)
}

// Songs returns a copy of the pending songs in request order.
func (chat *Chat) Songs() []*model.Song {
	songs := make([]*model.Song, len(chat.songs))
	copy(songs, chat.songs)
	return songs
}

// Enqueue appends the song to the tail of the queue.
// Returns ErrQueueFull if the queue already holds
// the maximum number of pending songs.
func (chat *Chat) Enqueue(song *model.Song) error {
	if len(chat.songs) >= chat.maxSize {
		return ErrQueueFull
	}
	chat.songs = append(chat.songs, song)
	return nil
}

// DequeueFront removes and returns the head of the queue,
// nil if the queue is empty.
func (chat *Chat) DequeueFront() *model.Song {
	if len(chat.songs) == 0 {
		return nil
	}
	song := chat.songs[0]
	chat.songs[0] = nil
	chat.songs = chat.songs[1:]
	return song
}

// Promote dequeues the head of the queue and makes it the
// song currently playing, so the song is never both queued and
// playing. The previously playing song is discarded.
// Returns nil, and leaves nothing playing, if the queue is empty.
func (chat *Chat) Promote() *model.Song {
	chat.finish()
	chat.nowPlaying = chat.DequeueFront()
	return chat.nowPlaying
}

// Requeue puts the provided song, which failed to start, back to the
// front of the queue unless it has already failed more than maxRetries times.
// It is no longer considered playing either way.
// Returns true if the song was put back.
func (chat *Chat) Requeue(song *model.Song, maxRetries int) bool {
	if chat.nowPlaying == song {
		chat.nowPlaying = nil
	}
	chat.failures[song.ID]++
	if chat.failures[song.ID] > maxRetries {
		delete(chat.failures, song.ID)
		return false
	}
	// NOTE: a requeued song was already admitted, so
	// it may exceed the max size of the queue.
	chat.songs = append([]*model.Song{song}, chat.songs...)
	return true
}

// Failures returns how many times the provided song failed to start.
func (chat *Chat) Failures(song *model.Song) int {
	return chat.failures[song.ID]
}

// Finish marks that nothing is playing and returns
// the song that was playing, if any.
func (chat *Chat) Finish() *model.Song {
	return chat.finish()
}

func (chat *Chat) finish() *model.Song {
	song := chat.nowPlaying
	chat.nowPlaying = nil
	if song != nil {
		delete(chat.failures, song.ID)
	}
	return song
}

// Clear empties the queue without affecting the song currently
// playing. Returns the removed songs.
func (chat *Chat) Clear() []*model.Song {
	removed := chat.songs
	chat.songs = make([]*model.Song, 0)
	for _, song := range removed {
		delete(chat.failures, song.ID)
	}
	return removed
}

// Reset clears both the queue and the song currently playing.
// Returns all the removed songs, the playing one first.
func (chat *Chat) Reset() []*model.Song {
	removed := make([]*model.Song, 0, len(chat.songs)+1)
	if song := chat.finish(); song != nil {
		removed = append(removed, song)
	}
	removed = append(removed, chat.Clear()...)
	chat.failures = make(map[string]int)
	return removed
}

// Snapshot returns a read-only copy of the chat's state.
func (chat *Chat) Snapshot() *model.Snapshot {
	return &model.Snapshot{
		ChatID:     chat.id,
		State:      chat.State(),
		NowPlaying: chat.nowPlaying,
		Queue:      chat.Songs(),
	}
}

func (chat *Chat) idle() bool {
	return chat.nowPlaying == nil && len(chat.songs) == 0
}

func (chat *Chat) acquire(ctx context.Context) error {
	select {
	case chat.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (chat *Chat) tryAcquire() bool {
	select {
	case chat.lock <- struct{}{}:
		return true
	default:
		return false
	}
}

func (chat *Chat) release() {
	<-chat.lock
}
