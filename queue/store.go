// Package queue holds the per-chat playback queues and the
// song currently playing in each chat.
package queue

import (
	"context"
	"errors"
	"rhythmix/model"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	log "github.com/sirupsen/logrus"
)

var ErrQueueFull = errors.New("queue is full")

type Configuration struct {
	MaxSize  int `yaml:"MaxSize" validate:"required,min=1" env:"MAX_QUEUE_SIZE"`
	MaxChats int `yaml:"MaxChats" validate:"required,min=1"`
}

type Store struct {
	log    *log.Logger
	config *Configuration
	mutex  sync.Mutex
	chats  map[string]*Chat
	idle   *simplelru.LRU[string, *Chat]
}

// NewStore constructs an object that holds the playback state of
// every chat. States are created lazily and the states of idle chats
// are evicted once more than MaxChats of them accumulate.
func NewStore(config *Configuration, logger *log.Logger) (*Store, error) {
	store := &Store{
		log:    logger,
		config: config,
		chats:  make(map[string]*Chat),
	}
	idle, err := simplelru.NewLRU[string, *Chat](config.MaxChats, store.onEvict)
	if err != nil {
		return nil, err
	}
	store.idle = idle
	logger.Debug("Queue store created")
	return store, nil
}

// Acquire returns the state of the chat identified by the provided
// chatID, creating it if it does not exist, and holds it exclusively
// until Release is called. It blocks while the chat is held elsewhere.
func (store *Store) Acquire(ctx context.Context, chatID string) (*Chat, error) {
	for {
		store.mutex.Lock()
		chat, ok := store.chats[chatID]
		if !ok {
			chat = newChat(chatID, store.config.MaxSize)
			store.chats[chatID] = chat
		}
		store.mutex.Unlock()

		if err := chat.acquire(ctx); err != nil {
			return nil, err
		}
		if !chat.evicted {
			return chat, nil
		}
		// NOTE: the state was evicted between the lookup
		// and the acquire, a new one is created on retry.
		chat.release()
	}
}

// Release releases the chat acquired with Acquire. Chats left
// idle become candidates for eviction.
func (store *Store) Release(chat *Chat) {
	store.mutex.Lock()
	if store.chats[chat.id] == chat {
		if chat.idle() {
			store.idle.Add(chat.id, chat)
		} else {
			store.idle.Remove(chat.id)
		}
	}
	store.mutex.Unlock()
	chat.release()
}

// Snapshot returns a read-only copy of the chat's state,
// without creating it if it does not exist.
func (store *Store) Snapshot(ctx context.Context, chatID string) (*model.Snapshot, error) {
	store.mutex.Lock()
	chat, ok := store.chats[chatID]
	store.mutex.Unlock()
	if !ok {
		return &model.Snapshot{
			ChatID: chatID,
			State:  model.Idle,
			Queue:  make([]*model.Song, 0),
		}, nil
	}
	if err := chat.acquire(ctx); err != nil {
		return nil, err
	}
	defer chat.release()
	return chat.Snapshot(), nil
}

// Size returns the number of chats with a stored state.
func (store *Store) Size() int {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return len(store.chats)
}

// Enqueue appends the song to the tail of the chat's queue.
func (store *Store) Enqueue(ctx context.Context, chatID string, song *model.Song) error {
	chat, err := store.Acquire(ctx, chatID)
	if err != nil {
		return err
	}
	defer store.Release(chat)
	return chat.Enqueue(song)
}

// DequeueFront removes and returns the head of the chat's
// queue, nil if the queue is empty.
func (store *Store) DequeueFront(ctx context.Context, chatID string) (*model.Song, error) {
	chat, err := store.Acquire(ctx, chatID)
	if err != nil {
		return nil, err
	}
	defer store.Release(chat)
	return chat.DequeueFront(), nil
}

// PeekAll returns the chat's pending songs in request order.
func (store *Store) PeekAll(ctx context.Context, chatID string) ([]*model.Song, error) {
	snapshot, err := store.Snapshot(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return snapshot.Queue, nil
}

// Clear empties the chat's queue, the song currently
// playing is not affected.
func (store *Store) Clear(ctx context.Context, chatID string) ([]*model.Song, error) {
	chat, err := store.Acquire(ctx, chatID)
	if err != nil {
		return nil, err
	}
	defer store.Release(chat)
	return chat.Clear(), nil
}

// onEvict is called by the idle lru, with the store's mutex held,
// whenever a chat leaves it. Only chats that are still idle and
// not held by anyone are dropped.
func (store *Store) onEvict(chatID string, chat *Chat) {
	if !chat.tryAcquire() {
		return
	}
	defer chat.release()
	if !chat.idle() || store.chats[chatID] != chat {
		return
	}
	chat.evicted = true
	delete(store.chats, chatID)
	store.log.WithField("ChatID", chatID).Trace("Evicted idle chat state")
}
