package history

import (
	"context"
	"database/sql"
	"rhythmix/model"
	"time"

	log "github.com/sirupsen/logrus"
)

// SongPlays is a song with the number of times it was played.
type SongPlays struct {
	Title string
	URL   string
	Plays int
}

type HistoryStore struct {
	log *log.Logger
	db  *sql.DB
	idx int
}

// NewHistoryStore creates an object that handles
// recording the played songs in the database.
func NewHistoryStore(db *sql.DB, log *log.Logger) *HistoryStore {
	return &HistoryStore{
		log: log,
		db:  db,
		idx: 0,
	}
}

// Init creates the required tables for the History store.
func (store *HistoryStore) Init(ctx context.Context) error {
	if _, err := store.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS "play_history" (
            chat_id VARCHAR(100) NOT NULL,
            title TEXT NOT NULL,
            url TEXT NOT NULL,
            platform VARCHAR(20) NOT NULL,
            requester_id VARCHAR(100) NOT NULL,
            duration_seconds INTEGER NOT NULL,
            played_at TIMESTAMP NOT NULL
        );
    `); err != nil {
		return err
	}
	_, err := store.db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS "play_history_chat_id_idx"
        ON "play_history" (chat_id);
    `)
	return err
}

// Destroy drops the created tables for the History store.
func (store *HistoryStore) Destroy(ctx context.Context) error {
	_, err := store.db.ExecContext(ctx, `DROP TABLE IF EXISTS "play_history";`)
	return err
}

// RecordPlay records that the provided song
// started playing in the chat.
func (store *HistoryStore) RecordPlay(ctx context.Context, chatID string, song *model.Song) error {
	i, t := store.getIdx(), time.Now()
	store.log.WithFields(log.Fields{
		"ChatID": chatID,
		"SongID": song.ID,
	}).Tracef("[%d]Start: Record play", i)

	url := song.WebpageURL
	if len(url) == 0 {
		url = song.Locator
	}
	if _, err := store.db.ExecContext(ctx, `
        INSERT INTO "play_history" (
            chat_id, title, url, platform,
            requester_id, duration_seconds, played_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7);
        `,
		chatID,
		song.Title,
		url,
		string(song.Platform),
		song.RequesterID,
		song.Duration,
		time.Now().UTC(),
	); err != nil {
		store.log.Tracef("[%d]Error: %v", i, err)
		return err
	}
	store.log.WithField(
		"Latency", time.Since(t),
	).Tracef("[%d]Done : Play recorded", i)
	return nil
}

// CountPlays returns the number of songs played in the chat.
func (store *HistoryStore) CountPlays(ctx context.Context, chatID string) (int, error) {
	var count int
	err := store.db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM "play_history" WHERE chat_id = $1;
        `,
		chatID,
	).Scan(&count)
	return count, err
}

// TotalPlays returns the number of songs played in all chats
// and the number of chats they were played in.
func (store *HistoryStore) TotalPlays(ctx context.Context) (plays int, chats int, err error) {
	err = store.db.QueryRowContext(ctx, `
        SELECT COUNT(*), COUNT(DISTINCT chat_id) FROM "play_history";
    `).Scan(&plays, &chats)
	return
}

// TopSongs returns the chat's most played songs, at most limit of them.
func (store *HistoryStore) TopSongs(ctx context.Context, chatID string, limit int) ([]*SongPlays, error) {
	rows, err := store.db.QueryContext(ctx, `
        SELECT title, url, COUNT(*) AS plays
        FROM "play_history"
        WHERE chat_id = $1
        GROUP BY title, url
        ORDER BY plays DESC, title ASC
        LIMIT $2;
        `,
		chatID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	songs := make([]*SongPlays, 0)
	for rows.Next() {
		song := new(SongPlays)
		if err := rows.Scan(&song.Title, &song.URL, &song.Plays); err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

func (store *HistoryStore) getIdx() int {
	i := store.idx
	store.idx = (store.idx + 1) % 100
	return i
}
