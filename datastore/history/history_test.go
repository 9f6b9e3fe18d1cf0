package history_test

import (
	"context"
	"database/sql"
	"rhythmix/datastore/history"
	"rhythmix/model"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type HistoryStoreTestSuite struct {
	suite.Suite
	db    *sql.DB
	store *history.HistoryStore
}

// SetupSuite opens an in-memory sqlite database
// and creates the history store.
func (s *HistoryStoreTestSuite) SetupSuite() {
	db, err := sql.Open("sqlite3", ":memory:")
	s.Require().NoError(err)
	// NOTE: every connection gets its own in-memory database
	db.SetMaxOpenConns(1)
	s.db = db
	s.store = history.NewHistoryStore(db, log.StandardLogger())
}

// SetupTest recreates the tables before every test.
func (s *HistoryStoreTestSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.store.Destroy(ctx))
	s.Require().NoError(s.store.Init(ctx))
}

// TearDownSuite closes the database.
func (s *HistoryStoreTestSuite) TearDownSuite() {
	s.db.Close()
}

func (s *HistoryStoreTestSuite) song(title string, url string) *model.Song {
	return &model.Song{
		ID:          title,
		Title:       title,
		WebpageURL:  url,
		Platform:    model.YouTube,
		RequesterID: "user",
		Duration:    120,
	}
}

// TestIntegrationRecordPlay records plays in two chats and
// checks the counts.
func (s *HistoryStoreTestSuite) TestIntegrationRecordPlay() {
	ctx := context.Background()
	s.NoError(s.store.RecordPlay(ctx, "chat-1", s.song("A", "https://a")))
	s.NoError(s.store.RecordPlay(ctx, "chat-1", s.song("B", "https://b")))
	s.NoError(s.store.RecordPlay(ctx, "chat-2", s.song("A", "https://a")))

	count, err := s.store.CountPlays(ctx, "chat-1")
	s.NoError(err)
	s.Equal(2, count)

	count, err = s.store.CountPlays(ctx, "unknown")
	s.NoError(err)
	s.Equal(0, count)

	plays, chats, err := s.store.TotalPlays(ctx)
	s.NoError(err)
	s.Equal(3, plays)
	s.Equal(2, chats)
}

// TestIntegrationRecordPlayLocator falls back to the locator
// when the song has no webpage url.
func (s *HistoryStoreTestSuite) TestIntegrationRecordPlayLocator() {
	ctx := context.Background()
	song := s.song("A", "")
	song.Locator = "/tmp/a.opus"
	s.NoError(s.store.RecordPlay(ctx, "chat", song))

	top, err := s.store.TopSongs(ctx, "chat", 5)
	s.NoError(err)
	s.Require().Len(top, 1)
	s.Equal("/tmp/a.opus", top[0].URL)
}

// TestIntegrationTopSongs checks the ordering and the limit
// of the most played songs.
func (s *HistoryStoreTestSuite) TestIntegrationTopSongs() {
	ctx := context.Background()
	for _, title := range []string{"B", "A", "C", "A", "C", "A", "D"} {
		s.NoError(s.store.RecordPlay(ctx, "chat", s.song(title, "https://"+title)))
	}
	s.NoError(s.store.RecordPlay(ctx, "other", s.song("D", "https://D")))

	top, err := s.store.TopSongs(ctx, "chat", 3)
	s.NoError(err)
	s.Require().Len(top, 3)
	s.Equal("A", top[0].Title)
	s.Equal(3, top[0].Plays)
	s.Equal("C", top[1].Title)
	s.Equal(2, top[1].Plays)
	// NOTE: ties are ordered by title
	s.Equal("B", top[2].Title)
	s.Equal(1, top[2].Plays)

	top, err = s.store.TopSongs(ctx, "empty", 3)
	s.NoError(err)
	s.Empty(top)
}

// TestHistoryStoreTestSuite runs all tests under
// the HistoryStoreTestSuite
func TestHistoryStoreTestSuite(t *testing.T) {
	suite.Run(t, new(HistoryStoreTestSuite))
}
