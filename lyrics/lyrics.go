// Package lyrics finds the lyrics of songs on lyrics.ovh
package lyrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"rhythmix/client"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("lyrics not found")

// maxSuggestions is the number of suggested songs that are
// tried before giving up.
const maxSuggestions = 3

type Configuration struct {
	LogLevel log.Level     `yaml:"LogLevel" validate:"required" env:"LOG_LEVEL"`
	BaseURL  string        `yaml:"BaseURL" validate:"required,url"`
	Timeout  time.Duration `yaml:"Timeout" validate:"required"`
}

// Lyrics of a single song.
type Lyrics struct {
	Artist string
	Title  string
	Text   string
}

type Lyricist struct {
	log    *log.Logger
	client *client.BaseClient
}

type suggestResponse struct {
	Data []struct {
		Title  string `json:"title"`
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
	} `json:"data"`
}

type lyricsResponse struct {
	Lyrics string `json:"lyrics"`
}

// NewLyricist creates an object that searches
// for the lyrics of songs.
func NewLyricist(config *Configuration) *Lyricist {
	l := log.New()
	l.SetLevel(config.LogLevel)
	l.Debug("Lyricist created")
	return &Lyricist{
		log:    l,
		client: client.NewBaseClient(config.BaseURL, config.Timeout),
	}
}

// Find searches for a song matching the provided name and
// returns its lyrics. Returns ErrNotFound when none of the
// suggested songs have lyrics.
func (lyricist *Lyricist) Find(ctx context.Context, name string) (*Lyrics, error) {
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return nil, ErrNotFound
	}
	suggestions, err := lyricist.suggest(ctx, name)
	if err != nil {
		return nil, err
	}
	for i, s := range suggestions.Data {
		if i >= maxSuggestions {
			break
		}
		text, err := lyricist.fetch(ctx, s.Artist.Name, s.Title)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		lyricist.log.WithFields(log.Fields{
			"Query":  name,
			"Artist": s.Artist.Name,
			"Title":  s.Title,
		}).Trace("Found lyrics")
		return &Lyrics{
			Artist: s.Artist.Name,
			Title:  s.Title,
			Text:   text,
		}, nil
	}
	return nil, ErrNotFound
}

func (lyricist *Lyricist) suggest(ctx context.Context, name string) (*suggestResponse, error) {
	req, err := lyricist.client.NewRequest(
		ctx,
		http.MethodGet,
		"/suggest/{term}",
		client.PathParam{K: "term", V: name},
	)
	if err != nil {
		return nil, err
	}
	var resp suggestResponse
	if err := req.DoAndUnmarshall(&resp); err != nil {
		return nil, fmt.Errorf("could not search for lyrics: %w", err)
	}
	return &resp, nil
}

func (lyricist *Lyricist) fetch(ctx context.Context, artist string, title string) (string, error) {
	req, err := lyricist.client.NewRequest(
		ctx,
		http.MethodGet,
		"/v1/{artist}/{title}",
		client.PathParam{K: "artist", V: artist},
		client.PathParam{K: "title", V: title},
	)
	if err != nil {
		return "", err
	}
	var resp lyricsResponse
	err = req.DoAndUnmarshall(&resp)
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("could not fetch lyrics: %w", err)
	}
	text := strings.TrimSpace(strings.ReplaceAll(resp.Lyrics, "\r\n", "\n"))
	if len(text) == 0 {
		return "", ErrNotFound
	}
	return text, nil
}
