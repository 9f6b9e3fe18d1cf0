// Package resolver translates the users' queries into
// playable media.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"rhythmix/model"
	"strings"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type Configuration struct {
	LogLevel         log.Level     `yaml:"LogLevel" validate:"required" env:"LOG_LEVEL"`
	Backends         []string      `yaml:"Backends" validate:"required,min=1,dive,oneof=ytdlp youtube"`
	Attempts         int           `yaml:"Attempts" validate:"required,min=1,max=10"`
	RetryDelay       time.Duration `yaml:"RetryDelay"`
	Timeout          time.Duration `yaml:"Timeout" env:"DOWNLOAD_TIMEOUT"`
	EnableSpotify    bool          `yaml:"EnableSpotify" env:"ENABLE_SPOTIFY"`
	EnableSoundCloud bool          `yaml:"EnableSoundCloud" env:"ENABLE_SOUNDCLOUD"`
}

// Media is the resolved, playable form of a query.
type Media struct {
	Title      string
	Duration   int
	Thumbnail  string
	Locator    string
	Local      bool
	WebpageURL string
	Platform   model.Platform
}

// Target is what a backend is asked to resolve.
type Target struct {
	Query    string
	Search   bool // Query is a search phrase, the first result should be used
	Platform model.Platform
}

// Backend extracts media from an external service.
type Backend interface {
	Name() string
	// Resolve returns ErrUnsupported when the backend cannot
	// handle the target at all.
	Resolve(ctx context.Context, target Target) (*Media, error)
}

// Translator converts links of platforms that cannot be
// streamed directly into a search phrase or a streamable url.
type Translator interface {
	Translate(ctx context.Context, url string) (string, error)
}

type Resolver struct {
	log        *log.Logger
	config     *Configuration
	backends   []Backend
	translator Translator
}

// NewResolver constructs an object that resolves queries with the
// provided backends, tried in the order listed in the configuration.
// The translator may be nil, spotify links then cannot be resolved.
func NewResolver(config *Configuration, translator Translator, backends ...Backend) (*Resolver, error) {
	l := log.New()
	l.SetLevel(config.LogLevel)

	byName := lo.KeyBy(backends, func(b Backend) string {
		return b.Name()
	})
	chain := make([]Backend, 0, len(config.Backends))
	for _, name := range config.Backends {
		b, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown resolver backend '%s'", name)
		}
		chain = append(chain, b)
	}
	l.WithField("Backends", config.Backends).Debug("Resolver created")
	return &Resolver{
		log:        l,
		config:     config,
		backends:   chain,
		translator: translator,
	}, nil
}

// Resolve resolves the query, either a url or a search phrase, into
// playable media. Transient failures are retried with a linearly
// increasing delay, at most Attempts times.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Media, error) {
	query = strings.TrimSpace(query)
	if len(query) == 0 {
		return nil, &Error{Query: query, Err: ErrNotFound}
	}
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}
	target, err := r.target(ctx, query)
	if err != nil {
		return nil, &Error{Query: query, Attempts: 1, Err: classify(err)}
	}

	var lastErr error
	attempts := 0
	for attempts < r.config.Attempts {
		attempts++
		media, err := r.resolveOnce(ctx, target)
		if err == nil {
			// NOTE: translated links keep the platform they were requested from
			if len(media.Platform) == 0 || target.Platform != model.YouTube {
				media.Platform = target.Platform
			}
			r.log.WithFields(log.Fields{
				"Query":    query,
				"Attempts": attempts,
				"Title":    media.Title,
			}).Trace("Resolved query")
			return media, nil
		}
		lastErr = err
		r.log.WithFields(log.Fields{
			"Query":   query,
			"Attempt": attempts,
		}).Warnf("Resolve failed: %v", err)

		if !transient(err) || attempts >= r.config.Attempts {
			break
		}
		if ctx.Err() != nil {
			break
		}
		select {
		case <-time.After(time.Duration(attempts) * r.config.RetryDelay):
		case <-ctx.Done():
			lastErr = ctx.Err()
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, &Error{Query: query, Attempts: attempts, Err: classify(lastErr)}
}

// Release deletes the song's local media file, if it was
// downloaded while resolving.
func (r *Resolver) Release(song *model.Song) {
	if song == nil || !song.Local {
		return
	}
	if err := os.Remove(song.Locator); err != nil && !os.IsNotExist(err) {
		r.log.WithField("Path", song.Locator).Warnf(
			"Failed to remove downloaded media: %v", err,
		)
	}
}

// resolveOnce walks the backend chain, skipping the backends
// that do not support the target.
func (r *Resolver) resolveOnce(ctx context.Context, target Target) (*Media, error) {
	var err error = ErrUnsupported
	for _, b := range r.backends {
		media, e := b.Resolve(ctx, target)
		if e == nil {
			return media, nil
		}
		if errors.Is(e, ErrUnsupported) {
			continue
		}
		r.log.WithFields(log.Fields{
			"Backend": b.Name(),
			"Query":   target.Query,
		}).Debugf("Backend failed: %v", e)
		err = e
	}
	return nil, err
}

func (r *Resolver) target(ctx context.Context, query string) (Target, error) {
	if !model.IsURL(query) {
		return Target{Query: query, Search: true, Platform: model.YouTube}, nil
	}
	platform := model.DetectPlatform(query)
	switch platform {
	case model.Spotify:
		if !r.config.EnableSpotify || r.translator == nil {
			return Target{}, ErrPlatformDisabled
		}
		translated, err := r.translator.Translate(ctx, query)
		if err != nil {
			return Target{}, err
		}
		return Target{
			Query:    translated,
			Search:   !model.IsURL(translated),
			Platform: model.Spotify,
		}, nil
	case model.SoundCloud:
		if !r.config.EnableSoundCloud {
			return Target{}, ErrPlatformDisabled
		}
	}
	return Target{Query: query, Platform: platform}, nil
}
