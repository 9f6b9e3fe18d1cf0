// Package ytdlp resolves queries with the yt-dlp executable.
package ytdlp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"rhythmix/model"
	"rhythmix/resolver"
	"strconv"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	log "github.com/sirupsen/logrus"
)

const printTemplate = "%(title)s\t%(duration)s\t%(thumbnail)s\t%(url)s\t%(webpage_url)s\t%(id)s"

type Configuration struct {
	LogLevel    log.Level `yaml:"LogLevel" validate:"required" env:"LOG_LEVEL"`
	DownloadDir string    `yaml:"DownloadDir" validate:"required" env:"DOWNLOAD_DIR"`
	Format      string    `yaml:"Format" validate:"required"`
	// Install downloads the yt-dlp executable when it
	// is not found on the host.
	Install bool `yaml:"Install"`
}

type Backend struct {
	log    *log.Logger
	config *Configuration
}

// NewBackend constructs a resolver backend that
// extracts media with yt-dlp.
func NewBackend(config *Configuration) *Backend {
	l := log.New()
	l.SetLevel(config.LogLevel)
	l.Debug("yt-dlp backend created")
	return &Backend{
		log:    l,
		config: config,
	}
}

// Init makes sure the yt-dlp executable is available, when
// configured to install it.
func (b *Backend) Init(ctx context.Context) error {
	if !b.config.Install {
		return nil
	}
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	b.log.Info("yt-dlp installed")
	return nil
}

func (b *Backend) Name() string {
	return "ytdlp"
}

// Resolve extracts the target's metadata and direct media url. When
// the extractor provides no direct url, the media is downloaded into
// the download directory and its path is used instead.
func (b *Backend) Resolve(ctx context.Context, target resolver.Target) (*resolver.Media, error) {
	query := target.Query
	if target.Search {
		query = "ytsearch1:" + query
	}
	res, err := ytdlp.New().
		Print(printTemplate).
		Format(b.config.Format).
		NoPlaylist().
		NoWarnings().
		IgnoreConfig().
		Run(ctx, "--skip-download", query)
	if err != nil {
		return nil, classify(res, err)
	}
	media, err := parseMetadata(res.Stdout)
	if err != nil {
		return nil, err
	}
	if len(media.Locator) > 0 {
		return media, nil
	}
	b.log.WithField("URL", media.WebpageURL).Debug(
		"No direct media url, downloading",
	)
	path, err := b.download(ctx, media.WebpageURL)
	if err != nil {
		return nil, err
	}
	media.Locator = path
	media.Local = true
	return media, nil
}

func (b *Backend) download(ctx context.Context, url string) (string, error) {
	if err := os.MkdirAll(b.config.DownloadDir, 0o755); err != nil {
		return "", err
	}
	res, err := ytdlp.New().
		Format(b.config.Format).
		Output(filepath.Join(b.config.DownloadDir, "%(id)s.%(ext)s")).
		Print("after_move:filepath").
		NoSimulate().
		NoPart().
		NoPlaylist().
		NoWarnings().
		IgnoreConfig().
		Run(ctx, url)
	if err != nil {
		return "", classify(res, err)
	}
	lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
	path := strings.TrimSpace(lines[len(lines)-1])
	if len(path) == 0 {
		return "", resolver.ErrNoAudioStream
	}
	return path, nil
}

// parseMetadata parses the first line of the yt-dlp output printed
// with the printTemplate.
func parseMetadata(stdout string) (*resolver.Media, error) {
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 6 {
			continue
		}
		for i, p := range parts {
			if p == "NA" {
				parts[i] = ""
			}
		}
		duration := 0
		if d, err := strconv.ParseFloat(parts[1], 64); err == nil {
			duration = int(d)
		}
		webpageURL := parts[4]
		if len(webpageURL) == 0 && len(parts[5]) > 0 {
			webpageURL = "https://www.youtube.com/watch?v=" + parts[5]
		}
		return &resolver.Media{
			Title:      parts[0],
			Duration:   duration,
			Thumbnail:  parts[2],
			Locator:    parts[3],
			WebpageURL: webpageURL,
			Platform:   model.DetectPlatform(webpageURL),
		}, nil
	}
	return nil, resolver.ErrNotFound
}

// classify converts the yt-dlp failure into the resolver's errors
// by inspecting its error output.
func classify(res *ytdlp.Result, err error) error {
	output := err.Error()
	if res != nil {
		output += "\n" + res.Stderr
	}
	lower := strings.ToLower(output)
	switch {
	case resolver.IsBotChallenge(lower):
		return fmt.Errorf("%w: %v", resolver.ErrBackendBlocked, err)
	case strings.Contains(lower, "requested format is not available"),
		strings.Contains(lower, "no video formats found"),
		strings.Contains(lower, "no audio"):
		return fmt.Errorf("%w: %v", resolver.ErrNoAudioStream, err)
	case strings.Contains(lower, "unsupported url"):
		return resolver.ErrUnsupported
	case strings.Contains(lower, "video unavailable"),
		strings.Contains(lower, "private video"),
		strings.Contains(lower, "does not exist"),
		strings.Contains(lower, "http error 404"):
		return fmt.Errorf("%w: %v", resolver.ErrNotFound, err)
	}
	return err
}
