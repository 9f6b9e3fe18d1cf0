package search

import (
	"context"
	"errors"
	"regexp"

	"github.com/ppalone/ytsearch"
)

var ErrNoResults = errors.New("no search results")

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube.*watch\?(?:[^#]*?&)?v=(?P<videoID>[^&\/#]+)`),
	regexp.MustCompile(`youtu\.be\/(?P<videoID>[^?&\/#]+)`),
	regexp.MustCompile(`youtube.*\/(?:shorts|live|embed)\/(?P<videoID>[^?&\/#]+)`),
}

type Search struct {
	client *ytsearch.Client
}

// NewSearch constructs an object that handles
// searching videos on youtube either by url or query
func NewSearch() *Search {
	return &Search{
		client: ytsearch.NewClient(nil),
	}
}

// VideoID returns the id of the video the query refers to. If the
// query is a youtube video url, the id is extracted from it, otherwise
// the query is searched and the first result is used.
func (s *Search) VideoID(ctx context.Context, query string) (string, error) {
	if id, ok := ExtractVideoID(query); ok {
		return id, nil
	}
	res, err := s.client.Search(ctx, query)
	if err != nil {
		return "", err
	}
	for _, r := range res.Results {
		if len(r.VideoID) > 0 {
			return r.VideoID, nil
		}
	}
	return "", ErrNoResults
}

// ExtractVideoID extracts the video id from the
// provided youtube url.
func ExtractVideoID(url string) (string, bool) {
	for _, re := range videoIDPatterns {
		match := re.FindStringSubmatch(url)
		idx := re.SubexpIndex("videoID")
		if idx < len(match) && len(match[idx]) > 0 {
			return match[idx], true
		}
	}
	return "", false
}
