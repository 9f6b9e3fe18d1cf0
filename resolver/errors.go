package resolver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("no matching media found")
	ErrBackendBlocked   = errors.New("media backend blocked the request")
	ErrNoAudioStream    = errors.New("no audio stream found")
	ErrUnsupported      = errors.New("query not supported by the backend")
	ErrPlatformDisabled = errors.New("platform is disabled")
)

// Error is returned by Resolve once the query could not be
// resolved. Err is always one of ErrNotFound, ErrBackendBlocked,
// ErrNoAudioStream or ErrPlatformDisabled, possibly wrapping the
// backend's own error.
type Error struct {
	Query    string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf(
		"could not resolve '%s' after %d attempt(s): %v",
		e.Query, e.Attempts, e.Err,
	)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var botChallenges = []string{
	"sign in to confirm",
	"not a bot",
	"confirm your age",
	"too many requests",
	"http error 429",
}

// IsBotChallenge reports whether the backend's error output is
// a bot or sign-in challenge.
func IsBotChallenge(output string) bool {
	output = strings.ToLower(output)
	for _, s := range botChallenges {
		if strings.Contains(output, s) {
			return true
		}
	}
	return false
}

// transient returns true if resolving the query again
// could succeed.
func transient(err error) bool {
	for _, e := range []error{
		ErrNotFound,
		ErrNoAudioStream,
		ErrUnsupported,
		ErrPlatformDisabled,
	} {
		if errors.Is(err, e) {
			return false
		}
	}
	return true
}

// classify converts the last backend error into one
// of the resolver's error kinds.
func classify(err error) error {
	for _, e := range []error{
		ErrNotFound,
		ErrBackendBlocked,
		ErrNoAudioStream,
		ErrPlatformDisabled,
	} {
		if errors.Is(err, e) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrNotFound, err)
}
