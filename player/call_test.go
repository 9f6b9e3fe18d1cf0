package player

import (
	"context"
	"fmt"
	"rhythmix/voice"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
)

type CallTestSuite struct {
	suite.Suite
	hook       *test.Hook
	controller *Controller
}

// SetupTest creates a controller whose log
// entries are recorded by a hook.
func (s *CallTestSuite) SetupTest() {
	l, hook := test.NewNullLogger()
	l.SetLevel(log.TraceLevel)
	s.hook = hook
	s.controller = &Controller{log: l, config: &Configuration{}}
}

// TestUnitFailureLogged checks that unexpected voice call
// failures are logged as warnings with the chat id.
func (s *CallTestSuite) TestUnitFailureLogged() {
	err := s.controller.call(context.Background(), "42", "SwitchStream", func(context.Context) error {
		return fmt.Errorf("%w: connection reset", voice.ErrTransport)
	})
	s.ErrorIs(err, voice.ErrTransport)
	s.Require().NotNil(s.hook.LastEntry())
	s.Equal(log.WarnLevel, s.hook.LastEntry().Level)
	s.Equal("42", s.hook.LastEntry().Data["ChatID"])
	s.Equal("SwitchStream", s.hook.LastEntry().Data["Operation"])
}

// TestUnitPanicLogged checks that a panicking call is
// converted and logged as a warning.
func (s *CallTestSuite) TestUnitPanicLogged() {
	err := s.controller.call(context.Background(), "42", "Pause", func(context.Context) error {
		panic("boom")
	})
	s.ErrorIs(err, voice.ErrTransport)
	s.Require().NotNil(s.hook.LastEntry())
	s.Equal(log.WarnLevel, s.hook.LastEntry().Level)
}

// TestUnitExpectedFailureLogged checks that a missing call
// is only logged for debugging.
func (s *CallTestSuite) TestUnitExpectedFailureLogged() {
	err := s.controller.call(context.Background(), "42", "Pause", func(context.Context) error {
		return voice.ErrNotInCall
	})
	s.ErrorIs(err, voice.ErrNotInCall)
	s.Require().NotNil(s.hook.LastEntry())
	s.Equal(log.DebugLevel, s.hook.LastEntry().Level)

	s.hook.Reset()
	s.NoError(s.controller.call(context.Background(), "42", "Resume", func(context.Context) error {
		return nil
	}))
	s.Nil(s.hook.LastEntry())
}

// TestCallTestSuite runs all tests under
// the CallTestSuite
func TestCallTestSuite(t *testing.T) {
	suite.Run(t, new(CallTestSuite))
}
