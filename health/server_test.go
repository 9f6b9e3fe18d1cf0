package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type HealthTestSuite struct {
	suite.Suite
	server *Server
	http   *httptest.Server
}

// SetupTest creates a server started an hour ago.
func (s *HealthTestSuite) SetupTest() {
	s.server = NewServer(&Configuration{
		LogLevel:        log.PanicLevel,
		Enabled:         true,
		Port:            8000,
		ShutdownTimeout: time.Second,
	}, time.Now().Add(-time.Hour))
	s.http = httptest.NewServer(s.server.Router())
}

// TearDownTest closes the test http server.
func (s *HealthTestSuite) TearDownTest() {
	s.http.Close()
}

func (s *HealthTestSuite) get(path string) (*http.Response, string) {
	resp, err := http.Get(s.http.URL + path)
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, string(body)
}

// TestUnitHealth checks the fields of the health response.
func (s *HealthTestSuite) TestUnitHealth() {
	resp, body := s.get("/health")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("application/json", resp.Header.Get("Content-Type"))

	var h healthResponse
	s.Require().NoError(json.Unmarshal([]byte(body), &h))
	s.Equal("healthy", h.Status)
	s.Equal("1:00:00", h.Uptime)
	s.Greater(h.Goroutines, 0)
	_, err := time.Parse(time.RFC3339, h.Timestamp)
	s.NoError(err)
}

// TestUnitPingAndRoot checks the plain text endpoints.
func (s *HealthTestSuite) TestUnitPingAndRoot() {
	_, body := s.get("/ping")
	s.Equal("pong", body)

	_, body = s.get("/")
	s.Contains(body, "Music Bot is running")
	s.Contains(body, "Uptime: 1:00:00")

	resp, _ := s.get("/missing")
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

// TestUnitRunDisabled checks that a disabled server
// returns immediately.
func (s *HealthTestSuite) TestUnitRunDisabled() {
	s.server.config.Enabled = false
	s.NoError(s.server.Run(context.Background()))
}

// TestIntegrationRun starts the server on a free port
// and shuts it down by cancelling the context.
func (s *HealthTestSuite) TestIntegrationRun() {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	s.server.config.Port = l.Addr().(*net.TCPAddr).Port
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.server.Run(ctx)
	}()
	url := fmt.Sprintf("http://127.0.0.1:%d/ping", s.server.config.Port)
	s.Eventually(func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(2 * time.Second):
		s.Fail("server did not shut down")
	}
}

// TestUnitFormatUptime checks the uptime formatting.
func (s *HealthTestSuite) TestUnitFormatUptime() {
	s.Equal("0:00:05", FormatUptime(5*time.Second))
	s.Equal("2:03:04", FormatUptime(2*time.Hour+3*time.Minute+4*time.Second))
	s.Equal("1 day, 0:00:01", FormatUptime(24*time.Hour+time.Second))
	s.Equal("3 days, 1:00:00", FormatUptime(73*time.Hour))
	s.Equal("0:00:00", FormatUptime(-time.Second))
}

// TestHealthTestSuite runs all tests under
// the HealthTestSuite
func TestHealthTestSuite(t *testing.T) {
	suite.Run(t, new(HealthTestSuite))
}
