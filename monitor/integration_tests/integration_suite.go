package integration_tests

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/yaron8/netmonitor/monitor/bootstrap"
	"github.com/yaron8/netmonitor/monitor/config"
)

const (
	maxRetries = 50
	retryDelay = 100 * time.Millisecond
)

// IntegrationTestSuite runs the whole monitor in process against the emulated fabric.
type IntegrationTestSuite struct {
	suite.Suite
	baseURL string
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan error
}

// SetupSuite runs once before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	port, err := freePort()
	s.Require().NoError(err, "Failed to find a free port")
	s.baseURL = fmt.Sprintf("http://localhost:%d", port)

	cfg := config.NewConfig()
	cfg.Port = port
	cfg.Collector.PollInterval = 50 * time.Millisecond
	cfg.Collector.ProbeInterval = 100 * time.Millisecond
	cfg.Emulator.Switches = 3
	cfg.Emulator.Seed = 1

	b, err := bootstrap.NewBootstrap(cfg)
	s.Require().NoError(err, "Failed to create network monitor bootstrap")

	s.done = make(chan error, 1)
	go func() { s.done <- b.Run(s.ctx) }()

	s.T().Log("Waiting for network monitor to be ready...")
	s.waitForService(s.baseURL + "/health")
}

// TearDownSuite runs once after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	s.T().Log("Stopping network monitor...")
	s.cancel()

	select {
	case err := <-s.done:
		s.NoError(err, "Network monitor did not shut down cleanly")
	case <-time.After(10 * time.Second):
		s.Fail("Network monitor did not stop in time")
	}
}

// waitForService waits for a service to become available
func (s *IntegrationTestSuite) waitForService(url string) {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	for i := 0; i < maxRetries; i++ {
		resp, err := client.Get(url)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			s.T().Logf("Service at %s is ready", url)
			return
		}
		if resp != nil {
			resp.Body.Close()
		}

		time.Sleep(retryDelay)
	}

	s.Require().Fail(fmt.Sprintf("Service at %s did not become ready after %d attempts", url, maxRetries))
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
