package collector

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yaron8/netmonitor/monitor/fabric"
	"github.com/yaron8/netmonitor/telemetrics"
)

type mockFabric struct {
	mock.Mock
	events chan fabric.Event
}

func newMockFabric() *mockFabric {
	return &mockFabric{events: make(chan fabric.Event, 16)}
}

func (m *mockFabric) Datapaths() []telemetrics.NodeID {
	args := m.Called()
	return args.Get(0).([]telemetrics.NodeID)
}

func (m *mockFabric) RequestPortStats(ctx context.Context, node telemetrics.NodeID) error {
	return m.Called(ctx, node).Error(0)
}

func (m *mockFabric) SendFrame(ctx context.Context, node telemetrics.NodeID, port telemetrics.PortID, frame []byte) error {
	return m.Called(ctx, node, port, frame).Error(0)
}

func (m *mockFabric) Events() <-chan fabric.Event {
	return m.events
}
