package fabric

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/yaron8/netmonitor/generator/config"
	monfabric "github.com/yaron8/netmonitor/monitor/fabric"
	"github.com/yaron8/netmonitor/telemetrics"
)

const waitTimeout = 2 * time.Second

func newTestEmulator(t *testing.T, switches int) (*Emulator, *clock.Mock) {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Switches = switches
	cfg.Seed = 42

	clk := clock.NewMock()
	emu := NewEmulator(*cfg, clk)
	t.Cleanup(func() { emu.Close() })
	return emu, clk
}

func nextEvent(t *testing.T, emu *Emulator) monfabric.Event {
	t.Helper()
	select {
	case ev := <-emu.Events():
		return ev
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for fabric event")
		return nil
	}
}

func TestEmulator_Datapaths(t *testing.T) {
	emu, _ := newTestEmulator(t, 3)

	got := emu.Datapaths()
	want := []telemetrics.NodeID{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Datapaths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Datapaths()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// tests that Start announces both directions of every link in the chain
func TestEmulator_StartAnnouncesLinks(t *testing.T) {
	emu, _ := newTestEmulator(t, 3)
	emu.Start()

	want := map[telemetrics.DirectedLink]bool{
		{Src: 1, SrcPort: 2, Dst: 2, DstPort: 1}: true,
		{Src: 2, SrcPort: 1, Dst: 1, DstPort: 2}: true,
		{Src: 2, SrcPort: 2, Dst: 3, DstPort: 1}: true,
		{Src: 3, SrcPort: 1, Dst: 2, DstPort: 2}: true,
	}

	for range want {
		ev := nextEvent(t, emu)
		ld, ok := ev.(monfabric.LinkDiscovered)
		if !ok {
			t.Fatalf("expected LinkDiscovered, got %T", ev)
		}
		if !want[ld.Link] {
			t.Errorf("unexpected link %s", ld.Link)
		}
		delete(want, ld.Link)
	}
}

func TestEmulator_RequestPortStats(t *testing.T) {
	emu, clk := newTestEmulator(t, 3)
	ctx := context.Background()

	clk.Add(time.Second)
	if err := emu.RequestPortStats(ctx, 2); err != nil {
		t.Fatalf("RequestPortStats() returned error: %v", err)
	}
	clk.Add(10 * time.Millisecond)

	ev := nextEvent(t, emu)
	reply, ok := ev.(monfabric.PortStatsReply)
	if !ok {
		t.Fatalf("expected PortStatsReply, got %T", ev)
	}
	if reply.Node != 2 {
		t.Errorf("reply node = %v, want 2", reply.Node)
	}
	if len(reply.Stats) != 2 {
		t.Fatalf("switch 2 reported %d ports, want 2", len(reply.Stats))
	}
	if reply.Stats[0].Port != 1 || reply.Stats[1].Port != 2 {
		t.Errorf("ports not sorted: %d, %d", reply.Stats[0].Port, reply.Stats[1].Port)
	}

	first := reply.Stats[0]
	if first.DurationSec != 1 {
		t.Errorf("DurationSec = %d, want 1", first.DurationSec)
	}
	// 100 Mbps for one second is 12.5 MB, +-20%
	total := first.RxBytes + first.TxBytes
	if total < 10_000_000 || total > 15_000_000 {
		t.Errorf("bytes after one second = %d, want about 12500000", total)
	}
	if first.RxPackets == 0 || first.TxPackets == 0 {
		t.Error("expected packet counters to grow with bytes")
	}
}

func TestEmulator_CountersAreMonotonic(t *testing.T) {
	emu, clk := newTestEmulator(t, 2)
	ctx := context.Background()

	var prev uint64
	for i := 0; i < 3; i++ {
		clk.Add(time.Second)
		if err := emu.RequestPortStats(ctx, 1); err != nil {
			t.Fatalf("RequestPortStats() returned error: %v", err)
		}
		clk.Add(10 * time.Millisecond)

		reply := nextEvent(t, emu).(monfabric.PortStatsReply)
		rx := reply.Stats[0].RxBytes
		if rx <= prev {
			t.Errorf("poll %d: rx bytes %d did not grow past %d", i, rx, prev)
		}
		prev = rx
	}
}

func TestEmulator_RequestPortStatsUnknownNode(t *testing.T) {
	emu, _ := newTestEmulator(t, 2)

	if err := emu.RequestPortStats(context.Background(), 99); err == nil {
		t.Error("expected error for unknown datapath")
	}
}

// tests that a frame sent out of a wired port comes back in from the neighbor
func TestEmulator_SendFrame(t *testing.T) {
	emu, clk := newTestEmulator(t, 3)
	frame := []byte("probe")

	if err := emu.SendFrame(context.Background(), 2, 2, frame); err != nil {
		t.Fatalf("SendFrame() returned error: %v", err)
	}
	frame[0] = 'X'
	clk.Add(10 * time.Millisecond)

	ev := nextEvent(t, emu)
	in, ok := ev.(monfabric.FrameIn)
	if !ok {
		t.Fatalf("expected FrameIn, got %T", ev)
	}
	if in.Node != 3 || in.InPort != 1 {
		t.Errorf("frame arrived at %s port %d, want node 3 port 1", in.Node, in.InPort)
	}
	if string(in.Frame) != "probe" {
		t.Errorf("frame = %q, want the bytes as sent", in.Frame)
	}
}

func TestEmulator_SendFrameUnwiredPort(t *testing.T) {
	emu, _ := newTestEmulator(t, 3)

	// switch 1 has no port 1 neighbor at the end of the chain
	if err := emu.SendFrame(context.Background(), 1, 1, []byte("x")); err == nil {
		t.Error("expected error for unconnected port")
	}
}

func TestEmulator_CanceledContext(t *testing.T) {
	emu, _ := newTestEmulator(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := emu.RequestPortStats(ctx, 1); err == nil {
		t.Error("RequestPortStats() should fail on a canceled context")
	}
	if err := emu.SendFrame(ctx, 1, 2, nil); err == nil {
		t.Error("SendFrame() should fail on a canceled context")
	}
}
