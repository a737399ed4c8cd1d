package server

import (
	"io"
	"log/slog"
	"net"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// countingConn counts Close calls on top of a pipe end.
type countingConn struct {
	net.Conn
	closes atomic.Int32
}

func (c *countingConn) Close() error {
	c.closes.Add(1)
	return c.Conn.Close()
}

func newCountingConn(t *testing.T) *countingConn {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return &countingConn{Conn: a}
}

type rosterEvents struct {
	mu      sync.Mutex
	added   []string
	removed []string
}

func (e *rosterEvents) onAdded(addr string) {
	e.mu.Lock()
	e.added = append(e.added, addr)
	e.mu.Unlock()
}

func (e *rosterEvents) onRemoved(addr string) {
	e.mu.Lock()
	e.removed = append(e.removed, addr)
	e.mu.Unlock()
}

func (e *rosterEvents) snapshot() (added, removed []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.added...), append([]string(nil), e.removed...)
}

func TestRegistryAddRemove(t *testing.T) {
	var ev rosterEvents
	r := NewRegistry(ev.onAdded, ev.onRemoved, testLogger())

	c1 := newCountingConn(t)
	c2 := newCountingConn(t)
	r.Add("10.0.0.9:5000", c1)
	r.Add("10.0.0.2:6000", c2)

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	want := []string{"10.0.0.2:6000", "10.0.0.9:5000"}
	if got := r.Addresses(); !reflect.DeepEqual(got, want) {
		t.Errorf("Addresses() = %v, want %v", got, want)
	}
	if conn, ok := r.Get("10.0.0.9:5000"); !ok || conn != c1 {
		t.Errorf("Get() = %v, %v", conn, ok)
	}

	if !r.Remove("10.0.0.9:5000") {
		t.Error("first Remove() = false, want true")
	}
	if r.Remove("10.0.0.9:5000") {
		t.Error("second Remove() = true, want false")
	}
	if r.Len() != 1 {
		t.Errorf("Len() after remove = %d, want 1", r.Len())
	}
	if _, ok := r.Get("10.0.0.9:5000"); ok {
		t.Error("Get() found a removed address")
	}
	if c1.closes.Load() != 0 {
		t.Error("Remove() should not close the socket")
	}

	added, removed := ev.snapshot()
	if !reflect.DeepEqual(added, []string{"10.0.0.9:5000", "10.0.0.2:6000"}) {
		t.Errorf("added events = %v", added)
	}
	if !reflect.DeepEqual(removed, []string{"10.0.0.9:5000"}) {
		t.Errorf("removed events = %v", removed)
	}
}

func TestRegistryCloseOneIdempotent(t *testing.T) {
	var ev rosterEvents
	r := NewRegistry(ev.onAdded, ev.onRemoved, testLogger())

	if r.CloseOne("10.0.0.1:1") {
		t.Error("CloseOne() on an empty registry = true")
	}

	conn := newCountingConn(t)
	c := r.Add("10.0.0.1:1", conn)
	if !r.CloseOne("10.0.0.1:1") {
		t.Error("CloseOne() = false, want true")
	}
	if r.CloseOne("10.0.0.1:1") {
		t.Error("second CloseOne() = true, want false")
	}
	if c.Alive() {
		t.Error("closed client still alive")
	}
	select {
	case <-c.Done():
	default:
		t.Error("Done() not closed after CloseOne")
	}
	if n := conn.closes.Load(); n != 1 {
		t.Errorf("socket closed %d times, want 1", n)
	}
	if _, removed := ev.snapshot(); len(removed) != 1 {
		t.Errorf("removed events = %v, want one", removed)
	}
}

func TestRegistryConcurrentCloseOne(t *testing.T) {
	for i := 0; i < 50; i++ {
		r := NewRegistry(nil, nil, testLogger())
		conn := newCountingConn(t)
		r.Add("192.168.1.20:50000", conn)

		var wins atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if r.CloseOne("192.168.1.20:50000") {
					wins.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		if n := conn.closes.Load(); n != 1 {
			t.Fatalf("socket closed %d times, want 1", n)
		}
		if wins.Load() != 1 {
			t.Fatalf("%d CloseOne calls reported removal, want 1", wins.Load())
		}
		if r.Len() != 0 {
			t.Fatalf("Len() = %d, want 0", r.Len())
		}
	}
}

func TestRegistryCloseAll(t *testing.T) {
	var ev rosterEvents
	r := NewRegistry(ev.onAdded, ev.onRemoved, testLogger())

	conns := []*countingConn{newCountingConn(t), newCountingConn(t), newCountingConn(t)}
	addrs := []string{"10.0.0.3:3", "10.0.0.1:1", "10.0.0.2:2"}
	for i, c := range conns {
		r.Add(addrs[i], c)
	}

	if n := r.CloseAll(); n != 3 {
		t.Errorf("CloseAll() = %d, want 3", n)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	for i, c := range conns {
		if c.closes.Load() != 1 {
			t.Errorf("conn %d closed %d times", i, c.closes.Load())
		}
	}

	_, removed := ev.snapshot()
	want := []string{"10.0.0.1:1", "10.0.0.2:2", "10.0.0.3:3"}
	if !reflect.DeepEqual(removed, want) {
		t.Errorf("removed events = %v, want %v", removed, want)
	}

	if n := r.CloseAll(); n != 0 {
		t.Errorf("CloseAll() on empty registry = %d", n)
	}
}

func TestRegistryRemoveClientOwnEntryOnly(t *testing.T) {
	r := NewRegistry(nil, nil, testLogger())

	first := newCountingConn(t)
	old := r.Add("10.0.0.5:7000", first)
	second := newCountingConn(t)
	cur := r.Add("10.0.0.5:7000", second)

	if first.closes.Load() != 1 {
		t.Error("replaced entry should be closed")
	}
	if r.removeClient(old) {
		t.Error("removeClient() evicted a newer entry")
	}
	if conn, ok := r.Get("10.0.0.5:7000"); !ok || conn != second {
		t.Fatal("newer entry missing")
	}
	if !r.removeClient(cur) {
		t.Error("removeClient() of the current entry = false")
	}
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry(nil, nil, testLogger())
	r.Add("10.0.0.2:2", newCountingConn(t))
	r.Add("10.0.0.1:1", newCountingConn(t))

	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].Addr != "10.0.0.1:1" || snap[1].Addr != "10.0.0.2:2" {
		t.Errorf("Snapshot() = %+v", snap)
	}
	if snap[0].ConnectedAt.IsZero() {
		t.Error("ConnectedAt not set")
	}
}
