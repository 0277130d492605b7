package connector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"ethmon/pkg/rpc"
	"ethmon/pkg/telemetry"
)

// rigMode selects how fakeRig answers a request
type rigMode int32

const (
	modeRespond rigMode = iota
	modeSilent
	modeGarbage
	modeHangUp
)

// fakeRig is an in-process miner management port
type fakeRig struct {
	listener net.Listener
	mode     atomic.Int32
	sum      atomic.Value
	accepted atomic.Int32
	requests chan string
	wg       sync.WaitGroup
	done     chan struct{}
}

func newFakeRig() (*fakeRig, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	rig := &fakeRig{
		listener: listener,
		requests: make(chan string, 64),
		done:     make(chan struct{}),
	}
	rig.sum.Store("29500")
	rig.wg.Add(1)
	go rig.serve()
	return rig, nil
}

func (f *fakeRig) host() string {
	return f.listener.Addr().(*net.TCPAddr).IP.String()
}

func (f *fakeRig) port() int {
	return f.listener.Addr().(*net.TCPAddr).Port
}

func (f *fakeRig) setMode(mode rigMode) {
	f.mode.Store(int32(mode))
}

func (f *fakeRig) setSum(sum string) {
	f.sum.Store(sum)
}

func (f *fakeRig) close() {
	close(f.done)
	_ = f.listener.Close()
	f.wg.Wait()
}

func (f *fakeRig) serve() {
	defer f.wg.Done()
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}
		f.accepted.Add(1)
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			f.handle(conn)
		}()
	}
}

func (f *fakeRig) handle(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		return
	}
	select {
	case f.requests <- line:
	default:
	}

	switch rigMode(f.mode.Load()) {
	case modeRespond:
		_, _ = io.WriteString(conn, statsResponse(f.sum.Load().(string))+"\n")
	case modeGarbage:
		_, _ = io.WriteString(conn, "this is not json\n")
	case modeHangUp:
		return
	case modeSilent:
		// Hold the connection until the client gives up or the rig shuts down.
		closed := make(chan struct{})
		go func() {
			_, _ = io.Copy(io.Discard, conn)
			close(closed)
		}()
		select {
		case <-closed:
		case <-f.done:
		}
	}
}

func statsResponse(sum string) string {
	return fmt.Sprintf(`{"id":0,"error":null,"result":["9.3 - ETH","125","%s;51;0",`+
		`"14750;14750","0;0;0","off;off","60;40;61;41","eth.pool:4444;dcr.pool:3252","0;0;0;0"]}`, sum)
}

// refusedAddr returns a loopback port with nothing listening on it
func refusedAddr() (string, int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", 0, err
	}
	addr := listener.Addr().(*net.TCPAddr)
	_ = listener.Close()
	return addr.IP.String(), addr.Port, nil
}

// fakeClock hands out controlled timestamps
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingSink collects events
type recordingSink struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (r *recordingSink) Emit(_ context.Context, event telemetry.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) all() []telemetry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]telemetry.Event(nil), r.events...)
}

// countingDialer records dial attempts and delegates to a real dialer
type countingDialer struct {
	dials atomic.Int32
	panic bool
}

func (d *countingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.dials.Add(1)
	if d.panic {
		panic("dialer exploded")
	}
	var dialer net.Dialer
	return dialer.DialContext(ctx, network, address)
}

// recordingWait records every requested delay without sleeping and stops
// the loop after limit calls
type recordingWait struct {
	mu     sync.Mutex
	delays []time.Duration
	limit  int
	clock  *fakeClock
}

func (w *recordingWait) Wait(ctx context.Context, d time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.delays = append(w.delays, d)
	if w.clock != nil {
		w.clock.Advance(d)
	}
	return len(w.delays) < w.limit && ctx.Err() == nil
}

func (w *recordingWait) recorded() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.delays...)
}

var expectedRequest = string(rpc.StatRequest())
