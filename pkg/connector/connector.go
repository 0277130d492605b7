// Package connector polls one rig per goroutine and publishes every poll
// outcome into the shared status table.
package connector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"ethmon/pkg/log"
	"ethmon/pkg/models"
	"ethmon/pkg/observability"
	"ethmon/pkg/rpc"
	"ethmon/pkg/status"
	"ethmon/pkg/telemetry"

	"github.com/rs/zerolog"
)

// Dialer opens the TCP connection to a rig.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Publisher receives status records. Each connector writes only its own slot.
type Publisher interface {
	Set(index int, record models.StatusRecord) error
}

// Options are shared by every connector of a fleet.
type Options struct {
	ObjectID  string
	Tolerance float64 // Percent below target before a rig is flagged
	Dialer    Dialer
	Sink      telemetry.Sink
	Now       func() time.Time
	// Wait blocks for d or until ctx is done; it reports whether the full
	// delay elapsed.
	Wait func(ctx context.Context, d time.Duration) bool
}

// runtimeState is the long-lived per-rig bookkeeping.
type runtimeState struct {
	requests  uint64
	responses uint64
	lastSeen  *time.Time
	lastGood  *time.Time
}

// Connector owns the connection lifecycle of one rig.
type Connector struct {
	index     int
	rig       models.RigConfig
	table     Publisher
	sink      telemetry.Sink
	dialer    Dialer
	objectID  string
	tolerance float64
	now       func() time.Time
	wait      func(ctx context.Context, d time.Duration) bool
	logger    zerolog.Logger

	state   atomic.Int32
	mu      sync.Mutex
	runtime runtimeState
	failing bool
}

// New creates a connector for the rig stored at slot index of table.
func New(index int, rig models.RigConfig, table Publisher, opts Options) *Connector {
	c := &Connector{
		index:     index,
		rig:       rig,
		table:     table,
		sink:      opts.Sink,
		dialer:    opts.Dialer,
		objectID:  opts.ObjectID,
		tolerance: opts.Tolerance,
		now:       opts.Now,
		wait:      opts.Wait,
		logger:    log.ForRig(rig.Name, rig.Address()),
	}
	if c.sink == nil {
		c.sink = telemetry.Discard{}
	}
	if c.dialer == nil {
		c.dialer = &net.Dialer{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.wait == nil {
		c.wait = sleepWithContext
	}
	return c
}

// State returns the current poll cycle state.
func (c *Connector) State() State {
	return State(c.state.Load())
}

// Stats returns a copy of the runtime counters.
func (c *Connector) Stats() models.RigStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := models.RigStats{
		Requests:  c.runtime.requests,
		Responses: c.runtime.responses,
	}
	if c.runtime.lastSeen != nil {
		t := *c.runtime.lastSeen
		stats.LastSeen = &t
	}
	if c.runtime.lastGood != nil {
		t := *c.runtime.lastGood
		stats.LastGood = &t
	}
	return stats
}

// Run polls the rig until ctx is cancelled. An offline rig publishes its
// static record once and never connects.
func (c *Connector) Run(ctx context.Context) {
	defer c.setState(StateStopped)

	if c.rig.Offline {
		c.setState(StateOffline)
		c.publish(status.Offline(c.rig))
		c.logger.Info().Msg("Rig is administratively offline, not polling")
		<-ctx.Done()
		return
	}

	c.logger.Debug().Dur("poll", c.rig.Poll).Dur("timeout", c.rig.Timeout).Msg("Starting rig poller")
	for {
		c.pollOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		c.setState(StateIdle)
		if !c.wait(ctx, c.rig.Poll) {
			return
		}
	}
}

// pollOnce runs one connect/request/response cycle and publishes its outcome.
func (c *Connector) pollOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("poll panic: %v", r)
			observability.CaptureError(err, map[string]string{
				"component": "connector",
				"rig":       c.rig.Name,
			}, nil)
			c.fail(ctx, err)
		}
	}()

	c.setState(StateConnecting)
	dialCtx, cancel := context.WithTimeout(ctx, c.rig.Timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(dialCtx, "tcp", c.rig.Address())
	if err != nil {
		c.fail(ctx, err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	c.mu.Lock()
	c.runtime.requests++
	c.mu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(c.rig.Timeout)); err != nil {
		c.fail(ctx, err)
		return
	}
	if _, err := conn.Write(rpc.StatRequest()); err != nil {
		c.fail(ctx, err)
		return
	}
	if err := conn.SetReadDeadline(time.Now().Add(c.rig.Timeout)); err != nil {
		c.fail(ctx, err)
		return
	}

	c.setState(StateAwaitingResponse)
	payload, err := rpc.ReadResponse(conn)
	if err != nil {
		if isTimeout(err) {
			err = ErrNoResponse
		}
		c.fail(ctx, err)
		return
	}

	c.succeed(ctx, payload)
}

func (c *Connector) succeed(ctx context.Context, payload []byte) {
	now := c.now()

	c.mu.Lock()
	c.runtime.responses++
	c.mu.Unlock()

	stats, err := rpc.DecodeStats(payload)
	if err != nil {
		c.fail(ctx, err)
		return
	}

	// Only a decodable response counts as the rig being seen.
	c.mu.Lock()
	c.runtime.lastSeen = &now
	previousGood := c.runtime.lastGood
	c.mu.Unlock()

	record := status.Success(c.rig, stats, models.FormatTime(&now))
	verdict := status.Evaluate(stats.Primary.Hashrate, c.rig.TargetPrimary, c.tolerance)
	if verdict.Evaluated {
		if verdict.Low {
			warning := status.LowHashrateWarning
			lastGood := models.FormatTime(previousGood)
			record.Warning = &warning
			record.LastGood = &lastGood
		} else {
			c.mu.Lock()
			c.runtime.lastGood = &now
			c.mu.Unlock()
			lastGood := models.FormatTime(&now)
			record.LastGood = &lastGood
		}
	}

	c.publish(record)
	c.emit(ctx, telemetry.StatsEvent(c.objectID, record, payload, now))

	if c.failing {
		c.logger.Info().Msg("Rig responding again")
	}
	c.failing = false
	if verdict.Low {
		c.logger.Debug().
			Float64("measured", verdict.Measured).
			Float64("threshold", verdict.Threshold).
			Msg("Hashrate below threshold")
	}
}

// fail publishes an error record. Nothing is published once ctx is done,
// since the failure is then caused by shutdown.
func (c *Connector) fail(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	now := c.now()

	c.mu.Lock()
	lastSeen := c.runtime.lastSeen
	c.mu.Unlock()

	record := status.Failure(c.rig, err.Error(), models.FormatTime(lastSeen))
	c.publish(record)
	c.emit(ctx, telemetry.ErrorEvent(c.objectID, record, now))

	if !c.failing {
		c.logger.Warn().Err(err).Msg("Rig poll failed")
	} else {
		c.logger.Debug().Err(err).Msg("Rig poll failed again")
	}
	c.failing = true
}

func (c *Connector) publish(record models.StatusRecord) {
	if err := c.table.Set(c.index, record); err != nil {
		c.logger.Error().Err(err).Int("slot", c.index).Msg("Failed to publish status")
	}
}

func (c *Connector) emit(ctx context.Context, event telemetry.Event) {
	if err := c.sink.Emit(ctx, event); err != nil {
		c.logger.Debug().Err(err).Str("category", event.Category).Msg("Failed to emit event")
	}
}

func (c *Connector) setState(state State) {
	previous := State(c.state.Swap(int32(state)))
	if previous != state {
		c.logger.Debug().Stringer("from", previous).Stringer("to", state).Msg("State change")
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
