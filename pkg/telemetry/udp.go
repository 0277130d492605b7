package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
)

// UDPSink sends each event as one Logstash JSON datagram.
type UDPSink struct {
	mu   sync.Mutex
	conn net.Conn
}

// NewUDPSink connects a UDP socket to the Logstash input at addr.
func NewUDPSink(addr string) (*UDPSink, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("logstash udp %s: %w", addr, err)
	}
	return &UDPSink{conn: conn}, nil
}

// Emit implements Sink.
func (u *UDPSink) Emit(_ context.Context, event Event) error {
	payload, err := json.Marshal(event.Logstash())
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	_, err = u.conn.Write(payload)
	return err
}

// Close releases the socket.
func (u *UDPSink) Close() error {
	return u.conn.Close()
}
