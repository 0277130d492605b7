package models

import (
	"net"
	"strconv"
	"time"
)

// RigConfig describes one polled rig. It is built once at startup and never mutated.
type RigConfig struct {
	Name     string
	Host     string
	Port     int
	Hostname string // Optional display override for host:port

	Poll    time.Duration
	Timeout time.Duration

	TargetPrimary   *float64
	TargetSecondary *float64

	Comment string
	Offline bool
}

// Address returns the TCP dial address.
func (c RigConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DisplayHost returns the hostname override if set, otherwise host:port.
func (c RigConfig) DisplayHost() string {
	if c.Hostname != "" {
		return c.Hostname
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// RigStats is a read-only copy of a connector's runtime counters.
type RigStats struct {
	Requests  uint64     `json:"requests"`
	Responses uint64     `json:"responses"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	LastGood  *time.Time `json:"last_good,omitempty"`
}
