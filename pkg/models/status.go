package models

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

const (
	// Never is shown for timestamps that have no value yet.
	Never = "never"
	// DisplayTimeLayout is the timestamp format used on the dashboard and in events.
	DisplayTimeLayout = "2006-01-02 15:04:05"
)

// FormatTime renders t for display, or Never when t is nil.
func FormatTime(t *time.Time) string {
	if t == nil {
		return Never
	}
	return t.Format(DisplayTimeLayout)
}

// StatusRecord is the published state of one rig. Records are replaced
// wholesale and must not be mutated after publication.
type StatusRecord struct {
	Name   string
	Host   string
	Uptime string

	Primary          Totals
	Secondary        Totals
	PrimaryDevices   Readings
	SecondaryDevices Readings
	Climate          Climate
	Pools            []string
	Version          string

	TargetPrimary   *float64
	TargetSecondary *float64
	Comment         string
	Offline         bool

	Warning  *string
	Error    *string
	LastSeen string
	LastGood *string
}

// HasData reports whether any field decoded from a rig response is set.
func (r StatusRecord) HasData() bool {
	return r.Uptime != "" ||
		!r.Primary.IsZero() ||
		!r.Secondary.IsZero() ||
		len(r.PrimaryDevices) > 0 ||
		len(r.SecondaryDevices) > 0 ||
		len(r.Climate) > 0 ||
		len(r.Pools) > 0 ||
		r.Version != ""
}

// Clone returns a deep copy.
func (r StatusRecord) Clone() StatusRecord {
	c := r
	c.PrimaryDevices = slices.Clone(r.PrimaryDevices)
	c.SecondaryDevices = slices.Clone(r.SecondaryDevices)
	c.Climate = slices.Clone(r.Climate)
	c.Pools = slices.Clone(r.Pools)
	c.TargetPrimary = clonePtr(r.TargetPrimary)
	c.TargetSecondary = clonePtr(r.TargetSecondary)
	c.Warning = clonePtr(r.Warning)
	c.Error = clonePtr(r.Error)
	c.LastGood = clonePtr(r.LastGood)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type statusRecordJSON struct {
	Name      string   `json:"name"`
	Host      string   `json:"host"`
	Uptime    string   `json:"uptime"`
	Eth       string   `json:"eth"`
	Dcr       string   `json:"dcr"`
	EthHR     string   `json:"eth_hr"`
	DcrHR     string   `json:"dcr_hr"`
	Temps     string   `json:"temps"`
	Pools     string   `json:"pools"`
	Ver       string   `json:"ver"`
	TargetEth *float64 `json:"target_eth"`
	TargetDcr *float64 `json:"target_dcr"`
	Comments  string   `json:"comments"`
	Offline   bool     `json:"offline"`
	Warning   *string  `json:"warning"`
	Error     *string  `json:"error"`
	LastSeen  string   `json:"last_seen"`
	LastGood  *string  `json:"last_good,omitempty"`
}

// MarshalJSON renders the record with the dashboard's field names and
// multi-value fields in semicolon notation.
func (r StatusRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(statusRecordJSON{
		Name:      r.Name,
		Host:      r.Host,
		Uptime:    r.Uptime,
		Eth:       r.Primary.String(),
		Dcr:       r.Secondary.String(),
		EthHR:     r.PrimaryDevices.String(),
		DcrHR:     r.SecondaryDevices.String(),
		Temps:     r.Climate.String(),
		Pools:     strings.Join(r.Pools, fieldSeparator),
		Ver:       r.Version,
		TargetEth: r.TargetPrimary,
		TargetDcr: r.TargetSecondary,
		Comments:  r.Comment,
		Offline:   r.Offline,
		Warning:   r.Warning,
		Error:     r.Error,
		LastSeen:  r.LastSeen,
		LastGood:  r.LastGood,
	})
}
