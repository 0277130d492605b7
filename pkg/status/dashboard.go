package status

import (
	"time"

	"ethmon/pkg/models"
)

// Meta is process-wide display metadata for the dashboard.
type Meta struct {
	Title     string
	Header    string
	Animation bool
	Refresh   int // Seconds between page reloads
	Tolerance float64
	// Passed through from configuration for the page to interpret.
	Temperature interface{}
	Hashrates   interface{}
}

// Dashboard is everything a page needs to render the fleet.
type Dashboard struct {
	Title       string                `json:"title"`
	Header      string                `json:"header"`
	Animation   bool                  `json:"animation"`
	Refresh     int                   `json:"refresh"`
	Tolerance   float64               `json:"tolerance"`
	Temperature interface{}           `json:"temperature,omitempty"`
	Hashrates   interface{}           `json:"hashrates,omitempty"`
	Updated     string                `json:"updated"`
	Miners      []models.StatusRecord `json:"miners"`
}

// Dashboard snapshots the table together with meta.
func (t *Table) Dashboard(meta Meta, now time.Time) Dashboard {
	header := meta.Header
	if header == "" {
		header = meta.Title
	}
	return Dashboard{
		Title:       meta.Title,
		Header:      header,
		Animation:   meta.Animation,
		Refresh:     meta.Refresh,
		Tolerance:   meta.Tolerance,
		Temperature: meta.Temperature,
		Hashrates:   meta.Hashrates,
		Updated:     now.Format(models.DisplayTimeLayout),
		Miners:      t.All(),
	}
}
