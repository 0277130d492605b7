package connector

import (
	"context"
	"sync"

	"ethmon/pkg/log"
	"ethmon/pkg/models"
	"ethmon/pkg/status"
)

// Fleet runs one connector per configured rig over a shared table.
type Fleet struct {
	connectors []*Connector
	wg         sync.WaitGroup
}

// NewFleet creates a connector for every rig. Rig i writes slot i of table.
func NewFleet(rigs []models.RigConfig, table *status.Table, opts Options) *Fleet {
	connectors := make([]*Connector, len(rigs))
	for i, rig := range rigs {
		connectors[i] = New(i, rig, table, opts)
	}
	return &Fleet{
		connectors: connectors,
	}
}

// Start launches every connector. They stop when ctx is cancelled.
func (f *Fleet) Start(ctx context.Context) {
	for _, c := range f.connectors {
		f.wg.Add(1)
		go func(conn *Connector) {
			defer f.wg.Done()
			conn.Run(ctx)
		}(c)
	}

	log.Info().
		Int("rig_count", len(f.connectors)).
		Msg("Fleet started")
}

// Wait blocks until every connector has returned.
func (f *Fleet) Wait() {
	f.wg.Wait()
	log.Info().Msg("Fleet stopped")
}

// Len returns the number of connectors.
func (f *Fleet) Len() int {
	return len(f.connectors)
}

// Stats returns the runtime counters of rig index.
func (f *Fleet) Stats(index int) (models.RigStats, bool) {
	if index < 0 || index >= len(f.connectors) {
		return models.RigStats{}, false
	}
	return f.connectors[index].Stats(), true
}

// StateName returns the state of rig index as text.
func (f *Fleet) StateName(index int) (string, bool) {
	if index < 0 || index >= len(f.connectors) {
		return "", false
	}
	return f.connectors[index].State().String(), true
}
