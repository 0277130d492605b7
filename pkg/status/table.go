// Package status holds the shared table of per-rig status records.
package status

import (
	"fmt"
	"sync/atomic"

	"ethmon/pkg/models"
)

// Table is a fixed-size, slot-addressed set of status records. Each slot is
// written by exactly one connector and may be read concurrently by anyone.
type Table struct {
	slots []atomic.Pointer[models.StatusRecord]
}

// NewTable creates one slot per rig, in configuration order, each holding a
// pending record until the rig's first poll outcome.
func NewTable(rigs []models.RigConfig) *Table {
	table := &Table{
		slots: make([]atomic.Pointer[models.StatusRecord], len(rigs)),
	}
	for i, rig := range rigs {
		record := Pending(rig)
		table.slots[i].Store(&record)
	}
	return table
}

// Len returns the number of slots. It never changes.
func (t *Table) Len() int {
	return len(t.slots)
}

// Get returns a copy of the record at index.
func (t *Table) Get(index int) (models.StatusRecord, bool) {
	if index < 0 || index >= len(t.slots) {
		return models.StatusRecord{}, false
	}
	return t.slots[index].Load().Clone(), true
}

// All returns copies of every record in slot order.
func (t *Table) All() []models.StatusRecord {
	records := make([]models.StatusRecord, len(t.slots))
	for i := range t.slots {
		records[i] = t.slots[i].Load().Clone()
	}
	return records
}

// Set replaces the record at index. The table keeps its own copy.
func (t *Table) Set(index int, record models.StatusRecord) error {
	if index < 0 || index >= len(t.slots) {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, index)
	}
	stored := record.Clone()
	t.slots[index].Store(&stored)
	return nil
}
