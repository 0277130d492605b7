package status

import "errors"

// ErrSlotOutOfRange is returned when a slot index does not belong to a configured rig.
var ErrSlotOutOfRange = errors.New("slot index out of range")
