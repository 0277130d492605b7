package config

import "errors"

var (
	// ErrNoMiners is returned when the configuration lists no rigs.
	ErrNoMiners = errors.New("no miners configured")

	// ErrInvalidMiner is returned when a rig entry is incomplete or out of range.
	ErrInvalidMiner = errors.New("invalid miner entry")

	// ErrInvalidTolerance is returned when tolerance is not within [0, 100).
	ErrInvalidTolerance = errors.New("tolerance must be within [0, 100)")

	// ErrInvalidSetting is returned for malformed global settings.
	ErrInvalidSetting = errors.New("invalid setting")
)
