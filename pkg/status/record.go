package status

import (
	"ethmon/pkg/models"
	"ethmon/pkg/rpc"
)

// Pending is the record a slot holds before its rig reports anything.
func Pending(rig models.RigConfig) models.StatusRecord {
	return base(rig, models.Never)
}

// Offline is the static record of an administratively disabled rig.
func Offline(rig models.RigConfig) models.StatusRecord {
	return base(rig, models.Never)
}

// Failure builds an error record. Data fields stay empty and lastSeen is
// carried over from the rig's last successful poll.
func Failure(rig models.RigConfig, reason, lastSeen string) models.StatusRecord {
	record := base(rig, lastSeen)
	record.Error = &reason
	return record
}

// Success builds a record from a decoded stats response.
func Success(rig models.RigConfig, stats *rpc.Stats, lastSeen string) models.StatusRecord {
	record := base(rig, lastSeen)
	record.Uptime = rpc.FormatUptime(stats.UptimeMinutes)
	record.Primary = stats.Primary
	record.Secondary = stats.Secondary
	record.PrimaryDevices = stats.PrimaryDevices
	record.SecondaryDevices = stats.SecondaryDevices
	record.Climate = stats.Climate
	record.Pools = stats.Pools
	record.Version = stats.Version
	return record
}

func base(rig models.RigConfig, lastSeen string) models.StatusRecord {
	return models.StatusRecord{
		Name:            rig.Name,
		Host:            rig.DisplayHost(),
		TargetPrimary:   rig.TargetPrimary,
		TargetSecondary: rig.TargetSecondary,
		Comment:         rig.Comment,
		Offline:         rig.Offline,
		LastSeen:        lastSeen,
	}
}
