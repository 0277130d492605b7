// Package telemetry turns poll outcomes into structured events and ships
// them to log sinks.
package telemetry

import (
	"strconv"
	"time"

	"ethmon/pkg/models"
)

const (
	// CategoryStats tags events for successful polls.
	CategoryStats = "miner_stats"
	// CategoryErrors tags events for failed polls.
	CategoryErrors = "miner_errors"
	// DeviceSlots is the fixed number of per-device slots in a stats event.
	DeviceSlots = 6

	eventMessage = "got stats"
)

// Event is one structured record of a poll outcome.
type Event struct {
	Category string
	Message  string
	Time     time.Time
	Fields   map[string]interface{}
}

// StatsEvent describes a successful poll. raw is the rig's response line.
func StatsEvent(objectID string, record models.StatusRecord, raw []byte, now time.Time) Event {
	fields := map[string]interface{}{
		"object":          objectID,
		"socket_response": string(raw),
		"name":            record.Name,
		"host":            record.Host,
		"uptime":          record.Uptime,
		"pools":           poolList(record.Pools),
		"minerVersion":    record.Version,
		"offline":         record.Offline,
		"last_good":       record.LastGood,
		"ethSumHR":        record.Primary.Hashrate.Int(),
		"ethAccepted":     record.Primary.Accepted.Int(),
		"ethRejected":     record.Primary.Rejected.Int(),
		"dcrSumHR":        record.Secondary.Hashrate.Int(),
		"dcrAccepted":     record.Secondary.Accepted.Int(),
		"dcrRejected":     record.Secondary.Rejected.Int(),
	}
	for i := 0; i < DeviceSlots; i++ {
		slot := strconv.Itoa(i)
		fields["eth"+slot+"hr"] = record.PrimaryDevices.At(i)
		fields["dcr"+slot+"hr"] = record.SecondaryDevices.At(i)
		fields["temp"+slot] = record.Climate.Temp(i)
		fields["fan"+slot] = record.Climate.Fan(i)
	}
	return Event{
		Category: CategoryStats,
		Message:  eventMessage,
		Time:     now,
		Fields:   fields,
	}
}

// ErrorEvent describes a failed poll.
func ErrorEvent(objectID string, record models.StatusRecord, now time.Time) Event {
	reason := ""
	if record.Error != nil {
		reason = *record.Error
	}
	return Event{
		Category: CategoryErrors,
		Message:  eventMessage,
		Time:     now,
		Fields: map[string]interface{}{
			"object":       objectID,
			"name":         record.Name,
			"host":         record.Host,
			"uptime":       "",
			"temps":        "",
			"pools":        "",
			"minerVersion": "",
			"offline":      record.Offline,
			"error":        reason,
		},
	}
}

func poolList(pools []string) []string {
	if pools == nil {
		return []string{}
	}
	return pools
}

// Logstash renders the event as a Logstash JSON document.
func (e Event) Logstash() map[string]interface{} {
	fields := make(map[string]interface{}, len(e.Fields)+2)
	for key, value := range e.Fields {
		fields[key] = value
	}
	fields["level"] = "INFO"
	fields["category"] = e.Category
	return map[string]interface{}{
		"@version":   "1",
		"@timestamp": e.Time.UTC().Format(time.RFC3339Nano),
		"type":       e.Category,
		"message":    e.Message,
		"fields":     fields,
	}
}
