package connector

// State is the connector's position in its poll cycle.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateAwaitingResponse
	StateOffline
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateOffline:
		return "offline"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
