package backup

import "strings"

// Action is the closed set of backup operations.
type Action int

const (
	// ActionNoop is any unrecognized action; it succeeds without effect.
	ActionNoop Action = iota
	ActionUpload
	ActionDownload
)

// ParseAction maps a request value to an Action. Unknown values map to
// ActionNoop rather than an error.
func ParseAction(raw string) Action {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "upload":
		return ActionUpload
	case "download":
		return ActionDownload
	default:
		return ActionNoop
	}
}

func (a Action) String() string {
	switch a {
	case ActionUpload:
		return "upload"
	case ActionDownload:
		return "download"
	default:
		return "noop"
	}
}
