package protocol

// Rejection codes. A rejected proposal becomes a recorded no-op, never a
// dropped one; the code plus reason string travels into the round record and
// the actor's next summary.
const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Proposal shape/rule layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrUnknownKind   = "E_UNKNOWN_KIND"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrNoResource    = "E_NO_RESOURCE"
	ErrOverCap       = "E_OVER_CAP"
	ErrNoProject     = "E_NO_PROJECT"
	ErrStale         = "E_STALE"

	// Actor boundary.
	ErrTimeout     = "E_TIMEOUT"
	ErrActorFailed = "E_ACTOR_FAILED"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrUnknownKind:     {},
	ErrInvalidTarget:   {},
	ErrNoResource:      {},
	ErrOverCap:         {},
	ErrNoProject:       {},
	ErrStale:           {},
	ErrTimeout:         {},
	ErrActorFailed:     {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// Rejection pairs a code with a human-readable reason. It is the structured
// form every invalid proposal degrades into.
type Rejection struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func Reject(code, reason string) *Rejection {
	return &Rejection{Code: code, Reason: reason}
}

func (r *Rejection) Error() string {
	if r == nil {
		return ""
	}
	return r.Code + ": " + r.Reason
}
