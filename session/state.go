package session

// State is the lifecycle state of the held credential.
type State int

const (
	SignedOut State = iota
	SignedIn
	Refreshing
)

func (s State) String() string {
	switch s {
	case SignedOut:
		return "signed_out"
	case SignedIn:
		return "signed_in"
	case Refreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}
