package conversation

// State is a step of the turn state machine:
// Received -> Scored -> {Escalated | Responded} -> Terminal.
type State string

const (
	StateReceived  State = "RECEIVED"
	StateScored    State = "SCORED"
	StateEscalated State = "ESCALATED"
	StateResponded State = "RESPONDED"
	StateTerminal  State = "TERMINAL"
)

var transitions = map[State][]State{
	StateReceived:  {StateScored},
	StateScored:    {StateEscalated, StateResponded},
	StateEscalated: {StateTerminal},
	StateResponded: {StateTerminal},
}

// CanTransition reports whether to is a legal successor of from.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
