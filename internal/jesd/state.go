// internal/jesd/state.go
package jesd

// State is the last step the link trainer reached. The constants are in
// execution order. SysrefSent is entered twice in one run: after the
// second initialization pulse and again after the post-LMFC pulse.
type State int

const (
	StateReset State = iota
	StateResetPulsed
	StateRateConfigured
	StateSysrefSent
	StateFramerStarted
	StateDeframerStarted
	StateVerified
	StateFailed
)

var stateNames = [...]string{
	StateReset:           "reset",
	StateResetPulsed:     "reset-pulsed",
	StateRateConfigured:  "rate-configured",
	StateSysrefSent:      "sysref-sent",
	StateFramerStarted:   "framer-started",
	StateDeframerStarted: "deframer-started",
	StateVerified:        "verified",
	StateFailed:          "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "invalid"
	}
	return stateNames[s]
}
