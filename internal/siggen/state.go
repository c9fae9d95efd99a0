package siggen

// State is the lifecycle state of one output channel.
//
// Transitions are strictly ordered:
//
//	Idle → Configuring → Enabled
//	Enabled → BurstArmed → Bursting → Enabled
//
// A transport failure mid-sequence parks the channel in Unknown: the
// instrument may have applied some of the commands, so nothing about
// its configuration can be assumed until the next full configure.
type State int

// Channel states.
const (
	StateIdle State = iota
	StateConfiguring
	StateEnabled
	StateBurstArmed
	StateBursting
	StateUnknown
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateConfiguring: "configuring",
	StateEnabled:     "enabled",
	StateBurstArmed:  "burst-armed",
	StateBursting:    "bursting",
	StateUnknown:     "unknown",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "invalid"
}
