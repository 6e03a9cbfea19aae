package cplayer

// Status is the lifecycle state of a player session. Sessions only move
// forward: Login, then Joined, then Left.
type Status uint8

const (
	// StatusLogin is set once the player was authenticated and its stored data
	// loaded, before it spawned in a world.
	StatusLogin Status = iota
	// StatusJoined is set while the player is spawned and a host handle is
	// attached.
	StatusJoined
	// StatusLeft is set once the player disconnected.
	StatusLeft
)

// String returns a lower case name for the status.
func (s Status) String() string {
	switch s {
	case StatusLogin:
		return "login"
	case StatusJoined:
		return "joined"
	case StatusLeft:
		return "left"
	}
	return "unknown"
}
