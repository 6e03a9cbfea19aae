package cplayer

// PackInfo describes a resource pack offered by the server.
type PackInfo struct {
	UUID    string
	Name    string
	Version string
}

// PackStatus is the state of the resource packs of a client.
type PackStatus uint8

const (
	PackStatusUnknown PackStatus = iota
	PackStatusDeclined
	PackStatusLoaded
)

// ResourcePackManager reports the resource packs offered to a player.
// Bedrock negotiates packs before spawning, so packs are fixed per server.
type ResourcePackManager struct {
	p        *CorePlayer
	packs    []PackInfo
	required bool
	status   PackStatus
}

// Packs returns the packs offered to the player.
func (m *ResourcePackManager) Packs() []PackInfo {
	return append([]PackInfo(nil), m.packs...)
}

// Required reports if the client had to accept the packs to join.
func (m *ResourcePackManager) Required() bool {
	return m.required
}

// Status returns the last recorded pack status of the client.
func (m *ResourcePackManager) Status() PackStatus {
	return m.status
}

// SetStatus records the pack status of the client.
func (m *ResourcePackManager) SetStatus(s PackStatus) {
	m.status = s
}
