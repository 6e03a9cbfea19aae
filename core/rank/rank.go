// Package rank defines the fixed rank hierarchy and the supplementary tags a
// player may carry across the network. Presentation lives in format.go so the
// records themselves stay plain data.
package rank

import "strings"

// Rank is a player's hierarchical role. Ranks are immutable values; compare
// them by ID.
type Rank struct {
	// ID orders ranks. Higher IDs outrank lower ones.
	ID int
	// Name is the stable identifier stored in persistence.
	Name string
	// DisplayName is shown to players in chat and on the sidebar.
	DisplayName string
	// TagColour and ChatColour are text.Colourf colour tags, such as "gold".
	TagColour  string
	ChatColour string
	// Operator marks ranks that are granted every command.
	Operator bool
}

var (
	Guest     = Rank{ID: 0, Name: "guest", DisplayName: "Guest", TagColour: "grey", ChatColour: "grey"}
	Member    = Rank{ID: 1, Name: "member", DisplayName: "Member", TagColour: "white", ChatColour: "white"}
	VIP       = Rank{ID: 2, Name: "vip", DisplayName: "VIP", TagColour: "green", ChatColour: "white"}
	VIPPlus   = Rank{ID: 3, Name: "vip_plus", DisplayName: "VIP+", TagColour: "dark-green", ChatColour: "white"}
	MVP       = Rank{ID: 4, Name: "mvp", DisplayName: "MVP", TagColour: "aqua", ChatColour: "white"}
	MVPPlus   = Rank{ID: 5, Name: "mvp_plus", DisplayName: "MVP+", TagColour: "dark-aqua", ChatColour: "white"}
	Creator   = Rank{ID: 6, Name: "creator", DisplayName: "Creator", TagColour: "red", ChatColour: "white"}
	Builder   = Rank{ID: 7, Name: "builder", DisplayName: "Builder", TagColour: "blue", ChatColour: "white"}
	Helper    = Rank{ID: 8, Name: "helper", DisplayName: "Helper", TagColour: "yellow", ChatColour: "white"}
	Moderator = Rank{ID: 9, Name: "moderator", DisplayName: "Mod", TagColour: "gold", ChatColour: "white"}
	Developer = Rank{ID: 10, Name: "developer", DisplayName: "Dev", TagColour: "purple", ChatColour: "white", Operator: true}
	Manager   = Rank{ID: 11, Name: "manager", DisplayName: "Manager", TagColour: "dark-red", ChatColour: "white", Operator: true}
	Lead      = Rank{ID: 12, Name: "lead", DisplayName: "Lead", TagColour: "dark-red", ChatColour: "yellow", Operator: true}
)

var ranks = []Rank{Guest, Member, VIP, VIPPlus, MVP, MVPPlus, Creator, Builder, Helper, Moderator, Developer, Manager, Lead}

// All returns every rank in ascending ID order.
func All() []Rank {
	out := make([]Rank, len(ranks))
	copy(out, ranks)
	return out
}

// FromString resolves a rank by name or display name, ignoring case. "admin"
// resolves to Lead. Empty or unknown input resolves to Guest.
func FromString(s string) Rank {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return Guest
	}
	if name == "admin" {
		return Lead
	}
	for _, r := range ranks {
		if r.Name == name || strings.ToLower(r.DisplayName) == name {
			return r
		}
	}
	return Guest
}

// ByID resolves a rank by its numeric ID, falling back to Guest.
func ByID(id int) Rank {
	for _, r := range ranks {
		if r.ID == id {
			return r
		}
	}
	return Guest
}

// String returns the persisted name of the rank.
func (r Rank) String() string {
	return r.Name
}

// AtLeast reports if r is equal to or higher than other.
func (r Rank) AtLeast(other Rank) bool {
	return r.ID >= other.ID
}

// Staff reports if the rank belongs to the staff team.
func (r Rank) Staff() bool {
	return r.AtLeast(Helper)
}
