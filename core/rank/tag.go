package rank

import "strings"

// Tag is a supplementary badge, such as a sponsor tier, held independently of
// the player's rank.
type Tag struct {
	ID     int
	Name   string
	Short  string
	Colour string
}

var (
	SponsorI   = Tag{ID: 1, Name: "sponsor_1", Short: "S1", Colour: "yellow"}
	SponsorII  = Tag{ID: 2, Name: "sponsor_2", Short: "S2", Colour: "gold"}
	SponsorIII = Tag{ID: 3, Name: "sponsor_3", Short: "S3", Colour: "red"}
	Tester     = Tag{ID: 4, Name: "tester", Short: "QA", Colour: "aqua"}
	EventTeam  = Tag{ID: 5, Name: "event_team", Short: "EV", Colour: "dark-purple"}
	BuildTeam  = Tag{ID: 6, Name: "build_team", Short: "BT", Colour: "blue"}
	Support    = Tag{ID: 7, Name: "support", Short: "SUP", Colour: "green"}
	Staff      = Tag{ID: 8, Name: "staff", Short: "ST", Colour: "dark-red"}
)

var tags = []Tag{SponsorI, SponsorII, SponsorIII, Tester, EventTeam, BuildTeam, Support, Staff}

// Tags returns every tag in ascending ID order.
func Tags() []Tag {
	out := make([]Tag, len(tags))
	copy(out, tags)
	return out
}

// TagFromString resolves a tag by name or short code, ignoring case.
func TagFromString(s string) (Tag, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return Tag{}, false
	}
	for _, t := range tags {
		if t.Name == name || strings.ToLower(t.Short) == name {
			return t, true
		}
	}
	return Tag{}, false
}

// TagByID resolves a tag by its numeric ID.
func TagByID(id int) (Tag, bool) {
	for _, t := range tags {
		if t.ID == id {
			return t, true
		}
	}
	return Tag{}, false
}

// TagsByID resolves a list of IDs, silently skipping unknown ones.
func TagsByID(ids []int) []Tag {
	out := make([]Tag, 0, len(ids))
	for _, id := range ids {
		if t, ok := TagByID(id); ok {
			out = append(out, t)
		}
	}
	return out
}

// TagIDs returns the IDs of the tags passed, in order.
func TagIDs(t []Tag) []int {
	ids := make([]int, len(t))
	for i, tag := range t {
		ids[i] = tag.ID
	}
	return ids
}

// String returns the persisted name of the tag.
func (t Tag) String() string {
	return t.Name
}
