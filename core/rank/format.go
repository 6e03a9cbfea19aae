package rank

import (
	"slices"
	"strings"

	"github.com/sandertv/gophertunnel/minecraft/text"
)

// FormatChat renders tags as coloured bracketed short codes, highest ID first.
// The input slice is not modified. Nil or empty input yields "".
func FormatChat(t []Tag) string {
	sorted := sortedTags(t)
	if len(sorted) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tag := range sorted {
		b.WriteString(bracket(tag.Colour, tag.Short))
	}
	return b.String()
}

// FormatSidebar renders tags for the scoreboard sidebar, highest ID first and
// separated by spaces.
func FormatSidebar(t []Tag) string {
	sorted := sortedTags(t)
	if len(sorted) == 0 {
		return ""
	}
	parts := make([]string, len(sorted))
	for i, tag := range sorted {
		parts[i] = bracket(tag.Colour, tag.Short)
	}
	return strings.Join(parts, " ")
}

// ChatPrefix renders the tags followed by the rank badge. Guests carry no
// badge.
func ChatPrefix(r Rank, t []Tag) string {
	prefix := FormatChat(t)
	if r.ID != Guest.ID {
		prefix += bracket(r.TagColour, r.DisplayName)
	}
	if prefix == "" {
		return ""
	}
	return prefix + " "
}

// FormatName colours a player name with the rank's tag colour.
func FormatName(r Rank, name string) string {
	return colour(r.TagColour, "%s", name)
}

// FormatChatLine renders a full chat line for a player of rank r.
func FormatChatLine(r Rank, t []Tag, name, message string) string {
	return ChatPrefix(r, t) + FormatName(r, name) + text.Colourf("<grey>:</grey> ") + colour(r.ChatColour, "%s", message)
}

func bracket(c, s string) string {
	return colour(c, "[%s]", s)
}

// colour wraps format in a text.Colourf colour tag named c.
func colour(c, format string, a ...any) string {
	return text.Colourf("<"+c+">"+format+"</"+c+">", a...)
}

// sortedTags returns a de-duplicated copy of t sorted descending by ID.
func sortedTags(t []Tag) []Tag {
	if len(t) == 0 {
		return nil
	}
	out := slices.Clone(t)
	slices.SortFunc(out, func(a, b Tag) int {
		return b.ID - a.ID
	})
	return slices.CompactFunc(out, func(a, b Tag) bool {
		return a.ID == b.ID
	})
}
