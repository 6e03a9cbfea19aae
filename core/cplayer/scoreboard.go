package cplayer

import (
	"maps"

	"github.com/df-mc/dragonfly/server/player/scoreboard"
	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/rank"
	"github.com/sandertv/gophertunnel/minecraft/text"
)

// maxScoreboardLines is the number of lines a Bedrock sidebar can show.
const maxScoreboardLines = 15

// ScoreboardManager renders the network sidebar of a player.
type ScoreboardManager struct {
	p        *CorePlayer
	title    string
	lines    []string
	balances map[currency.Currency]int
	visible  bool
}

// SetTitle changes the sidebar title.
func (s *ScoreboardManager) SetTitle(title string) {
	s.title = title
	if s.visible {
		s.Update()
	}
}

// SetLines replaces the custom lines shown below the network lines.
func (s *ScoreboardManager) SetLines(lines ...string) {
	s.lines = append([]string(nil), lines...)
	if s.visible {
		s.Update()
	}
}

// SetBalances replaces the balances shown on the sidebar. Balances are loaded
// off the world goroutine and handed in here.
func (s *ScoreboardManager) SetBalances(b map[currency.Currency]int) {
	s.balances = maps.Clone(b)
}

// Lines returns the lines the sidebar currently renders.
func (s *ScoreboardManager) Lines() []string {
	r, tags := s.p.Rank(), s.p.Tags()

	lines := []string{text.Colourf("<grey>Rank:</grey> ") + rank.FormatName(r, r.DisplayName)}
	if line := rank.FormatSidebar(tags); line != "" {
		lines = append(lines, line)
	}
	lines = append(lines, "")
	if s.balances != nil {
		for _, c := range currency.All() {
			col := c.Colour()
			lines = append(lines, text.Colourf("<"+col+">%s:</"+col+"> <white>%d</white>", c.DisplayName(), s.balances[c]))
		}
	}
	lines = append(lines, text.Colourf("<purple>Honor:</purple> <white>%d</white>", s.p.Honor()))
	if len(s.lines) > 0 {
		lines = append(lines, "")
		lines = append(lines, s.lines...)
	}
	if len(lines) > maxScoreboardLines {
		lines = lines[:maxScoreboardLines]
	}
	return lines
}

// Update renders the sidebar and sends it to the player.
func (s *ScoreboardManager) Update() {
	h, ok := s.p.active()
	if !ok {
		return
	}
	sb := scoreboard.New(s.title)
	for i, line := range s.Lines() {
		sb.Set(i, line)
	}
	h.SendScoreboard(sb)
	s.visible = true
}

// Visible reports if the sidebar was sent and not removed since.
func (s *ScoreboardManager) Visible() bool {
	return s.visible
}

// Remove hides the sidebar.
func (s *ScoreboardManager) Remove() {
	if !s.visible {
		return
	}
	s.visible = false
	if h, ok := s.p.active(); ok {
		h.RemoveScoreboard()
	}
}
