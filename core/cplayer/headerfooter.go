package cplayer

import "strings"

// HeaderFooterManager holds a header and footer for a player. Bedrock clients
// have no player list header, so both are rendered as a tip above the hotbar
// on Refresh.
type HeaderFooterManager struct {
	p              *CorePlayer
	header, footer string
}

// Set replaces the header and footer and shows them.
func (m *HeaderFooterManager) Set(header, footer string) {
	m.header, m.footer = header, footer
	m.Refresh()
}

func (m *HeaderFooterManager) Header() string { return m.header }
func (m *HeaderFooterManager) Footer() string { return m.footer }

// Text returns the text shown to the player.
func (m *HeaderFooterManager) Text() string {
	return strings.Trim(m.header+"\n"+m.footer, "\n")
}

// Refresh shows the header and footer again. Tips fade after a few seconds,
// so Refresh is called periodically.
func (m *HeaderFooterManager) Refresh() {
	h, ok := m.p.active()
	if !ok {
		return
	}
	if s := m.Text(); s != "" {
		h.SendTip(s)
	}
}

// Clear removes the header and footer.
func (m *HeaderFooterManager) Clear() {
	m.header, m.footer = "", ""
}
