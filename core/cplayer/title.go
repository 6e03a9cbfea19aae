package cplayer

import (
	"time"

	"github.com/df-mc/dragonfly/server/player/title"
)

// Default title timings.
const (
	DefaultTitleFadeIn  = 500 * time.Millisecond
	DefaultTitleStay    = 3500 * time.Millisecond
	DefaultTitleFadeOut = time.Second
)

// TitleManager sends titles to a player and remembers the last one.
type TitleManager struct {
	p    *CorePlayer
	last title.Title
	sent bool
}

// Send shows a title and subtitle with the default timings.
func (t *TitleManager) Send(text, subtitle string) {
	t.SendTimed(text, subtitle, DefaultTitleFadeIn, DefaultTitleStay, DefaultTitleFadeOut)
}

// SendTimed shows a title and subtitle with the timings passed.
func (t *TitleManager) SendTimed(text, subtitle string, fadeIn, stay, fadeOut time.Duration) {
	h, ok := t.p.active()
	if !ok || (text == "" && subtitle == "") {
		return
	}
	tt := title.New(text).
		WithFadeInDuration(fadeIn).
		WithDuration(stay).
		WithFadeOutDuration(fadeOut)
	if subtitle != "" {
		tt = tt.WithSubtitle(subtitle)
	}
	h.SendTitle(tt)
	t.last, t.sent = tt, true
}

// Last returns the last title sent since the last Clear.
func (t *TitleManager) Last() (title.Title, bool) {
	return t.last, t.sent
}

// Clear hides the title currently shown.
func (t *TitleManager) Clear() {
	if !t.sent {
		return
	}
	t.last, t.sent = title.Title{}, false
	if h, ok := t.p.active(); ok {
		h.SendTitle(title.New("").WithDuration(0).WithFadeInDuration(0).WithFadeOutDuration(0))
	}
}
