package plugin

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dm-vev/netcore/core/achievement"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/message"
	"github.com/dm-vev/netcore/core/rank"
)

type (
	// JoinHandler is called after a player finished joining.
	JoinHandler func(p *cplayer.CorePlayer)
	// QuitHandler is called after a player left.
	QuitHandler func(p *cplayer.CorePlayer)
	// RankChangeHandler is called when the rank of an online player changed.
	RankChangeHandler func(p *cplayer.CorePlayer, from, to rank.Rank)
	// AchievementHandler is called when a player unlocked an achievement.
	AchievementHandler func(p *cplayer.CorePlayer, d achievement.Definition)
)

type eventRegistration[T any] struct {
	plugin  string
	handler T
	id      uint64
}

type eventList[T any] struct {
	regs []eventRegistration[T]
	next uint64
}

func (l *eventList[T]) add(plugin string, handler T) uint64 {
	id := l.next
	l.next++
	l.regs = append(l.regs, eventRegistration[T]{plugin: plugin, handler: handler, id: id})
	return id
}

func (l *eventList[T]) remove(keep func(eventRegistration[T]) bool) {
	regs := l.regs[:0]
	for _, reg := range l.regs {
		if keep(reg) {
			regs = append(regs, reg)
		}
	}
	clear(l.regs[len(regs):])
	l.regs = regs
}

func (l *eventList[T]) removeByID(id uint64) {
	l.remove(func(reg eventRegistration[T]) bool { return reg.id != id })
}

func (l *eventList[T]) removePlugin(plugin string) {
	l.remove(func(reg eventRegistration[T]) bool { return reg.plugin != plugin })
}

func (l *eventList[T]) rename(oldName, newName string) {
	for i := range l.regs {
		if l.regs[i].plugin == oldName {
			l.regs[i].plugin = newName
		}
	}
}

func (l *eventList[T]) snapshot() []eventRegistration[T] {
	if len(l.regs) == 0 {
		return nil
	}
	out := make([]eventRegistration[T], len(l.regs))
	copy(out, l.regs)
	return out
}

// eventHub fans core events out to plugin handlers. It implements
// cplayer.Listener; HandleAchievement is an achievement.GrantFunc.
type eventHub struct {
	log     *slog.Logger
	manager *Manager

	mu           sync.Mutex
	join         eventList[JoinHandler]
	quit         eventList[QuitHandler]
	rankChange   eventList[RankChangeHandler]
	achievements eventList[AchievementHandler]
	// bus subscriptions, removed through their unsubscribe funcs.
	messages eventList[func()]
}

var _ cplayer.Listener = (*eventHub)(nil)

func newEventHub(manager *Manager, log *slog.Logger) *eventHub {
	return &eventHub{manager: manager, log: log.With("subsystem", "plugin.events")}
}

func register[T any](h *eventHub, list *eventList[T], plugin string, handler T) func() {
	h.mu.Lock()
	id := list.add(plugin, handler)
	h.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			list.removeByID(id)
			h.mu.Unlock()
		})
	}
}

func snapshot[T any](h *eventHub, list *eventList[T]) []eventRegistration[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return list.snapshot()
}

func (h *eventHub) onJoin(plugin string, fn JoinHandler) func() {
	if fn == nil {
		return func() {}
	}
	return register(h, &h.join, plugin, fn)
}

func (h *eventHub) onQuit(plugin string, fn QuitHandler) func() {
	if fn == nil {
		return func() {}
	}
	return register(h, &h.quit, plugin, fn)
}

func (h *eventHub) onRankChange(plugin string, fn RankChangeHandler) func() {
	if fn == nil {
		return func() {}
	}
	return register(h, &h.rankChange, plugin, fn)
}

func (h *eventHub) onAchievement(plugin string, fn AchievementHandler) func() {
	if fn == nil {
		return func() {}
	}
	return register(h, &h.achievements, plugin, fn)
}

// onMessage subscribes fn on bus and removes the subscription again when the
// plugin is disabled.
func (h *eventHub) onMessage(plugin string, bus message.Bus, kind message.Kind, fn message.Handler) func() {
	if fn == nil || bus == nil {
		return func() {}
	}
	unsubscribe := bus.Subscribe(kind, func(ctx context.Context, source string, p message.Packet) {
		h.invoke(plugin, func() { fn(ctx, source, p) })
	})
	remove := register(h, &h.messages, plugin, unsubscribe)
	return func() {
		remove()
		unsubscribe()
	}
}

func (h *eventHub) rename(oldName, newName string) {
	if oldName == newName {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.join.rename(oldName, newName)
	h.quit.rename(oldName, newName)
	h.rankChange.rename(oldName, newName)
	h.achievements.rename(oldName, newName)
	h.messages.rename(oldName, newName)
}

// clear removes every handler registered by plugin.
func (h *eventHub) clear(plugin string) {
	h.mu.Lock()
	var unsubscribe []func()
	for _, reg := range h.messages.regs {
		if reg.plugin == plugin {
			unsubscribe = append(unsubscribe, reg.handler)
		}
	}
	h.join.removePlugin(plugin)
	h.quit.removePlugin(plugin)
	h.rankChange.removePlugin(plugin)
	h.achievements.removePlugin(plugin)
	h.messages.removePlugin(plugin)
	h.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
}

// HandleJoin is part of the cplayer.Listener interface.
func (h *eventHub) HandleJoin(p *cplayer.CorePlayer) {
	for _, reg := range snapshot(h, &h.join) {
		h.invoke(reg.plugin, func() { reg.handler(p) })
	}
}

// HandleQuit is part of the cplayer.Listener interface.
func (h *eventHub) HandleQuit(p *cplayer.CorePlayer) {
	for _, reg := range snapshot(h, &h.quit) {
		h.invoke(reg.plugin, func() { reg.handler(p) })
	}
}

// HandleRankChange is part of the cplayer.Listener interface.
func (h *eventHub) HandleRankChange(p *cplayer.CorePlayer, from, to rank.Rank) {
	for _, reg := range snapshot(h, &h.rankChange) {
		h.invoke(reg.plugin, func() { reg.handler(p, from, to) })
	}
}

// HandleAchievement matches achievement.GrantFunc.
func (h *eventHub) HandleAchievement(p *cplayer.CorePlayer, d achievement.Definition) {
	for _, reg := range snapshot(h, &h.achievements) {
		h.invoke(reg.plugin, func() { reg.handler(p, d) })
	}
}

func (h *eventHub) invoke(plugin string, call func()) {
	defer func() {
		if r := recover(); r != nil {
			h.manager.handlePluginPanic(plugin, r)
		}
	}()
	call()
}
