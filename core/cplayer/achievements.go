package cplayer

import "slices"

// Achievements the session grants itself. The achievement package registers
// their definitions.
const (
	AchievementFirstJoin = iota + 1
	AchievementFirstPurchase
	AchievementHonourable
	AchievementStaffChat
)

// HonourableThreshold is the honor at which AchievementHonourable is granted.
const HonourableThreshold = 100

// AchievementManager grants achievements to a single player once its owned
// achievements were loaded.
type AchievementManager interface {
	Give(id int)
}

// achievementState is either *pendingAchievements or readyAchievements.
type achievementState interface {
	achievementState()
}

// pendingAchievements buffers grants until the manager is attached.
type pendingAchievements struct {
	ids []int
}

type readyAchievements struct {
	m AchievementManager
}

func (*pendingAchievements) achievementState() {}
func (readyAchievements) achievementState()    {}

// GiveAchievement grants achievement id. Grants made before the achievement
// manager was attached are buffered once per ID and replayed on attach.
func (p *CorePlayer) GiveAchievement(id int) {
	p.mu.Lock()
	if p.status == StatusLeft {
		p.mu.Unlock()
		return
	}
	switch s := p.achievements.(type) {
	case *pendingAchievements:
		if !slices.Contains(s.ids, id) {
			s.ids = append(s.ids, id)
		}
		p.mu.Unlock()
	case readyAchievements:
		p.mu.Unlock()
		s.m.Give(id)
	}
}

// AttachAchievements attaches the achievement manager of the player and
// replays buffered grants in the order they were made. Attaching again
// replaces the manager.
func (p *CorePlayer) AttachAchievements(m AchievementManager) {
	if m == nil {
		return
	}
	p.mu.Lock()
	var replay []int
	if s, ok := p.achievements.(*pendingAchievements); ok {
		replay = s.ids
	}
	p.achievements = readyAchievements{m: m}
	p.mu.Unlock()

	for _, id := range replay {
		m.Give(id)
	}
}

// PendingAchievements returns the grants buffered before the achievement
// manager was attached.
func (p *CorePlayer) PendingAchievements() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.achievements.(*pendingAchievements); ok {
		return slices.Clone(s.ids)
	}
	return nil
}

// AchievementManager returns the attached achievement manager.
func (p *CorePlayer) AchievementManager() (AchievementManager, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.achievements.(readyAchievements)
	return s.m, ok
}
