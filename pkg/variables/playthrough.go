package variables

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// --- Snapshots ---

// CreateSnapshot captures an independent copy of the explicit values. An
// empty label becomes "Snapshot N".
func (m *Manager) CreateSnapshot(sceneID, label string) domain.StateSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if label == "" {
		label = fmt.Sprintf("Snapshot %d", len(m.snapshots)+1)
	}
	snap := domain.StateSnapshot{
		ID:        m.newID(),
		Label:     label,
		SceneID:   sceneID,
		Timestamp: m.now(),
		Values:    m.values.Clone(),
	}
	m.snapshots = append(m.snapshots, snap)
	snap.Values = snap.Values.Clone()
	return snap
}

// RestoreSnapshot replaces the live values wholesale. Constraints, history
// and notifications are bypassed.
func (m *Manager) RestoreSnapshot(id string) bool {
	m.mu.Lock()
	ok := m.restore(id)
	m.mu.Unlock()
	m.dispatch()
	return ok
}

func (m *Manager) restore(id string) bool {
	for _, s := range m.snapshots {
		if s.ID != id {
			continue
		}
		restored := s.Values.Clone()
		if restored == nil {
			restored = make(domain.Values)
		}
		diff := domain.Diff(m.values, restored)
		m.values = restored
		m.logger.Debug("snapshot restored", "snapshot_id", id, "label", s.Label, "changed", diff.Keys())
		m.enqueue(notice{restore: &domain.RestoreEvent{SnapshotID: id, Label: s.Label, Diff: diff}})
		return true
	}
	return false
}

// Snapshots returns copies of every snapshot, oldest first.
func (m *Manager) Snapshots() []domain.StateSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.StateSnapshot, len(m.snapshots))
	for i, s := range m.snapshots {
		s.Values = s.Values.Clone()
		out[i] = s
	}
	return out
}

// DeleteSnapshot drops a snapshot by id.
func (m *Manager) DeleteSnapshot(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.snapshots {
		if s.ID == id {
			m.snapshots = append(m.snapshots[:i], m.snapshots[i+1:]...)
			return true
		}
	}
	return false
}

// --- Playthrough ---

// StartPlaythrough resets every variable, discards any previous playthrough
// and enters the start scene, running its actions.
func (m *Manager) StartPlaythrough(name, startSceneID string) domain.PlaythroughState {
	m.mu.Lock()
	m.resetAll()
	if prev := m.playthrough; prev != nil {
		m.logger.Info("playthrough discarded", "playthrough_id", prev.ID, "name", prev.Name)
	}
	m.playthrough = &domain.PlaythroughState{
		ID:             m.newID(),
		Name:           name,
		StartedAt:      m.now(),
		CurrentSceneID: startSceneID,
		Path:           []domain.PathState{},
	}
	m.enterScene(startSceneID, "")
	out := *m.playthrough.Clone()
	m.mu.Unlock()
	m.dispatch()
	return out
}

// EnterScene moves the active playthrough to sceneID, records the visit and
// the choice that led there, and runs the scene's actions. Without an
// active playthrough only the actions run. It returns the number of actions
// executed.
func (m *Manager) EnterScene(sceneID, choiceID string) int {
	m.mu.Lock()
	n := m.enterScene(sceneID, choiceID)
	m.mu.Unlock()
	m.dispatch()
	return n
}

func (m *Manager) enterScene(sceneID, choiceID string) int {
	p := m.playthrough
	if p != nil {
		p.CurrentSceneID = sceneID
		idx := -1
		for i := range p.Path {
			if p.Path[i].SceneID == sceneID {
				idx = i
				break
			}
		}
		if idx < 0 {
			p.Path = append(p.Path, domain.PathState{SceneID: sceneID, Choices: []string{}})
			idx = len(p.Path) - 1
		}
		ps := &p.Path[idx]
		ps.VisitCount++
		ps.LastVisit = m.now()
		if choiceID != "" {
			ps.Choices = append(ps.Choices, choiceID)
			p.TotalChoices++
		}
	}

	n := m.executeSceneActions(sceneID)

	event := domain.SceneEvent{SceneID: sceneID, ChoiceID: choiceID, ActionsRun: n}
	if p != nil {
		p.Values = m.resolved()
		event.PlaythroughID = p.ID
	}
	m.enqueue(notice{scene: &event})
	return n
}

// Playthrough returns a copy of the active playthrough.
func (m *Manager) Playthrough() (domain.PlaythroughState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playthrough == nil {
		return domain.PlaythroughState{}, false
	}
	return *m.playthrough.Clone(), true
}

// EndPlaythrough stops tracking and returns the final state. Live values
// are left as they are.
func (m *Manager) EndPlaythrough() (domain.PlaythroughState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.playthrough
	if p == nil {
		return domain.PlaythroughState{}, false
	}
	m.playthrough = nil
	return *p, true
}
