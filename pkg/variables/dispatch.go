package variables

import (
	"github.com/aretw0/arbor/pkg/domain"
)

// maxCascade caps the variable changes delivered by one drain. A listener
// loop that keeps mutating state is cut off there.
const maxCascade = 10000

// notice is one queued delivery. Exactly one field is set.
type notice struct {
	change  *domain.VariableChange
	eval    *domain.EvaluationEvent
	scene   *domain.SceneEvent
	restore *domain.RestoreEvent
}

// enqueue records a delivery for the next drain. m.mu must be held.
func (m *Manager) enqueue(n notice) {
	m.queue = append(m.queue, n)
}

// dispatch drains the queue outside the lock, in FIFO order. A listener
// that mutates state only enqueues; its notifications are delivered by the
// outermost drain after every listener of the current change has run.
func (m *Manager) dispatch() {
	m.mu.Lock()
	if m.draining || len(m.queue) == 0 {
		m.mu.Unlock()
		return
	}
	m.draining = true

	delivered := 0
	for len(m.queue) > 0 {
		n := m.queue[0]
		m.queue[0] = notice{}
		m.queue = m.queue[1:]

		var listeners []subscription
		if n.change != nil {
			if delivered >= maxCascade {
				dropped := len(m.queue) + 1
				m.queue = nil
				m.logger.Error("change notification cascade exceeded limit; dropping remaining notifications",
					"limit", maxCascade, "dropped", dropped)
				break
			}
			delivered++
			listeners = append(listeners, m.subs[n.change.VariableID]...)
			listeners = append(listeners, m.anySubs...)
		}
		hooks := m.hooks
		m.mu.Unlock()

		m.deliver(n, hooks, listeners)

		m.mu.Lock()
	}
	m.queue = nil
	m.draining = false
	m.mu.Unlock()
}

func (m *Manager) deliver(n notice, hooks domain.Hooks, listeners []subscription) {
	switch {
	case n.change != nil:
		if hooks.OnChange != nil {
			m.guard("OnChange", func() { hooks.OnChange(*n.change) })
		}
		for _, sub := range listeners {
			change := *n.change
			change.OldValue = change.OldValue.Clone()
			change.NewValue = change.NewValue.Clone()
			m.guard("listener", func() { sub.fn(change) })
		}
	case n.eval != nil:
		if hooks.OnEvaluate != nil {
			m.guard("OnEvaluate", func() { hooks.OnEvaluate(*n.eval) })
		}
	case n.scene != nil:
		if hooks.OnSceneEnter != nil {
			m.guard("OnSceneEnter", func() { hooks.OnSceneEnter(*n.scene) })
		}
	case n.restore != nil:
		if hooks.OnRestore != nil {
			m.guard("OnRestore", func() { hooks.OnRestore(*n.restore) })
		}
	}
}

// guard keeps a panicking callback from wedging the drain.
func (m *Manager) guard(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("callback panicked", "callback", name, "panic", r)
		}
	}()
	fn()
}
