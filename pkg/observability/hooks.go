package observability

import (
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
)

// LoggingHooks logs every change and scene entry at debug level, and
// evaluation faults at warn.
func LoggingHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnChange: func(c domain.VariableChange) {
			logger.Debug("variable_change",
				"variable_id", c.VariableID,
				"old", c.OldValue.String(),
				"new", c.NewValue.String(),
				"source", c.Source,
				"scene_id", c.SceneID,
			)
		},
		OnEvaluate: func(e domain.EvaluationEvent) {
			if e.Err != nil {
				logger.Warn("condition_fault", "err", e.Err)
			}
		},
		OnSceneEnter: func(e domain.SceneEvent) {
			logger.Debug("scene_enter",
				"playthrough_id", e.PlaythroughID,
				"scene_id", e.SceneID,
				"choice_id", e.ChoiceID,
				"actions_run", e.ActionsRun,
			)
		},
		OnRestore: func(e domain.RestoreEvent) {
			var removed []string
			if e.Diff != nil {
				removed = e.Diff.Removed
			}
			logger.Debug("snapshot_restore",
				"snapshot_id", e.SnapshotID,
				"label", e.Label,
				"changed", e.Diff.Keys(),
				"removed", removed,
			)
		},
	}
}

// Combine fans each callback out to every non-nil member, in order.
func Combine(hooks ...domain.Hooks) domain.Hooks {
	var out domain.Hooks
	for _, h := range hooks {
		if fn := h.OnChange; fn != nil {
			prev := out.OnChange
			out.OnChange = func(c domain.VariableChange) {
				if prev != nil {
					prev(c)
				}
				fn(c)
			}
		}
		if fn := h.OnEvaluate; fn != nil {
			prev := out.OnEvaluate
			out.OnEvaluate = func(e domain.EvaluationEvent) {
				if prev != nil {
					prev(e)
				}
				fn(e)
			}
		}
		if fn := h.OnSceneEnter; fn != nil {
			prev := out.OnSceneEnter
			out.OnSceneEnter = func(e domain.SceneEvent) {
				if prev != nil {
					prev(e)
				}
				fn(e)
			}
		}
		if fn := h.OnRestore; fn != nil {
			prev := out.OnRestore
			out.OnRestore = func(e domain.RestoreEvent) {
				if prev != nil {
					prev(e)
				}
				fn(e)
			}
		}
	}
	return out
}
