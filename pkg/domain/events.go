package domain

// EvaluationEvent describes one condition evaluation performed on behalf of
// a manager.
type EvaluationEvent struct {
	Condition Condition
	Result    bool
	Err       error
}

// SceneEvent describes a scene entry during a playthrough.
type SceneEvent struct {
	PlaythroughID string
	SceneID       string
	ChoiceID      string
	ActionsRun    int
}

// RestoreEvent describes a snapshot restore. Diff holds the explicit values
// that changed, and is nil when the snapshot matched the current state.
type RestoreEvent struct {
	SnapshotID string
	Label      string
	Diff       *ValuesDiff
}

// Hooks are optional observability callbacks. Nil members are skipped.
// They run on the caller's goroutine before the triggering call returns.
type Hooks struct {
	OnChange     func(VariableChange)
	OnEvaluate   func(EvaluationEvent)
	OnSceneEnter func(SceneEvent)
	OnRestore    func(RestoreEvent)
}
