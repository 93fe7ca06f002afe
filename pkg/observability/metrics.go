package observability

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/layout"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the arbor collectors.
type Metrics struct {
	VariableChanges      *prometheus.CounterVec
	ConditionEvaluations *prometheus.CounterVec
	SceneEntries         *prometheus.CounterVec
	SceneActions         prometheus.Counter
	SnapshotRestores     prometheus.Counter
	LayoutIterations     prometheus.Histogram
	LayoutRuns           *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		VariableChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_variable_changes_total",
				Help: "Committed variable changes by source.",
			},
			[]string{"source"},
		),
		ConditionEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_condition_evaluations_total",
				Help: "Condition evaluations by outcome (true, false or error).",
			},
			[]string{"outcome"},
		),
		SceneEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_scene_entries_total",
				Help: "Scene entries during playthroughs.",
			},
			[]string{"scene_id"},
		),
		SceneActions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbor_scene_actions_total",
			Help: "Scene actions executed on scene entry.",
		}),
		SnapshotRestores: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbor_snapshot_restores_total",
			Help: "Snapshots restored.",
		}),
		LayoutIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbor_layout_iterations",
			Help:    "Iterations per layout run.",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 5000},
		}),
		LayoutRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_layout_runs_total",
				Help: "Layout runs by whether they converged.",
			},
			[]string{"converged"},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.VariableChanges, m.ConditionEvaluations, m.SceneEntries,
		m.SceneActions, m.SnapshotRestores, m.LayoutIterations, m.LayoutRuns,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns callbacks that record manager activity.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnChange: func(c domain.VariableChange) {
			m.VariableChanges.WithLabelValues(string(c.Source)).Inc()
		},
		OnEvaluate: func(e domain.EvaluationEvent) {
			outcome := "false"
			switch {
			case e.Err != nil:
				outcome = "error"
			case e.Result:
				outcome = "true"
			}
			m.ConditionEvaluations.WithLabelValues(outcome).Inc()
		},
		OnSceneEnter: func(e domain.SceneEvent) {
			m.SceneEntries.WithLabelValues(e.SceneID).Inc()
			m.SceneActions.Add(float64(e.ActionsRun))
		},
		OnRestore: func(domain.RestoreEvent) {
			m.SnapshotRestores.Inc()
		},
	}
}

// ObserveLayout records the outcome of a layout run.
func (m *Metrics) ObserveLayout(res layout.Result) {
	m.LayoutIterations.Observe(float64(res.Iterations))
	converged := "false"
	if res.Converged {
		converged = "true"
	}
	m.LayoutRuns.WithLabelValues(converged).Inc()
}
