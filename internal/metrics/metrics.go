package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// 1) Review flow
	ReviewItemsServedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "review_items_served_total",
		Help: "Review questions delivered, by selection tier.",
	}, []string{"tier"})

	ReviewAnswersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "review_answers_total",
		Help: "Review answers applied, by correctness.",
	}, []string{"correct"})

	// 2) Duel lifecycle
	DuelStartsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "duel_starts_total",
		Help: "Duel start requests, by result (created, joined, rejected, no_questions).",
	}, []string{"result"})

	DuelJoinConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duel_join_conflicts_total",
		Help: "Join attempts that lost the compare-and-set race.",
	})

	DuelFinalizedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "duel_finalized_total",
		Help: "Matches moved to completed, by result (win, draw).",
	}, []string{"result"})

	DuelSweptTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "duel_swept_total",
		Help: "Matches handled by the cleanup sweep, by action (expired, deleted).",
	}, []string{"action"})

	// 3) Question generation
	GenerationRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_requests_total",
		Help: "Question generation requests, by result (ok, error, timeout).",
	}, []string{"result"})

	QuestionsGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "questions_generated_total",
		Help: "Valid questions appended to the catalog.",
	})

	GenerationDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "generation_duration_seconds",
		Help:    "Latency of question generation requests.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45},
	})

	// 4) Rewards
	XPAwardedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xp_awarded_total",
		Help: "XP credited through the ledger, by activity type.",
	}, []string{"activity"})

	// 5) Store
	BatchDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "db_batch_duration_seconds",
		Help:    "Duration of atomic write batches.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.25, 0.5},
	})

	BatchConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "db_batch_conflicts_total",
		Help: "Batches rolled back because a guarded statement affected no rows.",
	})
)

// MustRegister registers every collector on reg
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		ReviewItemsServedTotal,
		ReviewAnswersTotal,
		DuelStartsTotal,
		DuelJoinConflictsTotal,
		DuelFinalizedTotal,
		DuelSweptTotal,
		GenerationRequestsTotal,
		QuestionsGeneratedTotal,
		GenerationDurationSeconds,
		XPAwardedTotal,
		BatchDurationSeconds,
		BatchConflictsTotal,
	)
}
