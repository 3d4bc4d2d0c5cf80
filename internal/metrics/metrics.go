package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vote_tracker"

const (
	SourceBackfill  = "backfill"
	SourceLive      = "live"
	SourceStore     = "store"
	SourceSynthetic = "synthetic"
)

// Metrics is safe to use through a nil pointer, which records nothing.
type Metrics struct {
	votesObserved      *prometheus.CounterVec
	votesDuplicate     prometheus.Counter
	votesForeign       prometheus.Counter
	txTransitions      *prometheus.CounterVec
	subscriptionErrors prometheus.Counter
	ledgerRecords      prometheus.Gauge
	feedStale          prometheus.Gauge
}

func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		votesObserved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_observed_total",
			Help:      "Vote records added to the ledger, by source.",
		}, []string{"source"}),
		votesDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_duplicate_total",
			Help:      "Vote events dropped because their log was already recorded.",
		}),
		votesForeign: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_foreign_poll_total",
			Help:      "Vote events ignored because they target another poll.",
		}),
		txTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_transitions_total",
			Help:      "Vote transaction state transitions, by target state.",
		}, []string{"state"}),
		subscriptionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_errors_total",
			Help:      "Live vote feed failures.",
		}),
		ledgerRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_records",
			Help:      "Vote records currently held by the ledger.",
		}),
		feedStale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_stale",
			Help:      "1 while the live vote feed is down.",
		}),
	}

	var errs []error
	for _, c := range []prometheus.Collector{
		m.votesObserved,
		m.votesDuplicate,
		m.votesForeign,
		m.txTransitions,
		m.subscriptionErrors,
		m.ledgerRecords,
		m.feedStale,
	} {
		errs = append(errs, reg.Register(c))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) VoteObserved(source string) {
	if m == nil {
		return
	}
	m.votesObserved.WithLabelValues(source).Inc()
}

func (m *Metrics) VoteDuplicate() {
	if m == nil {
		return
	}
	m.votesDuplicate.Inc()
}

func (m *Metrics) VoteForeign() {
	if m == nil {
		return
	}
	m.votesForeign.Inc()
}

func (m *Metrics) TxTransition(state string) {
	if m == nil {
		return
	}
	m.txTransitions.WithLabelValues(state).Inc()
}

func (m *Metrics) SubscriptionError() {
	if m == nil {
		return
	}
	m.subscriptionErrors.Inc()
}

func (m *Metrics) LedgerSize(n int) {
	if m == nil {
		return
	}
	m.ledgerRecords.Set(float64(n))
}

func (m *Metrics) FeedStale(stale bool) {
	if m == nil {
		return
	}
	if stale {
		m.feedStale.Set(1)
		return
	}
	m.feedStale.Set(0)
}
