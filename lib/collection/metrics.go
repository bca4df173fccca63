package collection

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

// listMetrics counts the change records a list emits, per action
type listMetrics struct {
	changes [ActionReset + 1]*metrics.Counter
}

func newListMetrics(set *metrics.Set, name string, length func() int) *listMetrics {
	if set == nil {
		return nil
	}
	m := &listMetrics{}
	for a := ActionAdd; a <= ActionReset; a++ {
		m.changes[a] = set.GetOrCreateCounter(fmt.Sprintf(`dobs_list_changes_total{list=%q,action=%q}`, name, a))
	}
	set.GetOrCreateGauge(fmt.Sprintf(`dobs_list_len{list=%q}`, name), func() float64 {
		return float64(length())
	})
	return m
}

func (m *listMetrics) observe(action Action) {
	if m == nil || int(action) >= len(m.changes) {
		return
	}
	m.changes[action].Inc()
}
