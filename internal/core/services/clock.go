package services

import (
	"time"

	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
)

// Clock supplies the current instant. Calendar days are taken in UTC.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

func (c Clock) Today() string {
	return domain.DateKey(c())
}

func (c Clock) WeekStart() string {
	return domain.DateKey(domain.WeekStart(c().UTC()))
}

// MetricsRecorder is implemented by the prometheus collector.
type MetricsRecorder interface {
	RecordCompletion(xpGained int, bonus bool)
	RecordAlreadyCompleted()
	RecordCompletionConflict()
	RecordXPGrant(source string, amount int)
	RecordDailyNudge(fresh bool)
}

type noopMetrics struct{}

func (noopMetrics) RecordCompletion(int, bool) {}
func (noopMetrics) RecordAlreadyCompleted() {}
func (noopMetrics) RecordCompletionConflict() {}
func (noopMetrics) RecordXPGrant(string, int) {}
func (noopMetrics) RecordDailyNudge(bool) {}

func metricsOrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
