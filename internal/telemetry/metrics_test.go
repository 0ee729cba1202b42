package telemetry

import (
	"testing"
	"time"
)

func TestCounters(t *testing.T) {
	m := NewMetricsCollector()

	m.IncrementCounter(MetricPagesCrawled, 1)
	m.IncrementCounter(MetricPagesCrawled, 4)

	if got := m.GetCounter(MetricPagesCrawled); got != 5 {
		t.Errorf("expected counter 5, got %d", got)
	}
	if got := m.GetCounter(MetricPagesSkipped); got != 0 {
		t.Errorf("expected unset counter 0, got %d", got)
	}
}

func TestGauges(t *testing.T) {
	m := NewMetricsCollector()

	m.SetGauge("crawler.queue_depth", 12)
	m.SetGauge("crawler.queue_depth", 7)

	if got := m.GetGauge("crawler.queue_depth"); got != 7 {
		t.Errorf("expected gauge 7, got %f", got)
	}
}

func TestTimerAverageAndP95(t *testing.T) {
	m := NewMetricsCollector()

	for i := 1; i <= 10; i++ {
		m.RecordTimer(MetricQueryTime, time.Duration(i)*time.Millisecond)
	}

	avg := m.GetTimerAverage(MetricQueryTime)
	if avg != 5500*time.Microsecond {
		t.Errorf("expected average 5.5ms, got %v", avg)
	}

	p95 := m.GetTimerP95(MetricQueryTime)
	if p95 < 9*time.Millisecond {
		t.Errorf("expected p95 near the top of the range, got %v", p95)
	}
}

func TestTimerBoundedHistory(t *testing.T) {
	m := NewMetricsCollector()

	for i := 0; i < 250; i++ {
		m.RecordTimer(MetricProviderTime, time.Millisecond)
	}

	m.mu.RLock()
	n := len(m.timers[MetricProviderTime])
	m.mu.RUnlock()
	if n > 100 {
		t.Errorf("expected timer history capped at 100, got %d", n)
	}
}

func TestTimestamps(t *testing.T) {
	m := NewMetricsCollector()

	if since := m.GetTimeSince(MetricLastCrawl); since != 0 {
		t.Errorf("expected zero for unset timestamp, got %v", since)
	}

	m.RecordTimestamp(MetricLastCrawl)
	if since := m.GetTimeSince(MetricLastCrawl); since < 0 || since > time.Second {
		t.Errorf("expected small elapsed time, got %v", since)
	}
}
