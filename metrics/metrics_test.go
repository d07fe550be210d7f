package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jamulus-net/jamdir/metrics"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(metrics.AckSentCount)
	metrics.AckSentCount.Inc()
	after := testutil.ToFloat64(metrics.AckSentCount)
	if after != before+1 {
		t.Errorf("AckSentCount = %v, want %v", after, before+1)
	}

	metrics.DecodeErrorCount.WithLabelValues("invalid crc").Inc()
	if got := testutil.ToFloat64(metrics.DecodeErrorCount.WithLabelValues("invalid crc")); got < 1 {
		t.Errorf("DecodeErrorCount{invalid crc} = %v, want >= 1", got)
	}

	metrics.ProxyEntries.Set(3)
	if got := testutil.ToFloat64(metrics.ProxyEntries); got != 3 {
		t.Errorf("ProxyEntries = %v, want 3", got)
	}
}
