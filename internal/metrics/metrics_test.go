package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()

	mfs, err := Registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			match := true
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					match = false
					break
				}
			}
			if match {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestObserveChunkRecordsSamples(t *testing.T) {
	before := counterValue(t, "orbitcdc_chunk_total", map[string]string{"outcome": "boundary"})

	start := time.Now()
	time.Sleep(time.Millisecond)
	ObserveChunk("boundary", 65536, start)

	after := counterValue(t, "orbitcdc_chunk_total", map[string]string{"outcome": "boundary"})
	if after != before+1 {
		t.Fatalf("expected chunk_total{boundary} to increment by 1, got %v -> %v", before, after)
	}

	mfs, err := Registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range mfs {
		if mf.GetName() != "orbitcdc_chunk_length_bytes" {
			continue
		}
		found = true
		if got := mf.Metric[0].GetHistogram().GetSampleCount(); got == 0 {
			t.Fatalf("expected histogram sample count > 0, got %d", got)
		}
	}
	if !found {
		t.Fatal("orbitcdc_chunk_length_bytes not found")
	}
}

func TestObserveStreamErrorIncrementsCounter(t *testing.T) {
	before := counterValue(t, "orbitcdc_chunk_stream_errors_total", nil)
	ObserveStreamError()
	after := counterValue(t, "orbitcdc_chunk_stream_errors_total", nil)

	if after != before+1 {
		t.Fatalf("expected chunk_stream_errors_total to increment by 1, got %v -> %v", before, after)
	}
}

func TestMetricsEndpointExposesCoreMetrics(t *testing.T) {
	ObserveChunk("forced", 262144, time.Now())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true}).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status code: %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "orbitcdc_chunk_length_bytes_bucket") {
		t.Fatalf("expected chunk_length_bytes histogram buckets, body: %s", body)
	}
	if !strings.Contains(body, "orbitcdc_up") {
		t.Fatalf("expected up gauge, body: %s", body)
	}
}
