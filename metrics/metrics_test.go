package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func Test_Metrics_ObserveItem(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveItem("formatter", nil, time.Millisecond)
	m.ObserveItem("formatter", nil, time.Millisecond)
	m.ObserveItem("formatter", errors.New("boom"), time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.itemsProcessed.WithLabelValues("formatter", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemsProcessed.WithLabelValues("formatter", "failure")))
}

func Test_Metrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveItem("x", nil, 0)
		m.WorkerRestarted("x")
		m.BatchSubmitted("x")
		m.FileIngested("indexed")
		m.SetRegistrySize("p", 3)
	})
}

func Test_Metrics_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.FileIngested("indexed")
	m.SetRegistrySize("demo", 4)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `coderegistry_ingest_files_total{outcome="indexed"} 1`), body)
	assert.True(t, strings.Contains(body, `coderegistry_registry_files{project="demo"} 4`), body)
}
