package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_CountsByResult(t *testing.T) {
	var p = NewPrometheus("pureservice_sync")

	p.Count("pureservice_company_created", "Companies created", true)
	p.Count("pureservice_company_created", "Companies created", true)
	p.Count("pureservice_company_created", "Companies created", false)

	var vec = p.vectors["pureservice_sync_pureservice_company_created_total"]
	require.NotNil(t, vec)
	assert.Equal(t, 2.0, testutil.ToFloat64(vec.WithLabelValues(success)))
	assert.Equal(t, 1.0, testutil.ToFloat64(vec.WithLabelValues(failed)))
}

func TestPrometheus_HandlerExposesCounters(t *testing.T) {
	var p = NewPrometheus("pureservice_sync")
	p.Count("sync_run", "Synchronization runs", true)

	var rec = httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	var body, err = io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `pureservice_sync_sync_run_total{result="success"} 1`)
}
