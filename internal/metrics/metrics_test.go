package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(ExtractorRunsTotal.WithLabelValues("metadata", "success"))
	RecordExtractorRun("metadata", "success")
	assert.Equal(t, before+1, testutil.ToFloat64(ExtractorRunsTotal.WithLabelValues("metadata", "success")))

	before = testutil.ToFloat64(CertificateRetriesTotal.WithLabelValues("download"))
	RecordCertificateRetry("download")
	assert.Equal(t, before+1, testutil.ToFloat64(CertificateRetriesTotal.WithLabelValues("download")))

	before = testutil.ToFloat64(JobsTotal.WithLabelValues("failed"))
	RecordJob("failed", 1.5)
	assert.Equal(t, before+1, testutil.ToFloat64(JobsTotal.WithLabelValues("failed")))

	before = testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/healthz", "200"))
	RecordRequest("GET", "/healthz", "200", 0.01)
	assert.Equal(t, before+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/healthz", "200")))
}
