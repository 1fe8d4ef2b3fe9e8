package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsInitialization(t *testing.T) {
	assert.NotNil(t, LogEntriesTotal)
	assert.NotNil(t, ProjectionsTotal)
	assert.NotNil(t, SimilarityDurationSeconds)
	assert.NotNil(t, SimilarityErrorsTotal)
	assert.NotNil(t, SweepTasksTotal)
	assert.NotNil(t, CMCRank1Rate)
	assert.NotNil(t, ReportRowsWritten)
	assert.NotNil(t, BufferPoolOperations)
}

func TestRank1GaugeIsPerDimension(t *testing.T) {
	CMCRank1Rate.WithLabelValues("fa_fb", "10").Set(81.5)
	CMCRank1Rate.WithLabelValues("fa_fb", "20").Set(88)

	assert.Equal(t, 81.5, testutil.ToFloat64(CMCRank1Rate.WithLabelValues("fa_fb", "10")))
	assert.Equal(t, 88.0, testutil.ToFloat64(CMCRank1Rate.WithLabelValues("fa_fb", "20")))
}
