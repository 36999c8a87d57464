package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RecordCall("AEPCore", "setLogLevel", "OK", time.Millisecond)
	m.RecordCall("AEPCore", "setLogLevel", "OK", time.Millisecond)
	m.RecordCall("AEPCore", "dispatchEvent", "InvalidArgument", time.Millisecond)
	m.RecordDegraded(ReasonEnumDefault, 1)
	m.RecordDegraded(ReasonEntryDropped, 3)
	m.RecordDegraded(ReasonEntryDropped, 0)
	m.RecordJournal("db", nil)
	m.RecordJournal("file", errors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues("AEPCore", "setLogLevel", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("AEPCore", "dispatchEvent", "InvalidArgument")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.degraded.WithLabelValues(ReasonEntryDropped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.journal.WithLabelValues("file", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))

	_, err = New(reg)
	assert.Error(t, err, "duplicate registration")
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCall("a", "b", "OK", time.Second)
		m.RecordDegraded(ReasonEnumDefault, 1)
		m.RecordJournal("db", nil)
	})
}
