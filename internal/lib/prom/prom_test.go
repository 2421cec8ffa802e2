package prom

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMealsRecorded(t *testing.T) {
	before := testutil.ToFloat64(MealsRecorded.WithLabelValues("true"))

	MealsRecorded.WithLabelValues("true").Inc()
	MealsRecorded.WithLabelValues("true").Inc()

	assert.Equal(t, before+2, testutil.ToFloat64(MealsRecorded.WithLabelValues("true")))
}

func TestCounter_UsesNamespace(t *testing.T) {
	c := Counter("prom_test_counter_total", "test counter", "label")
	c.WithLabelValues("x").Inc()

	assert.Equal(t, 1, testutil.CollectAndCount(c, "daily_diet_prom_test_counter_total"))
}
