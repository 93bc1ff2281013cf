package validate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openhealth/openhealth/internal/model"
)

func TestUserID(t *testing.T) {
	assert.NoError(t, UserID("alice"))
	assert.NoError(t, UserID("alice_2"))
	assert.NoError(t, UserID("a-b-c"))

	assert.Error(t, UserID(""))
	assert.Error(t, UserID("Alice"))
	assert.Error(t, UserID("has space"))
	assert.Error(t, UserID("x123456789x123456789x123456789x123456789x"))
}

func TestMetricKind(t *testing.T) {
	k, err := MetricKind("heart_rate")
	assert.NoError(t, err)
	assert.Equal(t, model.MetricHeartRate, k)

	_, err = MetricKind("steps")
	assert.Error(t, err)
}

func TestMetricValue(t *testing.T) {
	assert.NoError(t, MetricValue(72))
	assert.NoError(t, MetricValue(-1))
	assert.Error(t, MetricValue(math.NaN()))
	assert.Error(t, MetricValue(math.Inf(1)))
}

func TestSeverity(t *testing.T) {
	assert.NoError(t, Severity(1))
	assert.NoError(t, Severity(10))
	assert.Error(t, Severity(0))
	assert.Error(t, Severity(11))
}

func TestNonEmptyAndMaxLen(t *testing.T) {
	assert.NoError(t, NonEmpty("field", "v"))
	assert.Error(t, NonEmpty("field", ""))
	assert.NoError(t, MaxLen("field", "short", 10))
	assert.Error(t, MaxLen("field", "this is far too long", 10))
}
