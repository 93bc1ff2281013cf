package validate

import (
	"fmt"
	"math"
	"regexp"

	"github.com/openhealth/openhealth/internal/model"
)

// UserID must be lowercase letters, digits, underscore or hyphen, 1-40 chars.
var userIDRx = regexp.MustCompile(`^[a-z0-9_-]{1,40}$`)

func UserID(v string) error {
	if v == "" {
		return fmt.Errorf("userId is required")
	}
	if !userIDRx.MatchString(v) {
		return fmt.Errorf("userId must be 1-40 lowercase letters, digits, '_' or '-'")
	}
	return nil
}

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field, v string, limit int) error {
	if len(v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// MetricKind rejects kinds outside the supported set.
func MetricKind(v string) (model.MetricKind, error) {
	k := model.MetricKind(v)
	if !model.KnownMetricKind(k) {
		return "", fmt.Errorf("unknown metric kind %q", v)
	}
	return k, nil
}

// MetricValue rejects NaN and infinities; range sanity lives in the alert
// thresholds, not here.
func MetricValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("value must be a finite number")
	}
	return nil
}

// Severity checks the 1-10 symptom scale.
func Severity(v int) error {
	if v < 1 || v > 10 {
		return fmt.Errorf("severity must be between 1 and 10")
	}
	return nil
}
