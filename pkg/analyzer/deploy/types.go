package deploy

import (
	"time"

	"github.com/panbanda/gitpulse/pkg/analyzer"
)

// Type is the kind of deployment event.
type Type string

// Deployment types.
const (
	TypeProductionRelease Type = "production_release"
	TypeMergeDeployment   Type = "merge_deployment"
)

// Method is how a deployment was detected.
type Method string

// Detection methods.
const (
	MethodTag   Method = "tag"
	MethodMerge Method = "merge"
)

// FrequencyCategory bands deployments per week.
type FrequencyCategory string

// Frequency categories.
const (
	FrequencyLow      FrequencyCategory = "low"
	FrequencyModerate FrequencyCategory = "moderate"
	FrequencyHigh     FrequencyCategory = "high"
	FrequencyVeryHigh FrequencyCategory = "very_high"
)

// Predictability bands the consistency score.
type Predictability string

// Predictability bands.
const (
	VeryPredictable     Predictability = "very_predictable"
	Predictable         Predictability = "predictable"
	SomewhatPredictable Predictability = "somewhat_predictable"
	Unpredictable       Predictability = "unpredictable"
	InsufficientData    Predictability = "insufficient_data"
)

// BatchCategory bands commits per deployment.
type BatchCategory string

// Batch size bands.
const (
	BatchNone      BatchCategory = "none"
	BatchSmall     BatchCategory = "small"
	BatchMedium    BatchCategory = "medium"
	BatchLarge     BatchCategory = "large"
	BatchVeryLarge BatchCategory = "very_large"
)

// Velocity bands deployments per week.
type Velocity string

// Velocity bands.
const (
	VelocityElite  Velocity = "elite"
	VelocityHigh   Velocity = "high"
	VelocityMedium Velocity = "medium"
	VelocityLow    Velocity = "low"
)

// Deployment is one recognized release event.
type Deployment struct {
	Type       Type      `json:"type"`
	Identifier string    `json:"identifier"`
	Timestamp  time.Time `json:"timestamp"`
	Hash       string    `json:"hash,omitempty"`
	Method     Method    `json:"method"`
	Message    string    `json:"message,omitempty"`
}

// Day returns the UTC calendar day of the deployment.
func (d Deployment) Day() string {
	return d.Timestamp.UTC().Format("2006-01-02")
}

// Frequency describes how often deployments happen.
type Frequency struct {
	PerWeek        float64           `json:"deployments_per_week"`
	AvgDaysBetween float64           `json:"avg_days_between_deployments"`
	DaysSinceLast  float64           `json:"days_since_last_deployment"`
	Category       FrequencyCategory `json:"category"`
}

// Stability describes how regular the intervals between deployments are.
type Stability struct {
	IntervalCV       float64        `json:"interval_cv"`
	ConsistencyScore float64        `json:"consistency_score"`
	Predictability   Predictability `json:"predictability"`
	MinIntervalDays  float64        `json:"min_interval_days"`
	MaxIntervalDays  float64        `json:"max_interval_days"`
}

// Quality relates deployments to the work they ship.
type Quality struct {
	CommitsInWindow int           `json:"commits_in_window"`
	BatchSize       float64       `json:"avg_batch_size"`
	BatchCategory   BatchCategory `json:"batch_category"`
	Velocity        Velocity      `json:"velocity"`
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalDeployments    int          `json:"total_deployments"`
	ByType              map[Type]int `json:"by_type"`
	TagCandidates       int          `json:"tag_candidates"`
	MergeCandidates     int          `json:"merge_candidates"`
	WeekdayDistribution [7]int       `json:"weekday_distribution"` // Sunday first
}

// Analysis represents the full deployment analysis result.
type Analysis struct {
	Window      analyzer.Window `json:"window"`
	Deployments []Deployment    `json:"deployments"`
	Frequency   Frequency       `json:"frequency"`
	Stability   Stability       `json:"stability"`
	Quality     Quality         `json:"quality"`
	Summary     Summary         `json:"summary"`
}

// FrequencyCategoryFor bands deployments per week.
func FrequencyCategoryFor(perWeek float64) FrequencyCategory {
	switch {
	case perWeek < 0.14:
		return FrequencyLow
	case perWeek < 0.5:
		return FrequencyModerate
	case perWeek < 2:
		return FrequencyHigh
	default:
		return FrequencyVeryHigh
	}
}

// PredictabilityFor bands a consistency score.
func PredictabilityFor(consistency float64) Predictability {
	switch {
	case consistency >= 0.8:
		return VeryPredictable
	case consistency >= 0.6:
		return Predictable
	case consistency >= 0.4:
		return SomewhatPredictable
	default:
		return Unpredictable
	}
}

// BatchCategoryFor bands commits per deployment.
func BatchCategoryFor(batch float64) BatchCategory {
	switch {
	case batch <= 5:
		return BatchSmall
	case batch <= 20:
		return BatchMedium
	case batch <= 50:
		return BatchLarge
	default:
		return BatchVeryLarge
	}
}

// VelocityFor bands deployments per week.
func VelocityFor(perWeek float64) Velocity {
	switch {
	case perWeek >= 7:
		return VelocityElite
	case perWeek >= 1:
		return VelocityHigh
	case perWeek >= 0.25:
		return VelocityMedium
	default:
		return VelocityLow
	}
}
