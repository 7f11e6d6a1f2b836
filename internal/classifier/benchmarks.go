package classifier

import (
	"fmt"
	"math"
)

// Benchmarks are the thresholds the rule chain and the health score are
// evaluated against. Rates are percentages.
type Benchmarks struct {
	MinVolume             int64   `yaml:"min_volume" json:"min_volume"`
	ScaleVolume           int64   `yaml:"scale_volume" json:"scale_volume"`
	MaxBounceRate         float64 `yaml:"max_bounce_rate" json:"max_bounce_rate"`
	CriticalBounceRate    float64 `yaml:"critical_bounce_rate" json:"critical_bounce_rate"`
	HealthyInboxThreshold float64 `yaml:"healthy_inbox_threshold" json:"healthy_inbox_threshold"`
	CriticalInboxHealth   float64 `yaml:"critical_inbox_health" json:"critical_inbox_health"`
	GoodReplyRate         float64 `yaml:"good_reply_rate" json:"good_reply_rate"`
	CriticalReplyRate     float64 `yaml:"critical_reply_rate" json:"critical_reply_rate"`
	SevereReplyRate       float64 `yaml:"severe_reply_rate" json:"severe_reply_rate"`
	TargetConversion      float64 `yaml:"target_conversion" json:"target_conversion"`
	MeetingRatioTarget    float64 `yaml:"meeting_ratio_target" json:"meeting_ratio_target"`
	LowMeetingRatio       float64 `yaml:"low_meeting_ratio" json:"low_meeting_ratio"`
	WarningUncontacted    int64   `yaml:"warning_uncontacted" json:"warning_uncontacted"`
	CriticalUncontacted   int64   `yaml:"critical_uncontacted" json:"critical_uncontacted"`
}

// DefaultBenchmarks returns the reference benchmark set.
func DefaultBenchmarks() Benchmarks {
	return Benchmarks{
		MinVolume:             1000,
		ScaleVolume:           5000,
		MaxBounceRate:         5,
		CriticalBounceRate:    10,
		HealthyInboxThreshold: 70,
		CriticalInboxHealth:   50,
		GoodReplyRate:         1.0,
		CriticalReplyRate:     0.5,
		SevereReplyRate:       0.3,
		TargetConversion:      15,
		MeetingRatioTarget:    40,
		LowMeetingRatio:       20,
		WarningUncontacted:    2000,
		CriticalUncontacted:   500,
	}
}

// Validate checks that thresholds are non-negative and paired thresholds
// are ordered.
func (b Benchmarks) Validate() error {
	if b.MinVolume < 0 || b.ScaleVolume < 0 || b.WarningUncontacted < 0 || b.CriticalUncontacted < 0 {
		return fmt.Errorf("benchmarks: volume and lead thresholds must not be negative")
	}
	for _, v := range []float64{
		b.MaxBounceRate, b.CriticalBounceRate, b.HealthyInboxThreshold, b.CriticalInboxHealth,
		b.GoodReplyRate, b.CriticalReplyRate, b.SevereReplyRate, b.TargetConversion,
		b.MeetingRatioTarget, b.LowMeetingRatio,
	} {
		if v < 0 {
			return fmt.Errorf("benchmarks: negative rate threshold %.2f", v)
		}
	}
	switch {
	case b.MinVolume > b.ScaleVolume:
		return fmt.Errorf("benchmarks: min_volume %d exceeds scale_volume %d", b.MinVolume, b.ScaleVolume)
	case b.MaxBounceRate > b.CriticalBounceRate:
		return fmt.Errorf("benchmarks: max_bounce_rate %.2f exceeds critical_bounce_rate %.2f", b.MaxBounceRate, b.CriticalBounceRate)
	case b.CriticalInboxHealth > b.HealthyInboxThreshold:
		return fmt.Errorf("benchmarks: critical_inbox_health %.2f exceeds healthy_inbox_threshold %.2f", b.CriticalInboxHealth, b.HealthyInboxThreshold)
	case b.SevereReplyRate > b.CriticalReplyRate:
		return fmt.Errorf("benchmarks: severe_reply_rate %.2f exceeds critical_reply_rate %.2f", b.SevereReplyRate, b.CriticalReplyRate)
	case b.CriticalReplyRate > b.GoodReplyRate:
		return fmt.Errorf("benchmarks: critical_reply_rate %.2f exceeds good_reply_rate %.2f", b.CriticalReplyRate, b.GoodReplyRate)
	case b.LowMeetingRatio > b.MeetingRatioTarget:
		return fmt.Errorf("benchmarks: low_meeting_ratio %.2f exceeds meeting_ratio_target %.2f", b.LowMeetingRatio, b.MeetingRatioTarget)
	case b.CriticalUncontacted > b.WarningUncontacted:
		return fmt.Errorf("benchmarks: critical_uncontacted %d exceeds warning_uncontacted %d", b.CriticalUncontacted, b.WarningUncontacted)
	}
	return nil
}

// Weights are the health score component weights. They must sum to 1.
type Weights struct {
	Reply      float64 `yaml:"reply" json:"reply"`
	Conversion float64 `yaml:"conversion" json:"conversion"`
	Bounce     float64 `yaml:"bounce" json:"bounce"`
	Inbox      float64 `yaml:"inbox" json:"inbox"`
	Meeting    float64 `yaml:"meeting" json:"meeting"`
}

// DefaultWeights returns the reference weighting.
func DefaultWeights() Weights {
	return Weights{Reply: 0.30, Conversion: 0.20, Bounce: 0.15, Inbox: 0.15, Meeting: 0.20}
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Reply + w.Conversion + w.Bounce + w.Inbox + w.Meeting
}

// IsZero reports whether no weight was configured.
func (w Weights) IsZero() bool { return w == Weights{} }

// Validate checks the weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Reply, w.Conversion, w.Bounce, w.Inbox, w.Meeting} {
		if v < 0 {
			return fmt.Errorf("health weights: negative weight %.3f", v)
		}
	}
	if math.Abs(w.Sum()-1) > 0.001 {
		return fmt.Errorf("health weights: sum to %.3f, want 1.0", w.Sum())
	}
	return nil
}
