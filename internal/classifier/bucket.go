package classifier

import (
	"encoding/json"
	"fmt"
)

// Bucket is the mutually exclusive issue category assigned to a client.
type Bucket int

const (
	TooEarly Bucket = iota
	DeliverabilityIssue
	CopyIssue
	SubsequenceIssue
	VolumeIssue
	TAMExhausted
	NotViable
	PerformingWell

	bucketCount
)

// BucketInfo is the fixed display metadata of a bucket. Rank orders buckets
// by urgency, 1 being the most urgent.
type BucketInfo struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Icon     string `json:"icon"`
	Rank     int    `json:"rank"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

var bucketInfo = [bucketCount]BucketInfo{
	TooEarly:            {Code: "TOO_EARLY", Label: "Too Early", Icon: "⏳", Rank: 7, Category: "monitoring", Action: "Keep ramping send volume"},
	DeliverabilityIssue: {Code: "DELIVERABILITY_ISSUE", Label: "Deliverability Issue", Icon: "🚨", Rank: 1, Category: "deliverability", Action: "Fix sending infrastructure"},
	CopyIssue:           {Code: "COPY_ISSUE", Label: "Copy Issue", Icon: "✍️", Rank: 2, Category: "copy", Action: "Rewrite campaign copy"},
	SubsequenceIssue:    {Code: "SUBSEQUENCE_ISSUE", Label: "Subsequence Issue", Icon: "🔁", Rank: 4, Category: "funnel", Action: "Rework follow-up subsequence"},
	VolumeIssue:         {Code: "VOLUME_ISSUE", Label: "Volume Issue", Icon: "📈", Rank: 5, Category: "volume", Action: "Increase daily send volume"},
	TAMExhausted:        {Code: "TAM_EXHAUSTED", Label: "TAM Exhausted", Icon: "📉", Rank: 3, Category: "list", Action: "Source new leads"},
	NotViable:           {Code: "NOT_VIABLE", Label: "Not Viable", Icon: "⛔", Rank: 6, Category: "account", Action: "Review account viability"},
	PerformingWell:      {Code: "PERFORMING_WELL", Label: "Performing Well", Icon: "✅", Rank: 8, Category: "growth", Action: "Review scaling opportunities"},
}

// AllBuckets returns every bucket in declaration order.
func AllBuckets() []Bucket {
	out := make([]Bucket, 0, bucketCount)
	for b := Bucket(0); b < bucketCount; b++ {
		out = append(out, b)
	}
	return out
}

// Valid reports whether b is one of the declared buckets.
func (b Bucket) Valid() bool { return b >= 0 && b < bucketCount }

// Info returns the bucket's display metadata.
func (b Bucket) Info() BucketInfo {
	if !b.Valid() {
		return BucketInfo{Code: "UNKNOWN", Label: "Unknown", Icon: "?", Rank: int(bucketCount) + 1}
	}
	return bucketInfo[b]
}

func (b Bucket) String() string { return b.Info().Code }

// Label returns the human readable bucket name.
func (b Bucket) Label() string { return b.Info().Label }

// Icon returns the bucket's display icon.
func (b Bucket) Icon() string { return b.Info().Icon }

// Rank returns the urgency rank (1 = most urgent).
func (b Bucket) Rank() int { return b.Info().Rank }

// Category returns the task category the bucket maps to.
func (b Bucket) Category() string { return b.Info().Category }

// Action returns the headline remediation for the bucket.
func (b Bucket) Action() string { return b.Info().Action }

// ParseBucket maps a bucket code such as "COPY_ISSUE" back to its Bucket.
func ParseBucket(code string) (Bucket, error) {
	for b := Bucket(0); b < bucketCount; b++ {
		if bucketInfo[b].Code == code {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown bucket %q", code)
}

// MarshalJSON encodes the bucket as its code.
func (b Bucket) MarshalJSON() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("invalid bucket %d", int(b))
	}
	return json.Marshal(b.String())
}

// UnmarshalJSON decodes a bucket code.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	parsed, err := ParseBucket(code)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
