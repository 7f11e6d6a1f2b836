package classifier

import (
	"encoding/json"
	"fmt"
)

// Severity is the urgency of a classification. Values are ordered, so
// comparisons like s >= High are meaningful.
type Severity int

const (
	Low Severity = iota
	Medium
	High
	Critical
)

var severityNames = [...]string{"low", "medium", "high", "critical"}

// Valid reports whether s is a declared severity.
func (s Severity) Valid() bool { return s >= Low && s <= Critical }

func (s Severity) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return severityNames[s]
}

// Urgent reports whether the severity warrants same-day action.
func (s Severity) Urgent() bool { return s >= High }

// Cap returns the lower of s and ceiling.
func (s Severity) Cap(ceiling Severity) Severity {
	if s > ceiling {
		return ceiling
	}
	return s
}

// ParseSeverity maps "low".."critical" to a Severity.
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if n == name {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

// MarshalJSON encodes the severity as its lowercase name.
func (s Severity) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a lowercase severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
