package pipeline

import "math"

// Optional payload capabilities the pattern analyzer understands. Payloads
// that implement neither are counted as unclassified and never cause an
// analysis failure.
type (
	// Measurable exposes a single magnitude for statistical analysis.
	Measurable interface {
		Measure() float64
	}

	// Fingerprinter exposes a stable signature used for duplicate
	// detection across payloads.
	Fingerprinter interface {
		Fingerprint() string
	}
)

// Pattern flags reported by Analyze.
const (
	FlagHighValueCluster     = "high-value-cluster"
	FlagDuplicateFingerprint = "duplicate-payload-signature"
)

// Summary is the read-only output of the pattern analysis stage.
type Summary struct {
	TotalItems   int
	Measured     int
	Unclassified int

	Mean   float64
	StdDev float64

	// OutlierIDs lists items whose measure deviates from the mean by more
	// than the configured z-score threshold.
	OutlierIDs []string

	// Duplicates maps each fingerprint seen more than once to the ids
	// that share it.
	Duplicates map[string][]string

	Flags []string
}

// HasFlag reports whether the summary carries the named pattern flag.
func (s Summary) HasFlag(name string) bool {
	for _, f := range s.Flags {
		if f == name {
			return true
		}
	}
	return false
}

// Analyze scans the items once and produces aggregate statistics and
// pattern flags used to tune processing. It never mutates its input and
// returns a neutral summary for empty input. zThreshold <= 0 falls back
// to DefaultOutlierZScore.
func Analyze(items []WorkItem, zThreshold float64) Summary {
	if zThreshold <= 0 {
		zThreshold = DefaultOutlierZScore
	}

	summary := Summary{TotalItems: len(items)}
	if len(items) == 0 {
		return summary
	}

	type measured struct {
		id    string
		value float64
	}

	var (
		values []measured
		sum    float64
		prints = make(map[string][]string)
	)

	for _, item := range items {
		classified := false
		if m, ok := item.Payload.(Measurable); ok {
			v := m.Measure()
			values = append(values, measured{id: item.ID, value: v})
			sum += v
			classified = true
		}
		if f, ok := item.Payload.(Fingerprinter); ok {
			// An empty fingerprint means "no signature", not a shared one.
			if key := f.Fingerprint(); key != "" {
				prints[key] = append(prints[key], item.ID)
			}
			classified = true
		}
		if !classified {
			summary.Unclassified++
		}
	}

	summary.Measured = len(values)

	if len(values) > 0 {
		summary.Mean = sum / float64(len(values))

		var sq float64
		for _, m := range values {
			d := m.value - summary.Mean
			sq += d * d
		}
		summary.StdDev = math.Sqrt(sq / float64(len(values)))

		if summary.StdDev > 0 {
			var highside int
			for _, m := range values {
				z := (m.value - summary.Mean) / summary.StdDev
				if math.Abs(z) > zThreshold {
					summary.OutlierIDs = append(summary.OutlierIDs, m.id)
					if z > 0 {
						highside++
					}
				}
			}
			if highside >= 2 {
				summary.Flags = append(summary.Flags, FlagHighValueCluster)
			}
		}
	}

	for key, ids := range prints {
		if len(ids) > 1 {
			if summary.Duplicates == nil {
				summary.Duplicates = make(map[string][]string)
			}
			summary.Duplicates[key] = ids
		}
	}
	if len(summary.Duplicates) > 0 {
		summary.Flags = append(summary.Flags, FlagDuplicateFingerprint)
	}

	return summary
}
