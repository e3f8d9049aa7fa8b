// Package dedupe decides whether two addresses are the same place from
// their expansions.
package dedupe

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

// Status is the duplicate verdict for a pair of addresses.
type Status int

const (
	NonDuplicate Status = iota
	PossibleDuplicate
	LikelyDuplicate
	ExactDuplicate
)

// Score thresholds on the fuzzy similarity of canonical forms.
const (
	LikelyThreshold   = 0.92
	PossibleThreshold = 0.80
)

var statusNames = [...]string{"non_duplicate", "possible_duplicate", "likely_duplicate", "exact_duplicate"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the verdict with the similarity it was based on.
type Result struct {
	Status Status  `json:"status"`
	Score  float64 `json:"score"`
	// Match is the shared expansion for exact duplicates.
	Match string `json:"match,omitempty"`
}

// Compare classifies two expansion lists. Lists that share any expansion
// are exact duplicates; otherwise the canonical forms (index 0) are
// compared with Jaro-Winkler and normalized Levenshtein, keeping the
// higher score.
func Compare(a, b []string) Result {
	if len(a) == 0 || len(b) == 0 {
		return Result{Status: NonDuplicate}
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return Result{Status: ExactDuplicate, Score: 1, Match: s}
		}
	}

	score := Similarity(a[0], b[0])
	switch {
	case score >= LikelyThreshold:
		return Result{Status: LikelyDuplicate, Score: score}
	case score >= PossibleThreshold:
		return Result{Status: PossibleDuplicate, Score: score}
	}
	return Result{Status: NonDuplicate, Score: score}
}

// Similarity returns a score in [0, 1] for two normalized strings.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	jw := smetrics.JaroWinkler(a, b, 0.7, 4)

	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	lev := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)

	return max(jw, lev)
}
