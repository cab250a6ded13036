package dedupe

import (
	"github.com/google/uuid"
)

// Rule names the matching rule that produced a candidate.
type Rule string

const (
	RuleEmail  Rule = "email"
	RulePhone  Rule = "phone"
	RuleName   Rule = "name"
	RuleDomain Rule = "domain"
)

// Confidence tiers. Fuzzy name matches are capped at ConfidenceNameCap so they
// never outrank a deterministic match.
const (
	ConfidenceEmail   = 0.95
	ConfidencePhone   = 0.90
	ConfidenceNameCap = 0.85
	ConfidenceDomain  = 0.70

	NameThreshold      = 0.85
	FirstNameThreshold = 0.80
)

// Candidate is an unconfirmed suggestion that two persons are the same individual.
// ID is the order-independent pair key, so the same pair found by two rules
// shares an ID.
type Candidate struct {
	ID         string    `json:"id"`
	PersonA    uuid.UUID `json:"person_a"`
	PersonB    uuid.UUID `json:"person_b"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
	Rule       Rule      `json:"rule"`
}

func newCandidate(a, b uuid.UUID, confidence float64, rule Rule, reason string) Candidate {
	return Candidate{
		ID:         PairKey(a, b),
		PersonA:    a,
		PersonB:    b,
		Confidence: confidence,
		Reason:     reason,
		Rule:       rule,
	}
}

// PairKey returns a key identifying the unordered pair {a, b}.
func PairKey(a, b uuid.UUID) string {
	lo, hi := a.String(), b.String()
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + ":" + hi
}

// Collapse keeps the first candidate for each pair key, preserving order.
// Scan output lists deterministic matches first, so the collapsed list keeps
// the strongest evidence for each pair.
func Collapse(candidates []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}

	return out
}
