package dedupe

import (
	"context"
	"fmt"

	"github.com/JaimeStill/rapport/internal/people"
)

var freemailDomains = map[string]struct{}{
	"gmail.com":   {},
	"yahoo.com":   {},
	"hotmail.com": {},
	"outlook.com": {},
}

// FindCandidates scores every pair of persons and returns deterministic
// candidates followed by fuzzy candidates. The input is treated as a snapshot
// of one workspace. ctx is checked between rows of the pairwise pass.
func FindCandidates(ctx context.Context, persons []people.Person) ([]Candidate, error) {
	if len(persons) < 2 {
		return []Candidate{}, nil
	}

	candidates := deterministic(persons)

	fuzzy, err := fuzzyMatches(ctx, persons)
	if err != nil {
		return nil, err
	}

	return append(candidates, fuzzy...), nil
}

func deterministic(persons []people.Person) []Candidate {
	var out []Candidate
	emitted := make(map[string]struct{})

	for _, g := range groupBy(persons, func(p people.Person) string {
		return NormalizeEmail(people.Value(p.Email))
	}) {
		reason := "Same email: " + g.key
		forEachPair(g.members, func(a, b people.Person) {
			c := newCandidate(a.ID, b.ID, ConfidenceEmail, RuleEmail, reason)
			emitted[c.ID] = struct{}{}
			out = append(out, c)
		})
	}

	for _, g := range groupBy(persons, func(p people.Person) string {
		return NormalizePhone(people.Value(p.Phone))
	}) {
		reason := "Same phone: " + people.Value(g.members[0].Phone)
		forEachPair(g.members, func(a, b people.Person) {
			if _, ok := emitted[PairKey(a.ID, b.ID)]; ok {
				return
			}
			out = append(out, newCandidate(a.ID, b.ID, ConfidencePhone, RulePhone, reason))
		})
	}

	if out == nil {
		out = []Candidate{}
	}
	return out
}

func fuzzyMatches(ctx context.Context, persons []people.Person) ([]Candidate, error) {
	out := []Candidate{}

	for i := range persons {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < len(persons); j++ {
			if c, ok := fuzzyMatch(persons[i], persons[j]); ok {
				out = append(out, c)
			}
		}
	}

	return out, nil
}

func fuzzyMatch(a, b people.Person) (Candidate, bool) {
	nameA, nameB := a.FullName(), b.FullName()
	if nameA == "" || nameB == "" {
		return Candidate{}, false
	}

	if sim := NameSimilarity(nameA, nameB); sim >= NameThreshold {
		reason := fmt.Sprintf("Similar names: %q ~ %q", nameA, nameB)
		return newCandidate(a.ID, b.ID, min(sim, ConfidenceNameCap), RuleName, reason), true
	}

	domain := EmailDomain(people.Value(a.Email))
	if domain == "" || domain != EmailDomain(people.Value(b.Email)) {
		return Candidate{}, false
	}
	if _, free := freemailDomains[domain]; free {
		return Candidate{}, false
	}
	if NameSimilarity(people.Value(a.FirstName), people.Value(b.FirstName)) < FirstNameThreshold {
		return Candidate{}, false
	}

	reason := fmt.Sprintf("Same company domain (%s) + similar first name", domain)
	return newCandidate(a.ID, b.ID, ConfidenceDomain, RuleDomain, reason), true
}

type group struct {
	key     string
	members []people.Person
}

// groupBy buckets persons by a non-empty key, in order of first appearance.
// Only buckets with at least two members are returned.
func groupBy(persons []people.Person, key func(people.Person) string) []group {
	index := make(map[string]int)
	var groups []group

	for _, p := range persons {
		k := key(p)
		if k == "" {
			continue
		}
		if i, ok := index[k]; ok {
			groups[i].members = append(groups[i].members, p)
			continue
		}
		index[k] = len(groups)
		groups = append(groups, group{key: k, members: []people.Person{p}})
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.members) > 1 {
			out = append(out, g)
		}
	}
	return out
}

func forEachPair(members []people.Person, fn func(a, b people.Person)) {
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			fn(members[i], members[j])
		}
	}
}
