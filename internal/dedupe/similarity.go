package dedupe

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Levenshtein returns the edit distance between a and b counted over Unicode
// code points, with unit cost for insertion, deletion, and substitution.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,
				curr[j-1]+1,
				prev[j-1]+cost,
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// NameSimilarity scores two names in [0,1] as 1 - distance/maxLength after
// normalization. An empty name scores 0 against anything, including another
// empty name.
func NameSimilarity(a, b string) float64 {
	a, b = normalizeName(a), normalizeName(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	longest := max(len([]rune(a)), len([]rune(b)))
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips every non-digit character.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// EmailDomain returns the lower-cased text after the sole '@' in email, or ""
// when the address does not contain exactly one '@'.
func EmailDomain(email string) string {
	email = NormalizeEmail(email)
	if strings.Count(email, "@") != 1 {
		return ""
	}
	_, domain, _ := strings.Cut(email, "@")
	return domain
}

func normalizeName(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}
