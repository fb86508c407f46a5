package complete

import (
	"sort"
	"strings"
	"unicode"
)

func sortCandidates(cands []Candidate, key SortKey) {
	switch key {
	case SortNone:
	case SortNatural:
		sort.SliceStable(cands, func(i, j int) bool {
			return NaturalLess(cands[i].Text, cands[j].Text)
		})
	default:
		sort.SliceStable(cands, func(i, j int) bool {
			return lexicalLess(cands[i].Text, cands[j].Text)
		})
	}
}

// lexicalLess orders case-insensitively, breaking ties case-sensitively
// so the ordering is total.
func lexicalLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// NaturalLess orders strings with embedded digit runs compared by
// numeric value, so "file2" sorts before "file10". Non-digit runs
// compare case-insensitively.
func NaturalLess(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		ca, cb := ra[i], rb[j]
		if unicode.IsDigit(ca) && unicode.IsDigit(cb) {
			na, ni := digitRun(ra, i)
			nb, nj := digitRun(rb, j)
			if c := compareNumeric(na, nb); c != 0 {
				return c < 0
			}
			i, j = ni, nj
			continue
		}
		la, lb := unicode.ToLower(ca), unicode.ToLower(cb)
		if la != lb {
			return la < lb
		}
		i++
		j++
	}
	if len(ra)-i != len(rb)-j {
		return len(ra)-i < len(rb)-j
	}
	return a < b
}

// digitRun returns the digit run starting at i with leading zeros
// trimmed, plus the index one past it.
func digitRun(rs []rune, i int) (string, int) {
	start := i
	for i < len(rs) && unicode.IsDigit(rs[i]) {
		i++
	}
	run := strings.TrimLeft(string(rs[start:i]), "0")
	return run, i
}

// compareNumeric compares two zero-trimmed digit strings by value: the
// longer one is larger, equal lengths compare lexically.
func compareNumeric(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
