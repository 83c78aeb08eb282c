package dataset

import (
	"fmt"
	"strings"
)

// DefaultCandidates is the priority list used to find the racecar class.
var DefaultCandidates = []string{"racecar", "car", "vehicle"}

// MatchClass finds the first candidate, in candidate order, that equals one
// of names ignoring case. It returns the index and spelling from names.
//
// The order of names does not matter: with candidates ["racecar", "car"]
// and names ["car", "RaceCar"], index 1 ("RaceCar") is returned.
func MatchClass(candidates, names []string) (int, string, error) {
	for _, candidate := range candidates {
		for i, name := range names {
			if strings.EqualFold(name, candidate) {
				return i, name, nil
			}
		}
	}
	return -1, "", &ConfigError{
		Err:   ErrNoMatchingClass,
		Input: fmt.Sprintf("candidates %q not in names %q; pass the class name as a candidate", candidates, names),
	}
}
