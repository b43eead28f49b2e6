// Package detect resolves which container of a dataset to read and which
// experiment layout its columns follow.
package detect

import (
	"github.com/CeoatNorthstar/openCern/internal/adapters/source"
	"github.com/CeoatNorthstar/openCern/internal/domain/model"
	"github.com/CeoatNorthstar/openCern/internal/domain/profile"
	"github.com/cockroachdb/errors"
)

// ResolveContainer picks the table to read. A forced experiment tries its own
// candidates, auto tries the global list; either way the first table in the
// dataset index is the fallback.
func ResolveContainer(ds source.Dataset, exp model.Experiment) (string, error) {
	candidates := profile.AutoContainers
	if p, ok := profile.Lookup(exp); ok {
		candidates = p.Containers
	}

	for _, name := range candidates {
		if source.HasTable(ds, name) {
			return name, nil
		}
	}
	for _, e := range ds.Entries() {
		if e.Table {
			return e.Name, nil
		}
	}

	err := errors.Wrapf(ErrNoContainer, "%s (experiment %s)", ds.Path(), exp)
	return "", errors.WithHint(err, "pass --experiment to try another layout's container names")
}

// Detection is the outcome of Detect.
type Detection struct {
	Profile *profile.Profile
	// Scores per experiment; empty when the experiment was forced.
	Scores map[model.Experiment]int
	Forced bool
	// Defaulted is set when no profile matched any signature column.
	Defaulted bool
}

// Score returns the detected profile's own score.
func (d Detection) Score() int { return d.Scores[d.Profile.Experiment] }

// Detect selects a profile for the given column names. A concrete forced
// experiment skips scoring. Otherwise profiles are visited in priority order
// and the first whose score is positive and not below any other wins; with
// no signature match at all the default profile is used.
func Detect(columns []string, forced model.Experiment) Detection {
	if p, ok := profile.Lookup(forced); ok {
		return Detection{Profile: p, Forced: true}
	}

	available := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		available[c] = struct{}{}
	}

	all := profile.All()
	scores := make(map[model.Experiment]int, len(all))
	for _, p := range all {
		scores[p.Experiment] = p.Score(available)
	}

	for _, p := range all {
		s := scores[p.Experiment]
		if s == 0 {
			continue
		}
		best := true
		for _, other := range all {
			if scores[other.Experiment] > s {
				best = false
				break
			}
		}
		if best {
			return Detection{Profile: p, Scores: scores}
		}
	}

	return Detection{Profile: profile.Default(), Scores: scores, Defaulted: true}
}
