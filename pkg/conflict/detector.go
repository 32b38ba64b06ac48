// Package conflict computes file ownership for an ordered mod list.
// Profile order is priority order, lowest first: the last mod that
// declares a path wins it, every earlier declarer loses. Resolution is
// a pure computation with no disk effect.
package conflict

import (
	"sort"

	"github.com/modlay/modlay/pkg/types"
)

// Resolution holds the outcome of resolving an ordered mod list: the
// winning mod per declared path and, for contested paths, the shadowed
// declarers in profile order.
type Resolution struct {
	winners types.ResolvedSet
	losers  map[string][]types.ModID
}

// Resolve computes ownership in a single pass over the mods in profile
// order. Ties are impossible by construction since order is total.
func Resolve(mods []types.Mod) *Resolution {
	r := &Resolution{
		winners: make(types.ResolvedSet),
		losers:  make(map[string][]types.ModID),
	}
	for _, mod := range mods {
		for _, f := range mod.Files {
			if prev, contested := r.winners[f.Path]; contested {
				r.losers[f.Path] = append(r.losers[f.Path], prev)
			}
			r.winners[f.Path] = mod.ID
		}
	}
	return r
}

// Winners returns the resolved path → owning mod mapping. The returned
// map is a copy; mutating it does not affect the resolution.
func (r *Resolution) Winners() types.ResolvedSet {
	out := make(types.ResolvedSet, len(r.winners))
	for p, id := range r.winners {
		out[p] = id
	}
	return out
}

// WinnerFor returns the mod owning a path, if any mod declares it.
func (r *Resolution) WinnerFor(path string) (types.ModID, bool) {
	id, ok := r.winners[path]
	return id, ok
}

// Conflicts returns the contested paths, those declared by two or more
// mods, sorted by path for stable display.
func (r *Resolution) Conflicts() []types.Conflict {
	out := make([]types.Conflict, 0, len(r.losers))
	for path, losers := range r.losers {
		out = append(out, types.Conflict{
			Path:   path,
			Winner: r.winners[path],
			Losers: append([]types.ModID(nil), losers...),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Len returns the number of resolved paths.
func (r *Resolution) Len() int {
	return len(r.winners)
}
