package depgraph

import "time"

// Release is one portal-side release of a mod. Immutable.
type Release struct {
	Version      ModVersion
	ReleasedAt   time.Time
	DownloadURL  string
	FileName     string
	SHA1         string
	InfoJSONBlob []byte

	// FactorioVersion is the release's declared factorio_version,
	// compared against the local game version using semver in the
	// update planner.
	FactorioVersion string
}

// SelectRelease returns the release with the greatest version among
// those satisfying req, ties broken by the later
// ReleasedAt. A zero VersionRequirement (Present == false) matches every
// release. Reports false when no release satisfies req.
func SelectRelease(releases []Release, req VersionRequirement) (Release, bool) {
	var best Release
	found := false

	for _, r := range releases {
		if !req.SatisfiedBy(r.Version) {
			continue
		}
		if !found {
			best, found = r, true
			continue
		}
		switch r.Version.Compare(best.Version) {
		case 1:
			best = r
		case 0:
			if r.ReleasedAt.After(best.ReleasedAt) {
				best = r
			}
		}
	}
	return best, found
}

// SelectExact returns the release exactly matching v, for explicit
// name@version install specs.
func SelectExact(releases []Release, v ModVersion) (Release, bool) {
	for _, r := range releases {
		if r.Version.Equal(v) {
			return r, true
		}
	}
	return Release{}, false
}
