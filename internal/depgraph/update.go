package depgraph

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/nesv/factorix/internal/ferr"
)

// GameVersionSource resolves the locally installed Factorio game
// version, read from the base mod's info.json by internal/gameinfo.
type GameVersionSource interface {
	GameVersion(ctx context.Context) (string, error)
}

// PlanUpdate computes update([M…]): for each name, fetch its portal
// releases, pick the latest whose factorio_version matches the local
// game version, and plan an install if it is newer than what is on
// disk.
//
// factorio_version strings ("1.1", "0.18") are genuine (if short)
// semver-compatible dotted versions, unlike the mod-to-mod ModVersion
// four-tuple, so this planner, uniquely, reaches for
// github.com/Masterminds/semver instead of this package's own
// ModVersion.Compare.
func PlanUpdate(ctx context.Context, g *Graph, src ReleaseSource, gv GameVersionSource, names []string) (Plan, error) {
	gameVersionStr, err := gv.GameVersion(ctx)
	if err != nil {
		return Plan{}, err
	}
	gameVersion, err := parseGameVersion(gameVersionStr)
	if err != nil {
		return Plan{}, err
	}

	out := Plan{}
	for _, name := range names {
		releases, err := src.Releases(ctx, name)
		if err != nil {
			return Plan{}, err
		}

		best, ok := latestMatchingGameVersion(releases, gameVersion)
		if !ok {
			continue // no release targets the installed game version
		}

		node, installed := g.Nodes[name]
		if installed && !best.Version.Greater(node.Version) {
			continue // already up to date
		}

		out.Install = append(out.Install, PlannedInstall{Identifier: name, Release: best})
	}
	return out, nil
}

func parseGameVersion(s string) (*semver.Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, ferr.Wrap(ferr.KindVersionParse, fmt.Sprintf("parse game version %q", s), err)
	}
	return v, nil
}

// latestMatchingGameVersion returns the release with the greatest
// ModVersion among those whose FactorioVersion matches gameVersion
// (same major.minor; Factorio releases don't guarantee a patch
// component in factorio_version).
func latestMatchingGameVersion(releases []Release, gameVersion *semver.Version) (Release, bool) {
	var best Release
	found := false

	for _, r := range releases {
		rv, err := semver.NewVersion(padFactorioVersion(r.FactorioVersion))
		if err != nil {
			continue
		}
		if rv.Major() != gameVersion.Major() || rv.Minor() != gameVersion.Minor() {
			continue
		}
		if !found || r.Version.Greater(best.Version) {
			best, found = r, true
		}
	}
	return best, found
}

// padFactorioVersion normalizes a two-part "1.1"-style factorio_version
// into a full semver string ("1.1.0") since Masterminds/semver requires
// a patch component.
func padFactorioVersion(s string) string {
	if strings.Count(s, ".") == 1 {
		return s + ".0"
	}
	return s
}
