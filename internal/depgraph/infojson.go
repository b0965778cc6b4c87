package depgraph

import (
	"encoding/json"
	"fmt"

	"github.com/nesv/factorix/internal/ferr"
)

// rawModInfo is the subset of info.json's shape the planner needs to
// pull transitive dependencies out of a release's blob without the full
// internal/modfile codec (which in turn builds InstalledMod on top of
// this package's types, so the dependency runs this direction only).
type rawModInfo struct {
	Dependencies []string `json:"dependencies"`
}

// parseInfoJSONDependencies parses the "dependencies" array out of a
// release's raw info.json bytes using ParseDependency's grammar. A
// missing "dependencies" key yields an empty (not base-only) slice.
func parseInfoJSONDependencies(blob []byte) ([]ModDependency, error) {
	if len(blob) == 0 {
		return nil, nil
	}

	var raw rawModInfo
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, ferr.Wrap(ferr.KindFileFormat, "parse info.json", err)
	}

	deps := make([]ModDependency, 0, len(raw.Dependencies))
	for _, s := range raw.Dependencies {
		d, err := ParseDependency(s)
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", s, err)
		}
		deps = append(deps, d)
	}
	return deps, nil
}
