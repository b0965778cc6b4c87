package depgraph

// BaseModName is the identifier of Factorio's built-in base mod, always
// implicitly installed and enabled.
const BaseModName = "base"

// ModInfo is the subset of a mod zip's info.json that the dependency
// engine needs: title, author, version, dependencies, and the Factorio
// version it targets.
type ModInfo struct {
	Name            string
	Title           string
	Author          string
	Version         ModVersion
	Dependencies    []ModDependency
	FactorioVersion string
}

// InstalledMod is one version of a mod present on disk. A given
// identifier may have more than one InstalledMod (multiple
// versions on disk); ModList and ActiveVersion decide which is active.
type InstalledMod struct {
	Identifier string
	Version    ModVersion
	Info       ModInfo
	ZipPath    string
}

// ModListEntry is one identifier's entry in mod-list.json.
type ModListEntry struct {
	Name    string
	Enabled bool
	// Version is present only when mod-list.json pins a specific
	// version for this identifier.
	Version    ModVersion
	HasVersion bool
}

// ModList is the ordered mapping persisted as mod-list.json. Order is
// preserved across Load/Save.
type ModList struct {
	entries []ModListEntry
	index   map[string]int
}

// NewModList returns an empty list with base present and enabled: base
// is always present and enabled, regardless of mod-list.json's contents.
func NewModList() *ModList {
	ml := &ModList{index: make(map[string]int)}
	ml.Set(ModListEntry{Name: BaseModName, Enabled: true})
	return ml
}

// Entries returns the list's entries in persisted order. The returned
// slice must not be mutated by the caller.
func (ml *ModList) Entries() []ModListEntry {
	return ml.entries
}

// Get returns the entry for name and whether it is present.
func (ml *ModList) Get(name string) (ModListEntry, bool) {
	i, ok := ml.index[name]
	if !ok {
		return ModListEntry{}, false
	}
	return ml.entries[i], true
}

// Set inserts or replaces name's entry, preserving its original position
// on update and appending on insert.
func (ml *ModList) Set(e ModListEntry) {
	if ml.index == nil {
		ml.index = make(map[string]int)
	}
	if i, ok := ml.index[e.Name]; ok {
		ml.entries[i] = e
		return
	}
	ml.index[e.Name] = len(ml.entries)
	ml.entries = append(ml.entries, e)
}

// IsEnabled reports whether name is present and enabled. Unlisted mods
// are disabled.
func (ml *ModList) IsEnabled(name string) bool {
	e, ok := ml.Get(name)
	return ok && e.Enabled
}

// ActiveVersion resolves the active installed version for identifier
// among candidates: the mod-list-pinned version if one is installed,
// else the greatest installed version.
func ActiveVersion(identifier string, candidates []InstalledMod, ml *ModList) (InstalledMod, bool) {
	var best InstalledMod
	found := false

	if e, ok := ml.Get(identifier); ok && e.HasVersion {
		for _, c := range candidates {
			if c.Identifier == identifier && c.Version.Equal(e.Version) {
				return c, true
			}
		}
	}

	for _, c := range candidates {
		if c.Identifier != identifier {
			continue
		}
		if !found || c.Version.Greater(best.Version) {
			best = c
			found = true
		}
	}
	return best, found
}
