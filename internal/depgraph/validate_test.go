package depgraph

import "testing"

func hasIssue(issues []Issue, kind IssueKind) bool {
	for _, i := range issues {
		if i.Kind == kind {
			return true
		}
	}
	return false
}

func TestValidateMissingDependency(t *testing.T) {
	g := &Graph{
		Nodes: map[string]Node{"a": {Identifier: "a", Enabled: true}},
		Edges: map[string][]Edge{"a": {{From: "a", To: "b", Kind: KindRequired}}},
	}
	result := Validate(g, NewModList())
	if result.OK() {
		t.Fatal("expected an error")
	}
	if !hasIssue(result.Errors, IssueMissingDependency) {
		t.Errorf("errors = %+v, want a missing_dependency issue", result.Errors)
	}
}

func TestValidateDisabledDependency(t *testing.T) {
	g := &Graph{
		Nodes: map[string]Node{
			"a": {Identifier: "a", Enabled: true},
			"b": {Identifier: "b", Enabled: false},
		},
		Edges: map[string][]Edge{"a": {{From: "a", To: "b", Kind: KindRequired}}},
	}
	result := Validate(g, NewModList())
	if !hasIssue(result.Errors, IssueDisabledDependency) {
		t.Errorf("errors = %+v, want a disabled_dependency issue", result.Errors)
	}
}

func TestValidateVersionMismatch(t *testing.T) {
	g := &Graph{
		Nodes: map[string]Node{
			"a": {Identifier: "a", Enabled: true},
			"b": {Identifier: "b", Enabled: true, Version: ModVersion{Minor: 1}},
		},
		Edges: map[string][]Edge{"a": {{
			From: "a", To: "b", Kind: KindRequired,
			Requirement: VersionRequirement{Present: true, Op: OpGE, Version: ModVersion{Minor: 2}},
		}}},
	}
	result := Validate(g, NewModList())
	if !hasIssue(result.Errors, IssueVersionMismatch) {
		t.Errorf("errors = %+v, want a version_mismatch issue", result.Errors)
	}
}

func TestValidateConflictOnlyWhenBothEnabled(t *testing.T) {
	g := &Graph{
		Nodes: map[string]Node{
			"a": {Identifier: "a", Enabled: true},
			"b": {Identifier: "b", Enabled: false},
		},
		Edges: map[string][]Edge{"a": {{From: "a", To: "b", Kind: KindIncompatible}}},
	}
	if result := Validate(g, NewModList()); hasIssue(result.Errors, IssueConflict) {
		t.Error("a conflict must not be reported when the incompatible target is disabled")
	}

	g.Nodes["b"] = Node{Identifier: "b", Enabled: true}
	if result := Validate(g, NewModList()); !hasIssue(result.Errors, IssueConflict) {
		t.Error("a conflict must be reported when both incompatible mods are enabled")
	}
}

func TestValidateCircularDependency(t *testing.T) {
	g := &Graph{
		Nodes: map[string]Node{
			"a": {Identifier: "a", Enabled: true},
			"b": {Identifier: "b", Enabled: true},
		},
		Edges: map[string][]Edge{
			"a": {{From: "a", To: "b", Kind: KindRequired}},
			"b": {{From: "b", To: "a", Kind: KindRequired}},
		},
	}
	result := Validate(g, NewModList())
	if !hasIssue(result.Errors, IssueCircularDependency) {
		t.Errorf("errors = %+v, want a circular_dependency issue", result.Errors)
	}
}

func TestValidateModListWarnings(t *testing.T) {
	g := &Graph{
		Nodes: map[string]Node{"installed-only": {Identifier: "installed-only", Enabled: true}},
		Edges: map[string][]Edge{},
	}
	ml := NewModList()
	ml.Set(ModListEntry{Name: "listed-only", Enabled: true})

	result := Validate(g, ml)
	if !hasIssue(result.Warnings, IssueModNotInstalled) {
		t.Errorf("warnings = %+v, want mod_in_list_not_installed for listed-only", result.Warnings)
	}
	if !hasIssue(result.Warnings, IssueModNotInList) {
		t.Errorf("warnings = %+v, want mod_installed_not_in_list for installed-only", result.Warnings)
	}
}

func TestValidateCleanGraphIsOK(t *testing.T) {
	g := &Graph{
		Nodes: map[string]Node{BaseModName: {Identifier: BaseModName, Enabled: true, Installed: true}},
		Edges: map[string][]Edge{},
	}
	ml := NewModList()
	result := Validate(g, ml)
	if !result.OK() {
		t.Errorf("errors = %+v, want none", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("warnings = %+v, want none", result.Warnings)
	}
}
