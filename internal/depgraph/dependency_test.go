package depgraph

import "testing"

func TestParseDependency(t *testing.T) {
	tests := []struct {
		input         string
		want          ModDependency
		fail          bool
		skipRoundTrip bool
	}{
		{
			input: "base",
			want:  ModDependency{TargetName: "base", Kind: KindRequired},
		},
		{
			input: "! explosive-excavation",
			want:  ModDependency{TargetName: "explosive-excavation", Kind: KindIncompatible},
		},
		{
			input: "? ElectricTrain",
			want:  ModDependency{TargetName: "ElectricTrain", Kind: KindOptional},
		},
		{
			input: "(?) flib",
			want:  ModDependency{TargetName: "flib", Kind: KindHiddenOptional},
		},
		{
			input: "~ silent-mod",
			want:  ModDependency{TargetName: "silent-mod", Kind: KindLoadNeutral},
		},
		{
			input: "flib >= 0.12.0",
			want: ModDependency{
				TargetName:  "flib",
				Kind:        KindRequired,
				Requirement: VersionRequirement{Present: true, Op: OpGE, Version: ModVersion{Minor: 12}},
			},
		},
		{
			input: "(?) flow-control >= 3.0.5",
			want: ModDependency{
				TargetName:  "flow-control",
				Kind:        KindHiddenOptional,
				Requirement: VersionRequirement{Present: true, Op: OpGE, Version: ModVersion{Major: 3, Patch: 5}},
			},
		},
		// info.json data in the wild also omits the space after the
		// prefix; ParseDependency accepts both, but only the spaced form
		// is canonical, so these don't round-trip to their own input.
		{
			input:         "!explosive-excavation",
			want:          ModDependency{TargetName: "explosive-excavation", Kind: KindIncompatible},
			skipRoundTrip: true,
		},
		{
			input:         "?ElectricTrain",
			want:          ModDependency{TargetName: "ElectricTrain", Kind: KindOptional},
			skipRoundTrip: true,
		},
		{
			input:         "(?)flib",
			want:          ModDependency{TargetName: "flib", Kind: KindHiddenOptional},
			skipRoundTrip: true,
		},
		{input: "", fail: true},
		{input: "!", fail: true},
		{input: "! ", fail: true},
		{input: "flib bogus 1.0.0", fail: true},
		{input: "flib >= nope", fail: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDependency(tt.input)
			if tt.fail {
				if err == nil {
					t.Fatal("expected an error, got none")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got=%+v want=%+v", got, tt.want)
			}
			if tt.skipRoundTrip {
				return
			}
			if got.String() != tt.input {
				t.Errorf("String() round-trip: got=%q want=%q", got.String(), tt.input)
			}
		})
	}
}

func TestModDependencyNeedsInstall(t *testing.T) {
	tests := []struct {
		kind DependencyKind
		want bool
	}{
		{KindRequired, true},
		{KindOptional, false},
		{KindHiddenOptional, false},
		{KindIncompatible, false},
		{KindLoadNeutral, false},
	}
	for _, tt := range tests {
		d := ModDependency{Kind: tt.kind}
		if got := d.NeedsInstall(); got != tt.want {
			t.Errorf("NeedsInstall() for %s = %t, want %t", tt.kind, got, tt.want)
		}
	}
}
