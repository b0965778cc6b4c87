package depgraph

import "testing"

func TestParseModVersion(t *testing.T) {
	tests := []struct {
		name string
		want ModVersion
		fail bool
	}{
		{name: "1.2.3", want: ModVersion{Major: 1, Minor: 2, Patch: 3}},
		{name: "0.0.1-4", want: ModVersion{Major: 0, Minor: 0, Patch: 1, Build: 4}},
		{name: "65535.0.0", want: ModVersion{Major: 65535}},
		{name: "1.2", fail: true},
		{name: "1.2.3.4", fail: true},
		{name: "a.b.c", fail: true},
		{name: "1.2.3-", fail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseModVersion(tt.name)
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
			if got.String() != tt.name {
				t.Errorf("String() round-trip: got=%q want=%q", got.String(), tt.name)
			}
		})
	}
}

func TestModVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.0.1", "1.0.0", 1},
		{"1.1.0", "1.0.9", 1},
		{"2.0.0", "1.9.9", 1},
		{"1.0.0-1", "1.0.0-2", -1},
		{"1.0.0-2", "1.0.0", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			a, err := ParseModVersion(tt.a)
			if err != nil {
				t.Fatal(err)
			}
			b, err := ParseModVersion(tt.b)
			if err != nil {
				t.Fatal(err)
			}
			if got := a.Compare(b); got != tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := a.Less(b); got != (tt.want < 0) {
				t.Errorf("Less(%s, %s) = %t, want %t", tt.a, tt.b, got, tt.want < 0)
			}
			if got := a.Greater(b); got != (tt.want > 0) {
				t.Errorf("Greater(%s, %s) = %t, want %t", tt.a, tt.b, got, tt.want > 0)
			}
			if got := a.Equal(b); got != (tt.want == 0) {
				t.Errorf("Equal(%s, %s) = %t, want %t", tt.a, tt.b, got, tt.want == 0)
			}
		})
	}
}
