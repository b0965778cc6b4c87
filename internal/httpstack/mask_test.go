package httpstack

import "testing"

func TestMaskURL(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		masked []string
		want   string
	}{
		{
			name:   "masks every matching parameter",
			raw:    "https://mods.factorio.com/api/downloads/data/mods/1/foo.zip?username=bob&token=abc123",
			masked: []string{"username", "token"},
			want:   "https://mods.factorio.com/api/downloads/data/mods/1/foo.zip?token=%2A%2A%2A%2A%2A&username=%2A%2A%2A%2A%2A",
		},
		{
			name:   "leaves the url alone when no masked params are present",
			raw:    "https://mods.factorio.com/api/mods/foo",
			masked: []string{"username", "token"},
			want:   "https://mods.factorio.com/api/mods/foo",
		},
		{
			name:   "leaves the url alone when the masked list is empty",
			raw:    "https://mods.factorio.com/api/mods/foo?token=abc123",
			masked: nil,
			want:   "https://mods.factorio.com/api/mods/foo?token=abc123",
		},
		{
			name:   "returns an unparseable url unchanged",
			raw:    "://not-a-url",
			masked: []string{"token"},
			want:   "://not-a-url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaskURL(tt.raw, tt.masked)
			if got != tt.want {
				t.Errorf("MaskURL(%q, %v) = %q, want %q", tt.raw, tt.masked, got, tt.want)
			}
		})
	}
}
