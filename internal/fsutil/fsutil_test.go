package fsutil

import "testing"

func TestLongestCommonDir(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{
			name:  "shared parent",
			paths: []string{"/repo/src/main1.js", "/repo/src/main2.js"},
			want:  "/repo/src",
		},
		{
			name:  "diverging subdirs",
			paths: []string{"/repo/src/a/main1.js", "/repo/src/b/main2.js"},
			want:  "/repo/src",
		},
		{
			name:  "single entry",
			paths: []string{"/repo/src/main1.js"},
			want:  "/repo/src",
		},
		{
			name:  "empty",
			paths: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LongestCommonDir(tt.paths)
			if got != tt.want {
				t.Errorf("LongestCommonDir(%v) = %q, want %q", tt.paths, got, tt.want)
			}
		})
	}
}

func TestContentHash(t *testing.T) {
	h1 := ContentHash([]byte("console.log(42)"), 8)
	h2 := ContentHash([]byte("console.log(42)"), 8)
	h3 := ContentHash([]byte("console.log(43)"), 8)

	if h1 != h2 {
		t.Errorf("ContentHash not deterministic: %q != %q", h1, h2)
	}
	if h1 == h3 {
		t.Errorf("ContentHash collided for different input")
	}
	if len(h1) != 8 {
		t.Errorf("len(h1) = %d, want 8", len(h1))
	}
}
