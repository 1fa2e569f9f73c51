// SPDX-License-Identifier: MPL-2.0

package parts

import "testing"

func TestFileFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []string
		allowed []string
		denied  []string
	}{
		{
			name:    "no entries allow everything",
			allowed: []string{"a.txt", "dir/b.txt"},
		},
		{
			name:    "includes restrict",
			entries: []string{"bundle.yaml", "README.md"},
			allowed: []string{"bundle.yaml", "README.md"},
			denied:  []string{"other.txt", "dir/bundle.yaml"},
		},
		{
			name:    "excludes only",
			entries: []string{"-*.zip"},
			allowed: []string{"a.txt", "dir/x.zip"},
			denied:  []string{"proj.zip"},
		},
		{
			name:    "directory selects its content",
			entries: []string{"docs", "-docs/private"},
			allowed: []string{"docs/a.md", "docs/sub/b.md"},
			denied:  []string{"docs/private/key", "src/a.py"},
		},
		{
			name:    "doublestar",
			entries: []string{"**/*.md", "./extra.txt"},
			allowed: []string{"README.md", "a/b/c.md", "extra.txt"},
			denied:  []string{"a/b/c.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := newFileFilter(tt.entries)
			if err != nil {
				t.Fatalf("newFileFilter() error = %v", err)
			}
			for _, p := range tt.allowed {
				if !f.allows(p) {
					t.Errorf("allows(%q) = false, want true", p)
				}
			}
			for _, p := range tt.denied {
				if f.allows(p) {
					t.Errorf("allows(%q) = true, want false", p)
				}
			}
		})
	}
}

func TestNewFileFilter_Invalid(t *testing.T) {
	t.Parallel()

	for _, entries := range [][]string{{"-"}, {"  "}, {"a["}} {
		if _, err := newFileFilter(entries); err == nil {
			t.Errorf("newFileFilter(%q) error = nil, want error", entries)
		}
	}
}
