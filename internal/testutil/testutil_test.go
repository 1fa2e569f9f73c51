// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestWriteTreeListTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	WriteTree(t, root, map[string]string{
		"bundle.yaml":       "name: demo\n",
		"charms/a/file.txt": "a",
	})

	got := ListTree(t, root)
	slices.Sort(got)
	want := []string{"bundle.yaml", "charms/a/file.txt"}
	if !slices.Equal(got, want) {
		t.Errorf("ListTree() = %v, want %v", got, want)
	}

	data, err := os.ReadFile(filepath.Join(root, "charms", "a", "file.txt"))
	if err != nil || string(data) != "a" {
		t.Errorf("file content = %q, %v", data, err)
	}
}

func TestMustChdir(t *testing.T) {
	original, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	restore := MustChdir(t, dir)
	got, _ := os.Getwd()
	if resolved, _ := filepath.EvalSymlinks(dir); got != dir && got != resolved {
		t.Errorf("Getwd() = %q, want %q", got, dir)
	}
	restore()

	if got, _ := os.Getwd(); got != original {
		t.Errorf("after restore Getwd() = %q, want %q", got, original)
	}
}

func TestMustUnsetenv(t *testing.T) {
	const key = "CHARMPACK_TESTUTIL_PROBE"
	t.Setenv(key, "value")

	restore := MustUnsetenv(t, key)
	if _, ok := os.LookupEnv(key); ok {
		t.Errorf("%s still set", key)
	}
	restore()
	if got := os.Getenv(key); got != "value" {
		t.Errorf("%s = %q after restore, want value", key, got)
	}
}
