package pathutil_test

import (
	"testing"

	"github.com/kfoss/blockfs/pathutil"
	"github.com/stretchr/testify/assert"
)

func TestSplitPath(t *testing.T) {
	cases := map[string][]string{
		"":           {},
		"/":          {},
		"/a":         {"a"},
		"/a/b":       {"a", "b"},
		"/a/b/":      {"a", "b"},
		"//a//b///c": {"a", "b", "c"},
	}

	for path, expected := range cases {
		assert.Equal(t, expected, pathutil.SplitPath(path), "path=%q", path)
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "/a", pathutil.Join("/", "a"))
	assert.Equal(t, "/a/b", pathutil.Join("/a", "b"))
}
