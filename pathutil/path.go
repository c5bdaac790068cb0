// Package pathutil splits and joins the `/`-separated absolute paths the
// namespace layer resolves against the directory tree.
package pathutil

import "strings"

// SplitPath yields the non-empty components of an absolute, `/`-separated
// path. Consecutive or trailing slashes are ignored. The empty string and
// "/" both yield an empty component list.
func SplitPath(path string) []string {
	rawParts := strings.Split(path, "/")
	components := make([]string, 0, len(rawParts))
	for _, part := range rawParts {
		if part != "" {
			components = append(components, part)
		}
	}
	return components
}

// Join builds an absolute path from a parent path and a child name,
// avoiding a doubled slash immediately after the root.
func Join(parentPath, name string) string {
	if parentPath == "/" {
		return "/" + name
	}
	return parentPath + "/" + name
}
