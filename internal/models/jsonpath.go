package models

import (
	"strconv"
	"strings"
)

// LookupJSON walks a decoded JSON document along a dot-separated path,
// indexing objects by key and arrays by decimal position. Returns false
// when any segment is missing or the shape does not match.
func LookupJSON(doc any, path string) (any, bool) {
	current := doc

	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}
			current = node[index]
		default:
			return nil, false
		}
	}

	return current, true
}
