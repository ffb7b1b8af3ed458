package fint

import "strings"

func toString(intf any) (result string, ok bool) {
	if intf == nil {
		return
	}
	result, ok = intf.(string)
	if ok {
		result = strings.TrimSpace(result)
		ok = len(result) > 0
	}
	return
}

// lookup walks nested JSON objects along path.
func lookup(intf any, path ...string) (result any, ok bool) {
	result = intf
	for _, key := range path {
		var jo map[string]any
		if jo, ok = result.(map[string]any); !ok {
			return
		}
		if result, ok = jo[key]; !ok {
			return
		}
	}
	ok = result != nil
	return
}

// firstString returns the first non-empty string found at any of the paths.
func firstString(intf any, paths ...[]string) (result string, ok bool) {
	for _, path := range paths {
		var j any
		if j, ok = lookup(intf, path...); ok {
			if result, ok = toString(j); ok {
				return
			}
		}
	}
	return
}
