package reconcile

import "golang.org/x/text/cases"

type Set[K comparable] map[K]struct{}

func NewSet[K comparable]() Set[K] {
	return make(Set[K])
}

func MakeSet[K comparable](keys []K) Set[K] {
	var ns = NewSet[K]()
	for _, k := range keys {
		ns.Add(k)
	}
	return ns
}

func (s Set[K]) Has(key K) (ok bool) {
	_, ok = s[key]
	return
}

func (s Set[K]) Add(key K) {
	s[key] = struct{}{}
}

// findFirst returns a pointer to the first item accepted by every predicate.
func findFirst[T any](items []T, predicates ...func(*T) bool) *T {
	for i := range items {
		var ok = true
		for _, p := range predicates {
			if !p(&items[i]) {
				ok = false
				break
			}
		}
		if ok {
			return &items[i]
		}
	}
	return nil
}

// sameName compares names case-insensitively without any trimming.
func sameName(a string, b string) bool {
	return cases.Fold().String(a) == cases.Fold().String(b)
}

func intEqual(a *int, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
