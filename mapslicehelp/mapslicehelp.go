package mapslicehelp

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/exp/constraints"
)

func AsKeys[T comparable](elements []T) map[T]any {
	mapped := make(map[T]any, len(elements))
	for _, element := range elements {
		mapped[element] = struct{}{}
	}
	return mapped
}

// Duplicates returns the elements occurring more than once, in order of their second occurrence
func Duplicates[T comparable](elements []T) []T {
	seen := make(map[T]int, len(elements))
	var dupes []T
	for _, element := range elements {
		seen[element]++
		if seen[element] == 2 {
			dupes = append(dupes, element)
		}
	}
	return dupes
}

func OrderedMapKeys[K comparable, V any](m *orderedmap.OrderedMap[K, V]) []K {
	l := make([]K, m.Len())
	i := 0
	for p := m.Oldest(); p != nil; p = p.Next() {
		l[i] = p.Key
		i++
	}
	return l
}

// CloneOrderedMap returns a shallow copy keeping the order
func CloneOrderedMap[K comparable, V any](m *orderedmap.OrderedMap[K, V]) *orderedmap.OrderedMap[K, V] {
	c := orderedmap.New[K, V]()
	if m == nil {
		return c
	}
	for p := m.Oldest(); p != nil; p = p.Next() {
		c.Set(p.Key, p.Value)
	}
	return c
}

func MaxOr[T constraints.Ordered](elements []T, fallback T) T {
	if len(elements) == 0 {
		return fallback
	}
	m := elements[0]
	for _, e := range elements[1:] {
		if e > m {
			m = e
		}
	}
	return m
}
