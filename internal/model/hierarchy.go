package model

import "fmt"

// Hierarchy is the whole board, categories in display order.
type Hierarchy []Category

func (h Hierarchy) Clone() Hierarchy {
	if h == nil {
		return nil
	}
	out := make(Hierarchy, len(h))
	for i, c := range h {
		out[i] = c.Clone()
	}
	return out
}

// CategoryIndex returns the position of the category with key, or -1.
func (h Hierarchy) CategoryIndex(key string) int {
	for i, c := range h {
		if c.Key == key {
			return i
		}
	}
	return -1
}

func (h Hierarchy) Keys() []string {
	keys := make([]string, len(h))
	for i, c := range h {
		keys[i] = c.Key
	}
	return keys
}

// Reindex rewrites every SortOrder from its position.
func (h Hierarchy) Reindex() {
	for i := range h {
		h[i].SortOrder = i
		for j := range h[i].Items {
			h[i].Items[j].SortOrder = j
		}
	}
}

// StripRemote returns a copy without remote identifiers.
func (h Hierarchy) StripRemote() Hierarchy {
	out := h.Clone()
	for i := range out {
		out[i].RemoteID = ""
		for j := range out[i].Items {
			out[i].Items[j].RemoteID = ""
		}
	}
	return out
}

// Validate checks key uniqueness and that every SortOrder matches its position.
func (h Hierarchy) Validate() error {
	seen := make(map[string]struct{}, len(h))
	for i, c := range h {
		if c.Key == "" {
			return fmt.Errorf("category at %d has an empty key", i)
		}
		if _, ok := seen[c.Key]; ok {
			return fmt.Errorf("duplicate category key %q", c.Key)
		}
		seen[c.Key] = struct{}{}
		if c.SortOrder != i {
			return fmt.Errorf("category %q has sort order %d at position %d", c.Key, c.SortOrder, i)
		}

		items := make(map[string]struct{}, len(c.Items))
		for j, it := range c.Items {
			if it.Key == "" {
				return fmt.Errorf("item at %d in %q has an empty key", j, c.Key)
			}
			if _, ok := items[it.Key]; ok {
				return fmt.Errorf("duplicate item key %q in %q", it.Key, c.Key)
			}
			items[it.Key] = struct{}{}
			if it.SortOrder != j {
				return fmt.Errorf("item %q in %q has sort order %d at position %d", it.Key, c.Key, it.SortOrder, j)
			}
		}
	}
	return nil
}

// IsPermutation reports whether keys holds exactly the members of current,
// each once, in any order.
func IsPermutation(current, keys []string) bool {
	if len(current) != len(keys) {
		return false
	}
	counts := make(map[string]int, len(current))
	for _, k := range current {
		counts[k]++
	}
	for _, k := range keys {
		if counts[k] == 0 {
			return false
		}
		counts[k]--
	}
	return true
}
