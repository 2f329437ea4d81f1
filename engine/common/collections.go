package common

import "sort"

// StringSet is a set of strings
type StringSet map[string]struct{}

// Contains checks if Stringset contains the string
func (ss StringSet) Contains(elem string) bool {
	_, ok := ss[elem]
	return ok
}

// Add adds the string to StringSet
func (ss StringSet) Add(elem string) {
	ss[elem] = struct{}{}
}

// Remove removes the string from StringSet
func (ss StringSet) Remove(elem string) {
	delete(ss, elem)
}

// ToList converts StringSet to a sorted string slice
func (ss StringSet) ToList() []string {
	keys := make([]string, 0, len(ss))
	for s := range ss {
		keys = append(keys, s)
	}
	sort.Strings(keys)
	return keys
}

// ProfileIDSet is a set of profile ids
type ProfileIDSet map[ProfileID]struct{}

// Contains checks if the set contains the id
func (ps ProfileIDSet) Contains(id ProfileID) bool {
	_, ok := ps[id]
	return ok
}

// Add adds the id to the set
func (ps ProfileIDSet) Add(id ProfileID) {
	ps[id] = struct{}{}
}

// Remove removes the id from the set
func (ps ProfileIDSet) Remove(id ProfileID) {
	delete(ps, id)
}

// ToList returns the ids in sorted order
func (ps ProfileIDSet) ToList() []ProfileID {
	ids := make([]ProfileID, 0, len(ps))
	for id := range ps {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
