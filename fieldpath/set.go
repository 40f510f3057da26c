/*
Copyright 2019 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package fieldpath

import "sort"

// PathElementSet is a sorted, deduplicated collection of PathElements
// that terminate at the same parent node of a Set trie.
type PathElementSet []PathElement

// Has reports whether pe is a member of the set.
func (s PathElementSet) Has(pe PathElement) bool {
	_, ok := s.find(pe)
	return ok
}

func (s PathElementSet) find(pe PathElement) (int, bool) {
	i := sort.Search(len(s), func(i int) bool { return !Less(s[i], pe) })
	if i < len(s) && Equal(s[i], pe) {
		return i, true
	}
	return i, false
}

// Insert adds pe to the set, returning a new set; s is left unmodified.
func (s PathElementSet) Insert(pe PathElement) PathElementSet {
	i, ok := s.find(pe)
	if ok {
		return s
	}
	out := make(PathElementSet, len(s)+1)
	copy(out, s[:i])
	out[i] = pe
	copy(out[i+1:], s[i:])
	return out
}

func (s PathElementSet) union(other PathElementSet) PathElementSet {
	out := make(PathElementSet, len(s))
	copy(out, s)
	for _, pe := range other {
		out = out.Insert(pe)
	}
	return out
}

func (s PathElementSet) intersection(other PathElementSet) PathElementSet {
	var out PathElementSet
	for _, pe := range s {
		if other.Has(pe) {
			out = append(out, pe)
		}
	}
	return out
}

func (s PathElementSet) difference(other PathElementSet) PathElementSet {
	var out PathElementSet
	for _, pe := range s {
		if !other.Has(pe) {
			out = append(out, pe)
		}
	}
	return out
}

// setChild pairs a PathElement with the Set rooted at it, so a node can
// recover the key's original tag/value when iterating, rather than
// re-parsing the serialized map key.
type setChild struct {
	pathElement PathElement
	set         *Set
}

// PathElement returns the step this child is reached by.
func (c *setChild) PathElement() PathElement { return c.pathElement }

// Set returns the subtree rooted at this child.
func (c *setChild) Set() *Set { return c.set }

// Set is a trie over Paths: each node's Members are path elements that
// terminate here, and each node's Children descend one step further for
// elements that have members or children of their own deeper in the
// tree. A FieldSet is a *Set rooted at the document root.
//
// A Member at a node stands for the entire subtree below it treated as
// one atomic unit -- this is how an atomically-merged map or list
// records ownership of everything underneath with a single path
// element, without walking into leaves the schema forbids splitting.
// Has, Union, Intersection and Difference all honor that: a Member
// shadows any deeper path through the same element.
type Set struct {
	Members  PathElementSet
	Children map[string]*setChild
}

// NewSet builds a Set containing exactly the given paths.
func NewSet(paths ...Path) *Set {
	s := &Set{}
	for _, p := range paths {
		s.Insert(p)
	}
	return s
}

func (s *Set) child(pe PathElement) (*Set, bool) {
	if s.Children == nil {
		return nil, false
	}
	key, err := SerializeElement(pe)
	if err != nil {
		return nil, false
	}
	c, ok := s.Children[key]
	if !ok {
		return nil, false
	}
	return c.set, true
}

func (s *Set) getOrCreateChild(pe PathElement) *Set {
	key, err := SerializeElement(pe)
	if err != nil {
		panic("fieldpath: unserializable path element: " + err.Error())
	}
	if s.Children == nil {
		s.Children = map[string]*setChild{}
	}
	c, ok := s.Children[key]
	if !ok {
		c = &setChild{pathElement: pe, set: &Set{}}
		s.Children[key] = c
	}
	return c.set
}

// Insert adds p to the set.
func (s *Set) Insert(p Path) {
	if len(p) == 0 {
		return
	}
	if len(p) == 1 {
		s.Members = s.Members.Insert(p[0])
		return
	}
	s.getOrCreateChild(p[0]).Insert(p[1:])
}

// Has reports whether p is a member of the set, accounting for
// ancestor Members that atomically cover everything beneath them.
func (s *Set) Has(p Path) bool {
	if s == nil {
		return false
	}
	if len(p) == 0 {
		return true
	}
	head, tail := p[0], p[1:]
	if len(tail) == 0 {
		return s.Members.Has(head)
	}
	if s.Members.Has(head) {
		return true
	}
	child, ok := s.child(head)
	if !ok {
		return false
	}
	return child.Has(tail)
}

// Empty reports whether the set has no members anywhere in the trie.
func (s *Set) Empty() bool {
	if s == nil {
		return true
	}
	if len(s.Members) > 0 {
		return false
	}
	for _, c := range s.Children {
		if !c.set.Empty() {
			return false
		}
	}
	return true
}

// Size returns the total number of leaf paths described by the set.
// A Member counts as one leaf even though it stands for a whole
// subtree: the size of what it covers isn't representable without the
// schema.
func (s *Set) Size() int {
	if s == nil {
		return 0
	}
	n := len(s.Members)
	for _, c := range s.Children {
		n += c.set.Size()
	}
	return n
}

// Equals reports whether s and other contain the same paths.
func (s *Set) Equals(other *Set) bool {
	return s.Difference(other).Empty() && other.Difference(s).Empty()
}

func sortedChildren(children map[string]*setChild) []*setChild {
	out := make([]*setChild, 0, len(children))
	for _, c := range children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return Less(out[i].pathElement, out[j].pathElement) })
	return out
}

// Iterate calls fn once for every Path in the set, in deterministic
// PathElement order, depth-first.
func (s *Set) Iterate(fn func(Path)) {
	if s == nil {
		return
	}
	s.iterate(nil, fn)
}

func (s *Set) iterate(prefix Path, fn func(Path)) {
	for _, pe := range s.Members {
		fn(prefix.Append(pe))
	}
	for _, c := range sortedChildren(s.Children) {
		c.set.iterate(prefix.Append(c.pathElement), fn)
	}
}

// Union returns the set of paths present in s or other. When one side
// holds a whole-subtree Member for an element that the other side has
// only partially expanded into Children, the Member wins: owning a
// subtree atomically is a superset of owning parts of it.
func (s *Set) Union(other *Set) *Set {
	if s == nil {
		s = &Set{}
	}
	if other == nil {
		other = &Set{}
	}
	out := &Set{Members: s.Members.union(other.Members)}

	keys := map[string]*setChild{}
	for k, c := range s.Children {
		keys[k] = c
	}
	for k, c := range other.Children {
		keys[k] = c
	}
	for key, c := range keys {
		pe := c.pathElement
		if out.Members.Has(pe) {
			continue // atomic Member already dominates this element
		}
		c1, ok1 := s.child(pe)
		c2, ok2 := other.child(pe)
		switch {
		case ok1 && ok2:
			out.setChildSet(key, pe, c1.Union(c2))
		case ok1:
			out.setChildSet(key, pe, c1)
		case ok2:
			out.setChildSet(key, pe, c2)
		}
	}
	return out
}

// Intersection returns the paths present in both s and other. A
// whole-subtree Member on one side intersected with a partial
// expansion on the other yields that partial expansion: the Member
// covers everything the Children side names, so the Children side is
// the exact intersection.
func (s *Set) Intersection(other *Set) *Set {
	if s == nil || other == nil {
		return &Set{}
	}
	out := &Set{Members: s.Members.intersection(other.Members)}

	for key, c := range s.Children {
		pe := c.pathElement
		switch {
		case other.Members.Has(pe):
			out.setChildSet(key, pe, c.set)
		case s.Members.Has(pe):
			if oc, ok := other.child(pe); ok {
				out.setChildSet(key, pe, oc)
			}
		default:
			if oc, ok := other.child(pe); ok {
				child := c.set.Intersection(oc)
				if !child.Empty() {
					out.setChildSet(key, pe, child)
				}
			}
		}
	}
	// Elements that are a Member only on the other side, with s
	// expanding into Children for the same element, are handled above
	// via other.Members.Has(pe); the symmetric case (s a
	// Member, other expanded) still needs covering here.
	for key, c := range other.Children {
		pe := c.pathElement
		if _, already := out.Children[key]; already {
			continue
		}
		if s.Members.Has(pe) && !other.Members.Has(pe) {
			out.setChildSet(key, pe, c.set)
		}
	}
	return out
}

// Difference returns the paths present in s but not in other. An
// atomic Member on other's side removes the whole matching subtree
// from s, even if s only expressed part of it as Children: a field
// claimed as indivisible can't be partially subtracted back out.
func (s *Set) Difference(other *Set) *Set {
	if s == nil {
		return &Set{}
	}
	if other == nil {
		other = &Set{}
	}
	out := &Set{Members: s.Members.difference(other.Members)}

	for key, c := range s.Children {
		pe := c.pathElement
		if other.Members.Has(pe) {
			continue // whole subtree removed
		}
		oc, ok := other.child(pe)
		if !ok {
			out.setChildSet(key, pe, c.set)
			continue
		}
		child := c.set.Difference(oc)
		if !child.Empty() {
			out.setChildSet(key, pe, child)
		}
	}
	// s.Members that the other side only partially expands can't be
	// decomposed without the schema, so they survive untouched; they
	// are already copied into out.Members above.
	return out
}

func (s *Set) setChildSet(key string, pe PathElement, child *Set) {
	if s.Children == nil {
		s.Children = map[string]*setChild{}
	}
	s.Children[key] = &setChild{pathElement: pe, set: child}
}
