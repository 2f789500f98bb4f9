// Package classifier partitions the statements of one document by the
// blankness of their subject and object.
//
// The resulting TripleTypeSets is the working state of a document while it
// is cleaned: the flattener consumes anonymous groups from it and adds the
// named/named statements it synthesizes. The conservation invariant
// (see Verify) holds after every mutation.
package classifier

import (
	"fmt"

	"github.com/c360studio/ontokn/triple"
)

// BlankKey identifies an anonymous node. Blank node ids are only unique
// within a document, so the document is part of the key.
type BlankKey struct {
	Document string
	Node     string
}

func (k BlankKey) String() string {
	return k.Document + "/_:" + k.Node
}

// TripleTypeSets holds the statements of one document bucketed by node kind.
type TripleTypeSets struct {
	Document string

	// NamedNamed holds statements with no blank subject or object, including
	// the statements synthesized by flattening.
	NamedNamed []triple.Triple

	// BlankBySubject groups statements whose subject is blank and object is
	// not, keyed by the subject.
	BlankBySubject map[BlankKey][]triple.Triple

	// BlankByObject groups statements whose object is blank and subject is
	// not, keyed by the object.
	BlankByObject map[BlankKey][]triple.Triple

	// BlankBlank holds statements whose subject and object are both blank.
	BlankBlank []triple.Triple

	// Linking holds blank/blank statements that pointed into a group that
	// has since been flattened.
	Linking []triple.Triple

	// Flattened holds the original statements consumed by flattening.
	Flattened []triple.Triple

	// Total is the number of input statements plus every statement emitted
	// by flattening.
	Total int

	subjectOrder []BlankKey
	objectOrder  []BlankKey
}

// Size returns the number of statements currently held across all buckets.
func (s *TripleTypeSets) Size() int {
	n := len(s.NamedNamed) + len(s.BlankBlank) + len(s.Linking) + len(s.Flattened)
	for _, g := range s.BlankBySubject {
		n += len(g)
	}
	for _, g := range s.BlankByObject {
		n += len(g)
	}
	return n
}

// InvariantError reports a bookkeeping mismatch between the buckets and
// Total. It is a warning: processing continues and the count is not
// corrected.
type InvariantError struct {
	Document string
	Stage    string
	Size     int
	Total    int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("triple count mismatch in %s after %s: buckets hold %d, total is %d",
		e.Document, e.Stage, e.Size, e.Total)
}

// Verify checks that the buckets account for exactly Total statements.
func (s *TripleTypeSets) Verify(stage string) error {
	if size := s.Size(); size != s.Total {
		return &InvariantError{Document: s.Document, Stage: stage, Size: size, Total: s.Total}
	}
	return nil
}

// SubjectKeys returns the keys of BlankBySubject in first-seen order.
func (s *TripleTypeSets) SubjectKeys() []BlankKey {
	keys := make([]BlankKey, 0, len(s.BlankBySubject))
	for _, k := range s.subjectOrder {
		if _, ok := s.BlankBySubject[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// ObjectKeys returns the keys of BlankByObject in first-seen order.
func (s *TripleTypeSets) ObjectKeys() []BlankKey {
	keys := make([]BlankKey, 0, len(s.BlankByObject))
	for _, k := range s.objectOrder {
		if _, ok := s.BlankByObject[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Key builds the blank key of n within this document.
func (s *TripleTypeSets) Key(n triple.Node) BlankKey {
	return BlankKey{Document: s.Document, Node: n.Value}
}

// Canonicalize appends every object-keyed group whose key is also a
// subject-keyed group to the subject group, so each anonymous node's
// neighborhood lives in one place.
func (s *TripleTypeSets) Canonicalize() int {
	merged := 0
	for _, k := range s.ObjectKeys() {
		if _, ok := s.BlankBySubject[k]; !ok {
			continue
		}
		s.BlankBySubject[k] = append(s.BlankBySubject[k], s.BlankByObject[k]...)
		delete(s.BlankByObject, k)
		merged++
	}
	return merged
}

// Apply updates one subject group in a single step: the consumed statements
// move from the group to Flattened, and the emitted statements are added to
// NamedNamed and counted in Total. A group left empty is removed.
func (s *TripleTypeSets) Apply(key BlankKey, consumed, emitted []triple.Triple) {
	group := s.BlankBySubject[key]
	drop := make(map[triple.Triple]struct{}, len(consumed))
	for _, t := range consumed {
		drop[t] = struct{}{}
	}

	kept := group[:0:0]
	for _, t := range group {
		if _, ok := drop[t]; ok {
			s.Flattened = append(s.Flattened, t)
			continue
		}
		kept = append(kept, t)
	}

	if len(kept) == 0 {
		delete(s.BlankBySubject, key)
	} else {
		s.BlankBySubject[key] = kept
	}

	s.NamedNamed = append(s.NamedNamed, emitted...)
	s.Total += len(emitted)
}

// Statements returns NamedNamed in order without repeats. Flattening can
// emit a statement the document already states directly.
func (s *TripleTypeSets) Statements() []triple.Triple {
	seen := make(map[triple.Triple]struct{}, len(s.NamedNamed))
	out := make([]triple.Triple, 0, len(s.NamedNamed))
	for _, t := range s.NamedNamed {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// MoveLinking moves blank/blank statements whose object is one of keys to
// Linking and returns how many moved.
func (s *TripleTypeSets) MoveLinking(keys map[BlankKey]struct{}) int {
	if len(keys) == 0 {
		return 0
	}
	kept := s.BlankBlank[:0:0]
	moved := 0
	for _, t := range s.BlankBlank {
		if _, ok := keys[s.Key(t.Object)]; ok {
			s.Linking = append(s.Linking, t)
			moved++
			continue
		}
		kept = append(kept, t)
	}
	s.BlankBlank = kept
	return moved
}
