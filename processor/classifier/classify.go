package classifier

import "github.com/c360studio/ontokn/triple"

// Classify routes every statement of a document into exactly one bucket.
// Nothing is dropped: Total equals len(triples) on return.
func Classify(document string, triples []triple.Triple) *TripleTypeSets {
	s := &TripleTypeSets{
		Document:       document,
		BlankBySubject: make(map[BlankKey][]triple.Triple),
		BlankByObject:  make(map[BlankKey][]triple.Triple),
		Total:          len(triples),
	}

	for _, t := range triples {
		sb, ob := t.Subject.IsBlank(), t.Object.IsBlank()
		switch {
		case sb && ob:
			s.BlankBlank = append(s.BlankBlank, t)
		case sb:
			k := s.Key(t.Subject)
			if _, ok := s.BlankBySubject[k]; !ok {
				s.subjectOrder = append(s.subjectOrder, k)
			}
			s.BlankBySubject[k] = append(s.BlankBySubject[k], t)
		case ob:
			k := s.Key(t.Object)
			if _, ok := s.BlankByObject[k]; !ok {
				s.objectOrder = append(s.objectOrder, k)
			}
			s.BlankByObject[k] = append(s.BlankByObject[k], t)
		default:
			s.NamedNamed = append(s.NamedNamed, t)
		}
	}

	return s
}

// Counts tallies statements by (subject kind, object kind).
type Counts map[[2]triple.Kind]int

// Count returns the node-kind combination counts of triples.
func Count(triples []triple.Triple) Counts {
	c := make(Counts)
	for _, t := range triples {
		c[[2]triple.Kind{t.Subject.Kind, t.Object.Kind}]++
	}
	return c
}
