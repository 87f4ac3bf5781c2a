package dts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateName is returned when two declarations flatten to the same
// name, e.g. a message A_B next to a message B nested in A.
var ErrDuplicateName = errors.New("duplicate flattened name")

// separator joins the segments of a flattened name.
const separator = "_"

type symbolKind int

const (
	symbolNone symbolKind = iota
	symbolMessage
	symbolEnum
)

func (k symbolKind) String() string {
	switch k {
	case symbolMessage:
		return "message"
	case symbolEnum:
		return "enum"
	default:
		return "none"
	}
}

// flatten joins scope segments into a flattened name.
func flatten(segments ...string) string {
	return strings.Join(segments, separator)
}

// symbols is the table of every declared message and enum keyed by its
// flattened name.
type symbols struct {
	kinds map[string]symbolKind
}

func newSymbols() *symbols {
	return &symbols{kinds: make(map[string]symbolKind)}
}

func (s *symbols) declare(name string, kind symbolKind) error {
	if prev, ok := s.kinds[name]; ok {
		return fmt.Errorf("%w: %s %s collides with %s %s", ErrDuplicateName, kind, name, prev, name)
	}
	s.kinds[name] = kind
	return nil
}

// resolve looks ref up from the scope of the message at scope, innermost
// first. For scope [A B C] and ref X the candidates are A_B_C_X, A_B_X, A_X
// and finally X. Dotted references are flattened first, so B.X is looked up as
// A_B_C_B_X, A_B_B_X, A_B_X, B_X.
//
// It returns the first declared candidate and its kind, or ref itself and
// symbolNone when nothing matches.
func (s *symbols) resolve(scope []string, ref string) (string, symbolKind) {
	target := flatten(strings.Split(strings.TrimPrefix(ref, "."), ".")...)
	for depth := len(scope); depth >= 0; depth-- {
		candidate := flatten(append(scope[:depth:depth], target)...)
		if kind, ok := s.kinds[candidate]; ok {
			return candidate, kind
		}
	}
	return ref, symbolNone
}
