// Package labelspace defines the ordered, immutable set of Gene Ontology terms
// that fixes the column order of every label and score matrix of a model.
package labelspace

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmpty         = errors.New("labelspace: no terms")
	ErrEmptyTerm     = errors.New("labelspace: empty term")
	ErrDuplicateTerm = errors.New("labelspace: duplicate term")
	ErrNoRows        = errors.New("labelspace: no rows")
	ErrWidth         = errors.New("labelspace: matrix width does not match label space")
)

// LabelSpace maps each term to a stable column index. It is never mutated
// after construction and is safe to share between goroutines.
type LabelSpace struct {
	terms []string
	index map[string]int
}

// New builds a label space keeping the given order.
func New(terms []string) (*LabelSpace, error) {
	if len(terms) == 0 {
		return nil, ErrEmpty
	}

	s := &LabelSpace{
		terms: make([]string, len(terms)),
		index: make(map[string]int, len(terms)),
	}
	for i, term := range terms {
		if strings.TrimSpace(term) == "" {
			return nil, fmt.Errorf("%w at position %d", ErrEmptyTerm, i)
		}
		if prev, ok := s.index[term]; ok {
			return nil, fmt.Errorf("%w %q at positions %d and %d", ErrDuplicateTerm, term, prev, i)
		}
		s.terms[i] = term
		s.index[term] = i
	}
	return s, nil
}

// FromAnnotations builds a label space from per-example term lists: the sorted
// set of every distinct non-blank term.
func FromAnnotations(rows [][]string) (*LabelSpace, error) {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for _, term := range row {
			term = strings.TrimSpace(term)
			if term == "" {
				continue
			}
			seen[term] = struct{}{}
		}
	}

	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	slices.Sort(terms)

	return New(terms)
}

func (s *LabelSpace) Len() int {
	return len(s.terms)
}

// Term returns the term of column i.
func (s *LabelSpace) Term(i int) string {
	return s.terms[i]
}

func (s *LabelSpace) Index(term string) (int, bool) {
	i, ok := s.index[term]
	return i, ok
}

// Terms returns a copy of the ordered terms.
func (s *LabelSpace) Terms() []string {
	return slices.Clone(s.terms)
}

// Equal reports whether both spaces have the same terms in the same order.
func (s *LabelSpace) Equal(o *LabelSpace) bool {
	if s == nil || o == nil {
		return s == o
	}
	return slices.Equal(s.terms, o.terms)
}

// Fingerprint is a short hex digest of the ordered terms. Two spaces with the
// same fingerprint produce identically aligned matrices.
func (s *LabelSpace) Fingerprint() string {
	h := sha256.New()
	for _, term := range s.terms {
		h.Write([]byte(term))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)[:12])
}

// Encode builds the binary label matrix of the given term lists. Terms outside
// the space are skipped.
func (s *LabelSpace) Encode(rows [][]string) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	y := mat.NewDense(len(rows), len(s.terms), nil)
	unknown := 0
	for i, row := range rows {
		for _, term := range row {
			j, ok := s.index[strings.TrimSpace(term)]
			if !ok {
				unknown++
				continue
			}
			y.Set(i, j, 1)
		}
	}

	if unknown > 0 {
		log.Warn().Int("unknown", unknown).Int("rows", len(rows)).Msg("ignored terms outside the label space")
	}
	return y, nil
}

// Decode returns the terms set in each row of y.
func (s *LabelSpace) Decode(y mat.Matrix) ([][]string, error) {
	rows, cols := y.Dims()
	if cols != len(s.terms) {
		return nil, fmt.Errorf("%w: %d columns, %d terms", ErrWidth, cols, len(s.terms))
	}

	out := make([][]string, rows)
	for i := range rows {
		terms := []string{}
		for j := range cols {
			if y.At(i, j) != 0 {
				terms = append(terms, s.terms[j])
			}
		}
		out[i] = terms
	}
	return out, nil
}
