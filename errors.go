package bowgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/bowgo/persistence"
)

var (
	// ErrEmptyTrainingSet is returned by Train when no descriptors are
	// supplied.
	ErrEmptyTrainingSet = errors.New("empty training set")

	// ErrNoVocabulary is returned when a database is created without a
	// vocabulary.
	ErrNoVocabulary = errors.New("database has no vocabulary")

	// ErrCorruptSnapshot is returned when a persisted snapshot cannot be
	// decoded (truncation, bad magic, checksum mismatch, ...).
	ErrCorruptSnapshot = errors.New("corrupt persisted snapshot")

	// ErrInvalidVocabulary is returned when a snapshot decodes but its
	// vocabulary is structurally invalid (word ids out of range, broken
	// child ranges, unknown weighting scheme, ...).
	ErrInvalidVocabulary = errors.New("invalid vocabulary")

	// ErrScoringMismatch is returned when a snapshot carries a scoring
	// configuration this build does not know, or vectors built under
	// different scoring conventions are combined.
	ErrScoringMismatch = errors.New("scoring configuration mismatch")
)

// ErrInvalidParameters indicates bad vocabulary construction arguments.
// Rejected before any clustering work begins.
type ErrInvalidParameters struct {
	Branching int
	Levels    int
}

func (e *ErrInvalidParameters) Error() string {
	return fmt.Sprintf("invalid vocabulary parameters: branching factor %d, levels %d", e.Branching, e.Levels)
}

// translateSnapshotError maps low-level persistence errors onto the public
// error taxonomy.
func translateSnapshotError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrInvalidStructure) {
		return fmt.Errorf("%w: %w", ErrInvalidVocabulary, err)
	}
	return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
}
