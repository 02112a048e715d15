package bowgo

import (
	"github.com/hupe1980/bowgo/codec"
	"github.com/hupe1980/bowgo/persistence"
)

// Export serializes the vocabulary with a codec (YAML or JSON) for
// interchange with other tooling. The binary Save format is preferred for
// storage; Export trades size and speed for a human-readable tree.
func (v *Vocabulary) Export(c codec.Codec) ([]byte, error) {
	return c.Marshal(v.snapshot())
}

// ImportVocabulary rebuilds a vocabulary from its Export form.
func ImportVocabulary(data []byte, c codec.Codec) (*Vocabulary, error) {
	var snap persistence.VocabularySnapshot
	if err := c.Unmarshal(data, &snap); err != nil {
		return nil, translateSnapshotError(err)
	}
	return vocabularyFromSnapshot(&snap)
}
