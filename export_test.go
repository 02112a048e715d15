package bowgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bowgo/codec"
)

func TestExportImport(t *testing.T) {
	images := testImages(t, 8)
	voc := trainTestVocabulary(t, images)

	for _, name := range []string{"json", "yaml"} {
		t.Run(name, func(t *testing.T) {
			c, ok := codec.ByName(name)
			require.True(t, ok)

			data, err := voc.Export(c)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			imported, err := ImportVocabulary(data, c)
			require.NoError(t, err)
			assert.Equal(t, voc.Words(), imported.Words())

			for _, img := range images[:3] {
				want, err := voc.Transform(img)
				require.NoError(t, err)
				got, err := imported.Transform(img)
				require.NoError(t, err)
				assert.True(t, want.Equal(got))
			}
		})
	}
}

func TestImportInvalid(t *testing.T) {
	_, err := ImportVocabulary([]byte("{"), codec.JSON{})
	assert.ErrorIs(t, err, ErrCorruptSnapshot)

	// Well-formed document, structurally invalid vocabulary.
	_, err = ImportVocabulary([]byte("{}"), codec.JSON{})
	assert.ErrorIs(t, err, ErrInvalidVocabulary)
}
