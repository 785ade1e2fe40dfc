package model

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want DocumentType
	}{
		{"id_card", DocIDCard},
		{"ID-Card", DocIDCard},
		{" passport ", DocPassport},
		{"title deed", DocTitleDeed},
		{"commercial_license", DocCommercialLicense},
		{"trade-license", DocCommercialLicense},
		{"raw_text", DocRaw},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDocumentType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDocumentType_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := ParseDocumentType("driving_licence")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnsupportedDocumentType))
	assert.Contains(t, err.Error(), "driving_licence")
}

func TestAllDocumentTypesHaveSchemas(t *testing.T) {
	t.Parallel()

	for _, dt := range AllDocumentTypes() {
		s, ok := SchemaFor(dt)
		assert.True(t, ok, dt)
		assert.Equal(t, dt, s.Type)
	}
}

func TestMRZLayoutLines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, MRZTD1.Lines())
	assert.Equal(t, 2, MRZTD3.Lines())
	assert.Equal(t, 0, MRZNone.Lines())
}
