package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageBytesToURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AQID", ImageBytesToURL([]byte{1, 2, 3}, "image/png"))
	assert.Equal(t, "data:image/jpeg;base64,AQID", ImageBytesToURL([]byte{1, 2, 3}, ""))
	assert.Empty(t, ImageBytesToURL(nil, "image/png"))
}

func TestParseDataURL(t *testing.T) {
	ct, data, err := ParseDataURL("data:image/png;base64,AQID")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestParseDataURLInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "not a data url", in: "https://example.com/a.png"},
		{name: "missing separator", in: "data:image/png"},
		{name: "not base64 encoded", in: "data:text/plain;charset=utf-8,hello"},
		{name: "bad base64", in: "data:image/png;base64,!!!"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseDataURL(tc.in)
			assert.Error(t, err)
		})
	}
}
