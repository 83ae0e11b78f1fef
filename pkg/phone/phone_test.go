package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizer_Format(t *testing.T) {
	tests := []struct {
		name      string
		region    string
		phone     string
		want      string
		wantError bool
	}{
		{
			name:   "US number with formatting",
			region: "US",
			phone:  "(202) 456-1111",
			want:   "+1 202-456-1111",
		},
		{
			name:   "Already international",
			region: "US",
			phone:  "+12024561111",
			want:   "+1 202-456-1111",
		},
		{
			name:   "GB mobile",
			region: "gb",
			phone:  "07911 123456",
			want:   "+44 7911 123456",
		},
		{
			name:      "Too short",
			region:    "US",
			phone:     "123",
			wantError: true,
		},
		{
			name:      "Empty",
			region:    "US",
			phone:     "   ",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewNormalizer(tt.region).Format(tt.phone)
			if tt.wantError {
				assert.Error(t, err)
				assert.Empty(t, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizer_NormalizeKeepsUnparseable(t *testing.T) {
	n := NewNormalizer("")

	assert.Equal(t, "US", n.Region())
	assert.Equal(t, "+1 202-456-1111", n.Normalize(" 202.456.1111 "))
	assert.Equal(t, "ext 42", n.Normalize(" ext 42 "))
	assert.Equal(t, "", n.Normalize(""))
}
