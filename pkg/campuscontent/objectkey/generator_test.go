package objectkey

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOwnerTimestampGenerator(t *testing.T) {
	ts := time.UnixMilli(1700000000123)

	tests := []struct {
		name     string
		gen      *OwnerTimestampGenerator
		metadata *KeyMetadata
		expected string
	}{
		{
			name:     "note with extension",
			gen:      NewOwnerTimestampGenerator("notes", ".pdf"),
			metadata: &KeyMetadata{OwnerID: "uid42", Time: ts},
			expected: "notes/uid42-1700000000123.pdf",
		},
		{
			name:     "product without extension",
			gen:      NewOwnerTimestampGenerator("products", ""),
			metadata: &KeyMetadata{OwnerID: "uid42", Time: ts},
			expected: "products/uid42-1700000000123",
		},
		{
			name:     "owner sanitized",
			gen:      NewOwnerTimestampGenerator("products", ""),
			metadata: &KeyMetadata{OwnerID: "a/b c", Time: ts},
			expected: "products/a_b_c-1700000000123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.gen.GenerateKey(tt.metadata))
		})
	}
}

func TestTimestampGenerator(t *testing.T) {
	gen := NewTimestampGenerator("events")
	key := gen.GenerateKey(&KeyMetadata{OwnerID: "ignored", Time: time.UnixMilli(42)})
	assert.Equal(t, "events/42", key)

	assert.True(t, strings.HasPrefix(gen.GenerateKey(nil), "events/"))
}

func TestShardedGenerator(t *testing.T) {
	gen := NewShardedGenerator("uploads")
	a := gen.GenerateKey(&KeyMetadata{FileName: "my notes.pdf"})
	b := gen.GenerateKey(&KeyMetadata{FileName: "my notes.pdf"})

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "uploads/objects/"))
	assert.True(t, strings.HasSuffix(a, "_my_notes.pdf"))

	parts := strings.Split(a, "/")
	assert.Len(t, parts, 4)
	assert.Len(t, parts[2], 2)
}

func TestCustomFuncGenerator(t *testing.T) {
	gen := NewCustomFuncGenerator(func(m *KeyMetadata) string { return "fixed/" + m.OwnerID })
	assert.Equal(t, "fixed/u1", gen.GenerateKey(&KeyMetadata{OwnerID: "u1"}))
}
