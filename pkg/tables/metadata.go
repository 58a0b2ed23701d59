package tables

import (
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
)

const (
	comment = "comment"
)

// MetadataBuilder is a convenience type to aid readability of code that
// specifies metadata for Arrow types.
type MetadataBuilder struct {
	keys   []string
	values []string
}

func NewMetadataBuilder() *MetadataBuilder {
	return &MetadataBuilder{}
}

func (b *MetadataBuilder) Add(key, value string) *MetadataBuilder {
	b.keys = append(b.keys, key)
	b.values = append(b.values, value)
	return b
}

// AddInt records value in decimal.
func (b *MetadataBuilder) AddInt(key string, value int) *MetadataBuilder {
	return b.Add(key, strconv.Itoa(value))
}

// Build constructs and returns the arrow.Metadata.
func (b *MetadataBuilder) Build() arrow.Metadata {
	return arrow.NewMetadata(b.keys, b.values)
}

// BuildReference constructs and returns the arrow.Metadata result as a
// reference.
func (b *MetadataBuilder) BuildReference() *arrow.Metadata {
	result := b.Build()
	return &result
}

// MetadataValue returns the value stored under key, if any.
func MetadataValue(md arrow.Metadata, key string) (string, bool) {
	i := md.FindKey(key)
	if i < 0 {
		return "", false
	}
	return md.Values()[i], true
}

// MetadataInt parses the decimal value stored under key. Missing keys read as
// zero.
func MetadataInt(md arrow.Metadata, key string) (int, error) {
	value, found := MetadataValue(md, key)
	if !found {
		return 0, nil
	}
	return strconv.Atoi(value)
}
