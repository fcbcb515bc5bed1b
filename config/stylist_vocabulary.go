package config

import (
	_ "embed"
	"fmt"
	"os"

	"stylist_server/core/domain"

	"github.com/goccy/go-json"
)

//go:embed vocabulary.json
var defaultVocabulary []byte

// LoadVocabulary reads the matching tables from path, or the embedded
// defaults when path is empty.
func LoadVocabulary(path string) (*domain.Vocabulary, error) {
	data := defaultVocabulary
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
		}
		data = raw
	}
	return ParseVocabulary(data)
}

// ParseVocabulary decodes and validates a vocabulary document.
func ParseVocabulary(data []byte) (*domain.Vocabulary, error) {
	var vocab domain.Vocabulary
	if err := json.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	if err := vocab.Prepare(); err != nil {
		return nil, err
	}
	return &vocab, nil
}

// DefaultVocabulary returns the embedded tables. It panics if they are invalid.
func DefaultVocabulary() *domain.Vocabulary {
	vocab, err := ParseVocabulary(defaultVocabulary)
	if err != nil {
		panic(err)
	}
	return vocab
}
