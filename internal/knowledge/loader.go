package knowledge

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_knowledge.yaml
var defaultDocument []byte

type document struct {
	Vocabulary []string            `yaml:"vocabulary"`
	Conditions []conditionDocument `yaml:"conditions"`
}

type conditionDocument struct {
	Name        string   `yaml:"name"`
	Symptoms    []string `yaml:"symptoms"`
	Explanation string   `yaml:"explanation"`
	Guidance    string   `yaml:"guidance"`
}

// Parse decodes a YAML knowledge document. Unknown keys are rejected so that
// typos in the file surface at startup instead of silently dropping data.
func Parse(data []byte) (*KnowledgeBase, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidKnowledgeBase)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	parsed := document{}
	if err := decoder.Decode(&parsed); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: document is empty", ErrInvalidKnowledgeBase)
		}
		return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalidKnowledgeBase, err)
	}

	conditions := make([]Condition, 0, len(parsed.Conditions))
	for _, entry := range parsed.Conditions {
		conditions = append(conditions, Condition{
			Name:        entry.Name,
			Symptoms:    entry.Symptoms,
			Explanation: entry.Explanation,
			Guidance:    entry.Guidance,
		})
	}
	return New(conditions, parsed.Vocabulary)
}

func LoadFile(path string) (*KnowledgeBase, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge file: %w", err)
	}
	base, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return base, nil
}

// Default returns the knowledge base compiled into the binary.
func Default() (*KnowledgeBase, error) {
	return Parse(defaultDocument)
}

// Load resolves the configured knowledge source: the embedded document when
// path is empty, otherwise the file at path.
func Load(path string) (*KnowledgeBase, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}
