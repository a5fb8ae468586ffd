package show

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads, parses, and validates a show document from a JSON file.
func Load(path string) (*Show, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read show: %w", err)
	}
	var s Show
	if err := json.Unmarshal(buf, &s); err != nil {
		return nil, fmt.Errorf("parse show: %w", err)
	}
	for i := range s.Sequences {
		s.Sequences[i] = s.Sequences[i].Validated()
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validate show: %w", err)
	}
	return &s, nil
}

// Save writes the document as indented JSON. The write is not atomic; the
// session only calls it from the UI event loop.
func (s *Show) Save(path string) error {
	buf, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode show: %w", err)
	}
	if err := os.WriteFile(path, append(buf, '\n'), 0o644); err != nil {
		return fmt.Errorf("write show: %w", err)
	}
	return nil
}
