package persona

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store exposes persona retrieval for sessions and HTTP handlers.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the configured personas.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

type profileFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadFile reads personas from a YAML profile file of the form
//
//	personas:
//	  - id: konnect
//	    name: Konnect Bot
//	    ...
func LoadFile(path string) ([]Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML persona profile.
func Parse(data []byte) ([]Persona, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode persona profile: %w", err)
	}
	if len(file.Personas) == 0 {
		return nil, errors.New("persona profile defines no personas")
	}

	seen := make(map[string]struct{}, len(file.Personas))
	for i := range file.Personas {
		p := &file.Personas[i]
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("persona #%d: id is required", i+1)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("persona %q defined twice", p.ID)
		}
		seen[p.ID] = struct{}{}
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("persona %q: name is required", p.ID)
		}
		for _, g := range p.EmotionGuidelines {
			if !g.Emotion.Valid() {
				return nil, fmt.Errorf("persona %q: unknown emotion %q in guidelines", p.ID, g.Emotion)
			}
		}
		if p.ReplyWordRange == [2]int{} {
			p.ReplyWordRange = [2]int{150, 200}
		}
	}
	return file.Personas, nil
}
