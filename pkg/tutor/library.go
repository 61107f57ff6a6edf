// Package tutor implements the teach-the-tutor day: a concept library and a
// per-session active recall state with learn, quiz and teach back modes.
package tutor

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/harunnryd/voicedays/pkg/errorsx"
)

//go:embed data/tutor_content.json
var defaultContent []byte

var ErrUnknownConcept = errorsx.New(errorsx.ReasonItemNotFound, "unknown concept")

type Concept struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Summary         string `json:"summary"`
	SampleQuestion  string `json:"sample_question"`
	TeachBackPrompt string `json:"teach_back_prompt"`
}

// Library is an ordered, read-only set of concepts.
type Library struct {
	byID  map[string]Concept
	order []string
}

func NewLibrary(concepts []Concept) (*Library, error) {
	if len(concepts) == 0 {
		return nil, errors.New("tutor library requires at least one concept")
	}
	l := &Library{byID: make(map[string]Concept, len(concepts))}
	for _, c := range concepts {
		if strings.TrimSpace(c.ID) == "" {
			return nil, errors.New("concept id is required")
		}
		if _, dup := l.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate concept id %s", c.ID)
		}
		l.byID[c.ID] = c
		l.order = append(l.order, c.ID)
	}
	return l, nil
}

// LoadLibrary reads concepts from a JSON file.
func LoadLibrary(path string) (*Library, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errorsx.Wrapf(err, errorsx.ReasonCatalogLoad, "read tutor content %s", path)
	}
	l, err := parseLibrary(raw)
	if err != nil {
		return nil, errorsx.Wrapf(err, errorsx.ReasonCatalogLoad, "parse tutor content %s", path)
	}
	return l, nil
}

func DefaultLibrary() *Library {
	l, err := parseLibrary(defaultContent)
	if err != nil {
		panic(fmt.Sprintf("tutor: embedded content: %v", err))
	}
	return l
}

func parseLibrary(raw []byte) (*Library, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var concepts []Concept
	if err := dec.Decode(&concepts); err != nil {
		return nil, err
	}
	return NewLibrary(concepts)
}

func (l *Library) List() []Concept {
	out := make([]Concept, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}

// Get returns the concept for id, or the first concept when id is empty.
func (l *Library) Get(id string) (Concept, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = l.order[0]
	}
	c, ok := l.byID[id]
	if !ok {
		return Concept{}, fmt.Errorf("%w: %s", ErrUnknownConcept, id)
	}
	return c, nil
}

// Next returns the id after current, wrapping around. An empty or unknown
// current id yields the first concept.
func (l *Library) Next(current string) string {
	for i, id := range l.order {
		if id == current {
			return l.order[(i+1)%len(l.order)]
		}
	}
	return l.order[0]
}
