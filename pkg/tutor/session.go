package tutor

import (
	"fmt"
	"strings"

	"github.com/harunnryd/voicedays/pkg/errorsx"
)

type Mode string

const (
	ModeLearn     Mode = "learn"
	ModeQuiz      Mode = "quiz"
	ModeTeachBack Mode = "teach_back"
)

var ErrUnknownMode = errorsx.New(errorsx.ReasonInvalidArgument, "unknown learning mode")

// Persona is the voice the platform should use for a mode.
type Persona struct {
	Voice   string `json:"voice"`
	Display string `json:"display"`
	Style   string `json:"style"`
}

var personas = map[Mode]Persona{
	ModeLearn:     {Voice: "en-US-matthew", Display: "Matthew", Style: "calm, encouraging explanations"},
	ModeQuiz:      {Voice: "en-US-alicia", Display: "Alicia", Style: "energetic quiz master"},
	ModeTeachBack: {Voice: "en-US-ken", Display: "Ken", Style: "supportive coach who listens closely"},
}

func Modes() []Mode { return []Mode{ModeLearn, ModeQuiz, ModeTeachBack} }

func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := personas[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

func PersonaFor(m Mode) (Persona, bool) {
	p, ok := personas[m]
	return p, ok
}

// Mastery counts how often a concept was studied in each mode.
type Mastery struct {
	TimesLearned    int    `json:"times_learned"`
	TimesQuizzed    int    `json:"times_quizzed"`
	TimesTaughtBack int    `json:"times_taught_back"`
	LastScore       *int   `json:"last_score"`
	LastFeedback    string `json:"last_feedback,omitempty"`
}

// Session is one learner's state. It is not safe for concurrent use.
type Session struct {
	library *Library
	mode    Mode
	current string
	mastery map[string]*Mastery
}

// NewSession starts focused on the first concept with no mode chosen.
func NewSession(library *Library) *Session {
	return &Session{
		library: library,
		current: library.order[0],
		mastery: make(map[string]*Mastery),
	}
}

func (s *Session) Library() *Library { return s.library }
func (s *Session) Mode() Mode        { return s.mode }

func (s *Session) SetMode(raw string) (Persona, error) {
	m, err := ParseMode(raw)
	if err != nil {
		return Persona{}, err
	}
	s.mode = m
	return personas[m], nil
}

func (s *Session) Current() Concept {
	c, _ := s.library.Get(s.current)
	return c
}

func (s *Session) Focus(id string) (Concept, error) {
	c, err := s.library.Get(id)
	if err != nil {
		return Concept{}, err
	}
	s.current = c.ID
	s.ensure(c.ID)
	return c, nil
}

// Advance moves to the next concept in library order.
func (s *Session) Advance() Concept {
	s.current = s.library.Next(s.current)
	s.ensure(s.current)
	return s.Current()
}

func (s *Session) ensure(id string) *Mastery {
	m, ok := s.mastery[id]
	if !ok {
		m = &Mastery{}
		s.mastery[id] = m
	}
	return m
}

// Describe returns the current concept for learn mode and counts it.
func (s *Session) Describe() Concept {
	c := s.Current()
	s.ensure(c.ID).TimesLearned++
	return c
}

func (s *Session) QuizPrompt() Concept {
	c := s.Current()
	s.ensure(c.ID).TimesQuizzed++
	return c
}

func (s *Session) TeachBackPrompt() Concept {
	c := s.Current()
	s.ensure(c.ID).TimesTaughtBack++
	return c
}

// Record stores a score and feedback for conceptID, or the current concept
// when it is empty. Scores are clamped to 0..100.
func (s *Session) Record(mode, conceptID string, score *int, feedback string) (string, Mastery, error) {
	if _, err := ParseMode(mode); err != nil {
		return "", Mastery{}, err
	}
	if conceptID == "" {
		conceptID = s.current
	}
	c, err := s.library.Get(conceptID)
	if err != nil {
		return "", Mastery{}, err
	}
	m := s.ensure(c.ID)
	if score != nil {
		v := min(100, max(0, *score))
		m.LastScore = &v
	}
	if f := strings.TrimSpace(feedback); f != "" {
		m.LastFeedback = f
	}
	return c.ID, *m, nil
}

// Mastery returns the counters for a concept; unseen concepts read as zero.
func (s *Session) Mastery(id string) Mastery {
	if m, ok := s.mastery[id]; ok {
		return *m
	}
	return Mastery{}
}

// Weakest returns the studied concept with the lowest last score.
func (s *Session) Weakest() (Concept, bool) {
	var best Concept
	bestScore := 101
	for _, c := range s.library.List() {
		m, ok := s.mastery[c.ID]
		if !ok || m.LastScore == nil {
			continue
		}
		if *m.LastScore < bestScore {
			best, bestScore = c, *m.LastScore
		}
	}
	return best, bestScore <= 100
}
