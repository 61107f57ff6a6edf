// Package tutorcoach exposes the active recall tutor as tools. Switching mode
// changes the persona the platform should speak with.
package tutorcoach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harunnryd/voicedays/pkg/configutil"
	"github.com/harunnryd/voicedays/pkg/llm"
	"github.com/harunnryd/voicedays/pkg/tutor"
)

const Instructions = `You are Teach-the-Tutor, an active recall coach for beginner programming concepts.
Greet the learner and ask which mode they want: learn, quiz or teach_back. Call set_learning_mode before any content,
and again whenever they switch; adopt the voice and style the tool returns.
Work on one concept at a time: offer list_concepts, then lock the choice with set_focus_concept.
In learn mode use describe_current_concept, in quiz mode get_quiz_prompt and ask one question at a time,
in teach_back mode use get_teach_back_prompt, listen, then score the explanation from 0 to 100 with coaching feedback.
After each interaction call record_mastery_event. Use get_mastery_snapshot or get_weakest_concept when asked about progress.
Keep replies short and explain any jargon.`

type Registry struct {
	*llm.Registry
	session *tutor.Session
}

func NewRegistry(library *tutor.Library) *Registry {
	if library == nil {
		library = tutor.DefaultLibrary()
	}
	r := &Registry{Registry: llm.NewRegistry(), session: tutor.NewSession(library)}
	modes := make([]string, 0, len(tutor.Modes()))
	for _, m := range tutor.Modes() {
		modes = append(modes, string(m))
	}

	r.Register(llm.Tool{
		Name:        "list_concepts",
		Description: "List the concepts the learner can pick from.",
		Schema:      llm.Object(nil),
	}, r.listConcepts)
	r.Register(llm.Tool{
		Name:        "set_focus_concept",
		Description: "Make a concept the active one.",
		Schema:      llm.Object(map[string]any{"concept_id": llm.String("Concept id from list_concepts.")}, "concept_id"),
	}, r.setFocus)
	r.Register(llm.Tool{
		Name:        "describe_current_concept",
		Description: "Get the summary of the active concept for learn mode.",
		Schema:      llm.Object(nil),
	}, r.describe)
	r.Register(llm.Tool{
		Name:        "get_quiz_prompt",
		Description: "Get a quiz question for the active concept.",
		Schema:      llm.Object(nil),
	}, r.quizPrompt)
	r.Register(llm.Tool{
		Name:        "get_teach_back_prompt",
		Description: "Get the teach back prompt for the active concept.",
		Schema:      llm.Object(nil),
	}, r.teachBackPrompt)
	r.Register(llm.Tool{
		Name:        "set_learning_mode",
		Description: "Switch learning mode and persona.",
		Schema:      llm.Object(map[string]any{"mode": llm.Enum("Learning mode.", modes...)}, "mode"),
	}, r.setMode)
	r.Register(llm.Tool{
		Name:        "record_mastery_event",
		Description: "Store the outcome of an interaction.",
		Schema: llm.Object(map[string]any{
			"mode":       llm.Enum("Mode the interaction used.", modes...),
			"concept_id": llm.String("Concept id, the active one when empty."),
			"score":      llm.Integer("Score from 0 to 100."),
			"feedback":   llm.String("Short coaching feedback."),
		}, "mode"),
	}, r.record)
	r.Register(llm.Tool{
		Name:        "get_mastery_snapshot",
		Description: "Summarise progress for one concept or all of them.",
		Schema:      llm.Object(map[string]any{"concept_id": llm.String("Concept id; empty means all.")}),
	}, r.snapshot)
	r.Register(llm.Tool{
		Name:        "get_weakest_concept",
		Description: "Find the scored concept with the lowest last score.",
		Schema:      llm.Object(nil),
	}, r.weakest)
	r.Register(llm.Tool{
		Name:        "advance_to_next_concept",
		Description: "Move on to the next concept.",
		Schema:      llm.Object(nil),
	}, r.advance)
	return r
}

func (r *Registry) Session() *tutor.Session { return r.session }

type tutorArgs struct {
	ConceptID string `mapstructure:"concept_id"`
	Mode      string `mapstructure:"mode"`
	Score     *int   `mapstructure:"score"`
	Feedback  string `mapstructure:"feedback"`
}

func decode(raw map[string]any) (tutorArgs, error) {
	var args tutorArgs
	err := configutil.DecodeArgs(raw, &args)
	return args, err
}

func conceptError(err error, id string) error {
	if errors.Is(err, tutor.ErrUnknownConcept) {
		return llm.UserError(err, "There is no concept called %q. Use list_concepts to see the options.", id)
	}
	return err
}

func modeError(err error, mode string) error {
	if errors.Is(err, tutor.ErrUnknownMode) {
		return llm.UserError(err, "Unsupported mode %q. Choose learn, quiz or teach_back.", mode)
	}
	return err
}

func (r *Registry) listConcepts(context.Context, map[string]any) (string, error) {
	concepts := r.session.Library().List()
	parts := make([]string, 0, len(concepts))
	for _, c := range concepts {
		parts = append(parts, fmt.Sprintf("%s (%s)", c.ID, c.Title))
	}
	return "Available concepts: " + strings.Join(parts, ", ") + ".", nil
}

func (r *Registry) setFocus(_ context.Context, raw map[string]any) (string, error) {
	args, err := decode(raw)
	if err != nil {
		return "", err
	}
	c, err := r.session.Focus(args.ConceptID)
	if err != nil {
		return "", conceptError(err, args.ConceptID)
	}
	return fmt.Sprintf("Focused on %s.", c.Title), nil
}

func (r *Registry) describe(context.Context, map[string]any) (string, error) {
	c := r.session.Describe()
	return fmt.Sprintf("%s: %s", c.Title, c.Summary), nil
}

func (r *Registry) quizPrompt(context.Context, map[string]any) (string, error) {
	c := r.session.QuizPrompt()
	return fmt.Sprintf("Quiz question on %s: %s", c.Title, c.SampleQuestion), nil
}

func (r *Registry) teachBackPrompt(context.Context, map[string]any) (string, error) {
	c := r.session.TeachBackPrompt()
	return "Ask the learner to teach this back: " + c.TeachBackPrompt, nil
}

func (r *Registry) setMode(_ context.Context, raw map[string]any) (string, error) {
	args, err := decode(raw)
	if err != nil {
		return "", err
	}
	p, err := r.session.SetMode(args.Mode)
	if err != nil {
		return "", modeError(err, args.Mode)
	}
	return fmt.Sprintf("Now in %s mode. Speak as %s (voice %s): %s.", r.session.Mode(), p.Display, p.Voice, p.Style), nil
}

func (r *Registry) record(_ context.Context, raw map[string]any) (string, error) {
	args, err := decode(raw)
	if err != nil {
		return "", err
	}
	id, m, err := r.session.Record(args.Mode, args.ConceptID, args.Score, args.Feedback)
	if err != nil {
		if errors.Is(err, tutor.ErrUnknownMode) {
			return "", modeError(err, args.Mode)
		}
		return "", conceptError(err, args.ConceptID)
	}
	return fmt.Sprintf("Recorded %s for %s. Last score %s.", args.Mode, id, score(m.LastScore)), nil
}

func score(v *int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *v)
}

func (r *Registry) snapshot(_ context.Context, raw map[string]any) (string, error) {
	args, err := decode(raw)
	if err != nil {
		return "", err
	}
	concepts := r.session.Library().List()
	if args.ConceptID != "" {
		c, err := r.session.Library().Get(args.ConceptID)
		if err != nil {
			return "", conceptError(err, args.ConceptID)
		}
		concepts = []tutor.Concept{c}
	}
	parts := make([]string, 0, len(concepts))
	for _, c := range concepts {
		m := r.session.Mastery(c.ID)
		line := fmt.Sprintf("%s: learned %d, quizzed %d, taught back %d, last score %s",
			c.Title, m.TimesLearned, m.TimesQuizzed, m.TimesTaughtBack, score(m.LastScore))
		if m.LastFeedback != "" {
			line += fmt.Sprintf(", feedback %q", m.LastFeedback)
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " | "), nil
}

func (r *Registry) weakest(context.Context, map[string]any) (string, error) {
	c, ok := r.session.Weakest()
	if !ok {
		return "Nothing has been scored yet.", nil
	}
	return fmt.Sprintf("The weakest concept is %s with a last score of %s.", c.Title, score(r.session.Mastery(c.ID).LastScore)), nil
}

func (r *Registry) advance(context.Context, map[string]any) (string, error) {
	c := r.session.Advance()
	return fmt.Sprintf("Moved on to %s.", c.Title), nil
}

var _ llm.ToolRegistry = (*Registry)(nil)
