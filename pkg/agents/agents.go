// Package agents assembles the tool registry and instructions for each demo
// day and runs tool calls against them.
package agents

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harunnryd/voicedays/pkg/agents/fraudline"
	"github.com/harunnryd/voicedays/pkg/agents/gamemaster"
	"github.com/harunnryd/voicedays/pkg/agents/instamart"
	"github.com/harunnryd/voicedays/pkg/agents/merchant"
	"github.com/harunnryd/voicedays/pkg/agents/tutorcoach"
	"github.com/harunnryd/voicedays/pkg/commerce"
	"github.com/harunnryd/voicedays/pkg/errorsx"
	"github.com/harunnryd/voicedays/pkg/fraud"
	"github.com/harunnryd/voicedays/pkg/game"
	"github.com/harunnryd/voicedays/pkg/grocery"
	"github.com/harunnryd/voicedays/pkg/llm"
	"github.com/harunnryd/voicedays/pkg/tutor"
)

type Day string

const (
	DayTutor    Day = "tutor"
	DayCommerce Day = "commerce"
	DayFraud    Day = "fraud"
	DayGrocery  Day = "grocery"
	DayGame     Day = "game"
)

var ErrUnknownDay = errorsx.New(errorsx.ReasonInvalidArgument, "unknown agent day")

var dayAliases = map[string]Day{
	"tutor":     DayTutor,
	"4":         DayTutor,
	"commerce":  DayCommerce,
	"merchant":  DayCommerce,
	"5":         DayCommerce,
	"fraud":     DayFraud,
	"6":         DayFraud,
	"grocery":   DayGrocery,
	"instamart": DayGrocery,
	"7":         DayGrocery,
	"game":      DayGame,
	"8":         DayGame,
}

// Days lists the supported days in demo order.
func Days() []Day { return []Day{DayTutor, DayCommerce, DayFraud, DayGrocery, DayGame} }

// ParseDay accepts a day name, an alias or the day number.
func ParseDay(s string) (Day, error) {
	if d, ok := dayAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDay, s)
}

// Deps holds the long-lived stores shared by every session. Only the stores
// a day needs must be set.
type Deps struct {
	GroceryCatalog *grocery.Catalog
	Orders         *grocery.OrderStore
	Recipes        []grocery.Recipe
	Commerce       *commerce.Store
	Fraud          *fraud.Database
	Tutor          *tutor.Library
	GameStyle      string
	Dice           game.Random
	Logger         *slog.Logger
}

// Session is what one voice session runs with. Build returns fresh
// per-session state on every call.
type Session struct {
	Day          Day
	Instructions string
	Registry     llm.ToolRegistry
}

func Build(day Day, deps Deps) (Session, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := Session{Day: day}
	switch day {
	case DayGrocery:
		if deps.Orders == nil {
			return Session{}, errors.New("grocery day requires an order store")
		}
		s.Instructions = instamart.Instructions
		s.Registry = instamart.NewRegistry(instamart.Deps{
			Catalog: deps.GroceryCatalog,
			Orders:  deps.Orders,
			Recipes: deps.Recipes,
			Logger:  logger,
		})
	case DayCommerce:
		if deps.Commerce == nil {
			return Session{}, errors.New("commerce day requires a store")
		}
		s.Instructions = merchant.Instructions
		s.Registry = merchant.NewRegistry(deps.Commerce)
	case DayFraud:
		if deps.Fraud == nil {
			return Session{}, errors.New("fraud day requires a case database")
		}
		s.Instructions = fraudline.Instructions
		s.Registry = fraudline.NewRegistry(deps.Fraud, logger)
	case DayGame:
		var opts []game.Option
		if deps.Dice != nil {
			opts = append(opts, game.WithRandom(deps.Dice))
		}
		s.Instructions = gamemaster.Instructions(deps.GameStyle)
		s.Registry = gamemaster.NewRegistry(game.NewWorld(opts...))
	case DayTutor:
		s.Instructions = tutorcoach.Instructions
		s.Registry = tutorcoach.NewRegistry(deps.Tutor)
	default:
		return Session{}, fmt.Errorf("%w: %q", ErrUnknownDay, day)
	}
	return s, nil
}

// Prompt returns the default instructions for day.
func Prompt(day Day) string {
	switch day {
	case DayGrocery:
		return instamart.Instructions
	case DayCommerce:
		return merchant.Instructions
	case DayFraud:
		return fraudline.Instructions
	case DayGame:
		return gamemaster.Instructions("")
	case DayTutor:
		return tutorcoach.Instructions
	}
	return ""
}
