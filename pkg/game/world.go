// Package game tracks the world state of the game master day: the player,
// NPCs, a small location graph, quests and an event log.
package game

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/harunnryd/voicedays/pkg/errorsx"
)

const (
	StatusHealthy  = "Healthy"
	StatusInjured  = "Injured"
	StatusCritical = "Critical"
)

const (
	TierFullSuccess    = "full_success"
	TierPartialSuccess = "partial_success"
	TierFail           = "fail"
)

const (
	QuestActive    = "active"
	QuestCompleted = "completed"
	QuestFailed    = "failed"
)

var (
	ErrUnknownLocation  = errorsx.New(errorsx.ReasonInvalidArgument, "unknown location")
	ErrNoPath           = errorsx.New(errorsx.ReasonInvalidArgument, "no path to that location")
	ErrUnknownAttribute = errorsx.New(errorsx.ReasonInvalidArgument, "unknown attribute")
	ErrUnknownQuest     = errorsx.New(errorsx.ReasonInvalidArgument, "unknown quest")
	ErrNotInInventory   = errorsx.New(errorsx.ReasonItemNotFound, "item not in inventory")
	ErrNotEnoughMana    = errorsx.New(errorsx.ReasonInvalidArgument, "not enough mana")

	ErrInvalidQuestStatus = errorsx.New(errorsx.ReasonInvalidArgument, "invalid quest status")
)

type Player struct {
	Name         string   `json:"name"`
	Class        string   `json:"class"`
	HP           int      `json:"hp"`
	MaxHP        int      `json:"max_hp"`
	Mana         int      `json:"mana"`
	MaxMana      int      `json:"max_mana"`
	Strength     int      `json:"strength"`
	Intelligence int      `json:"intelligence"`
	Luck         int      `json:"luck"`
	Inventory    []string `json:"inventory"`
	Status       string   `json:"status"`
}

func DefaultPlayer() Player {
	return Player{
		Name:         "Adventurer",
		Class:        "Warrior",
		HP:           100,
		MaxHP:        100,
		Mana:         50,
		MaxMana:      50,
		Strength:     10,
		Intelligence: 10,
		Luck:         10,
		Inventory:    []string{},
		Status:       StatusHealthy,
	}
}

// attribute returns the named stat used as a check modifier.
func (p Player) attribute(name string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "strength", "str":
		return p.Strength, true
	case "intelligence", "int":
		return p.Intelligence, true
	case "luck":
		return p.Luck, true
	}
	return 0, false
}

type NPC struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Attitude string `json:"attitude"`
	Location string `json:"location,omitempty"`
	Alive    bool   `json:"alive"`
}

type Location struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Paths       []string `json:"paths"`
}

type Quest struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Objectives  []string `json:"objectives"`
}

type Event struct {
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Turn        int            `json:"turn"`
	Details     map[string]any `json:"details,omitempty"`
}

type CheckResult struct {
	Roll       int    `json:"roll"`
	Difficulty int    `json:"difficulty"`
	Modifier   int    `json:"modifier"`
	Success    bool   `json:"success"`
	Tier       string `json:"tier"`
}

// Random is the dice source. *rand.Rand satisfies it.
type Random interface {
	IntN(n int) int
}

// World is one session's game state. It is not safe for concurrent use.
type World struct {
	Player          Player     `json:"player"`
	NPCs            []NPC      `json:"npcs"`
	Locations       []Location `json:"locations"`
	CurrentLocation string     `json:"current_location"`
	Events          []Event    `json:"events"`
	Quests          []Quest    `json:"quests"`
	TurnCount       int        `json:"turn_count"`

	rng Random
}

type Option func(*World)

func WithRandom(r Random) Option {
	return func(w *World) {
		if r != nil {
			w.rng = r
		}
	}
}

func WithPlayer(p Player) Option {
	return func(w *World) { w.Player = p }
}

// NewWorld builds the starting world around the village of Eldermere.
func NewWorld(opts ...Option) *World {
	w := &World{
		Player: DefaultPlayer(),
		Locations: []Location{
			{Name: "Eldermere Village", Description: "A quiet village of thatched roofs, a smoking forge and a well at its heart.", Paths: []string{"Whispering Woods", "Old Mill"}},
			{Name: "Whispering Woods", Description: "Ancient trees lean close together and the wind carries voices that are not there.", Paths: []string{"Eldermere Village", "Crystal Caves"}},
			{Name: "Old Mill", Description: "An abandoned mill by the river. Its wheel still turns at night.", Paths: []string{"Eldermere Village"}},
			{Name: "Crystal Caves", Description: "Glittering caverns humming with old magic, guarded by something that breathes.", Paths: []string{"Whispering Woods"}},
		},
		NPCs: []NPC{
			{Name: "Mara", Role: "blacksmith", Attitude: "friendly", Location: "Eldermere Village", Alive: true},
			{Name: "Old Tobin", Role: "miller", Attitude: "neutral", Location: "Old Mill", Alive: true},
		},
		Quests: []Quest{{
			ID:          "q1",
			Title:       "The Voices in the Woods",
			Description: "Villagers hear whispers from the Whispering Woods at night. Find their source.",
			Status:      QuestActive,
			Objectives:  []string{"Talk to Mara", "Explore the Whispering Woods", "Find the source of the whispers"},
		}},
		CurrentLocation: "Eldermere Village",
		Events:          []Event{},
		rng:             rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	w.updateStatus()
	return w
}

func (w *World) AddEvent(kind, description string, details map[string]any) Event {
	ev := Event{Type: kind, Description: description, Turn: w.TurnCount, Details: details}
	w.Events = append(w.Events, ev)
	return ev
}

// RecentEvents returns up to n of the latest events, oldest first.
func (w *World) RecentEvents(n int) []Event {
	if n <= 0 || n >= len(w.Events) {
		return append([]Event(nil), w.Events...)
	}
	return append([]Event(nil), w.Events[len(w.Events)-n:]...)
}

// RollDice rolls one die with the given number of sides and adds modifier.
func (w *World) RollDice(sides, modifier int) int {
	if sides < 1 {
		sides = 20
	}
	return w.rng.IntN(sides) + 1 + modifier
}

// CheckSuccess rolls a d20 plus the attribute against difficulty. Beating the
// difficulty by five or more is a full success.
func (w *World) CheckSuccess(difficulty int, attribute string) (CheckResult, error) {
	mod, ok := w.Player.attribute(attribute)
	if !ok {
		return CheckResult{}, fmt.Errorf("%w: %s", ErrUnknownAttribute, attribute)
	}
	roll := w.RollDice(20, mod)
	res := CheckResult{Roll: roll, Difficulty: difficulty, Modifier: mod, Success: roll >= difficulty}
	switch {
	case roll >= difficulty+5:
		res.Tier = TierFullSuccess
	case res.Success:
		res.Tier = TierPartialSuccess
	default:
		res.Tier = TierFail
	}
	w.AddEvent("skill_check", fmt.Sprintf("%s check against %d: %s", attribute, difficulty, res.Tier), map[string]any{
		"roll": roll, "modifier": mod,
	})
	return res, nil
}

// ApplyDamage lowers HP, never below zero, and returns the new HP.
func (w *World) ApplyDamage(amount int) int {
	if amount < 0 {
		amount = 0
	}
	w.Player.HP = max(0, w.Player.HP-amount)
	w.updateStatus()
	return w.Player.HP
}

// Heal raises HP up to MaxHP and returns the new HP.
func (w *World) Heal(amount int) int {
	if amount < 0 {
		amount = 0
	}
	w.Player.HP = min(w.Player.MaxHP, w.Player.HP+amount)
	w.updateStatus()
	return w.Player.HP
}

func (w *World) SpendMana(amount int) error {
	if amount < 0 || amount > w.Player.Mana {
		return ErrNotEnoughMana
	}
	w.Player.Mana -= amount
	return nil
}

// updateStatus derives the player status from the HP ratio.
func (w *World) updateStatus() {
	if w.Player.MaxHP <= 0 {
		w.Player.Status = StatusCritical
		return
	}
	hp, maxHP := w.Player.HP, w.Player.MaxHP
	switch {
	case hp*2 > maxHP:
		w.Player.Status = StatusHealthy
	case hp*5 > maxHP:
		w.Player.Status = StatusInjured
	default:
		w.Player.Status = StatusCritical
	}
}

func (w *World) AddItem(item string) {
	item = strings.TrimSpace(item)
	if item == "" {
		return
	}
	w.Player.Inventory = append(w.Player.Inventory, item)
}

// RemoveItem drops one matching item, compared without case.
func (w *World) RemoveItem(item string) error {
	for i, have := range w.Player.Inventory {
		if strings.EqualFold(have, strings.TrimSpace(item)) {
			w.Player.Inventory = append(w.Player.Inventory[:i], w.Player.Inventory[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotInInventory, item)
}

func (w *World) Location(name string) (Location, bool) {
	for _, loc := range w.Locations {
		if strings.EqualFold(loc.Name, strings.TrimSpace(name)) {
			return loc, true
		}
	}
	return Location{}, false
}

// MoveTo travels along a path from the current location.
func (w *World) MoveTo(name string) (Location, error) {
	dest, ok := w.Location(name)
	if !ok {
		return Location{}, fmt.Errorf("%w: %s", ErrUnknownLocation, name)
	}
	if here, ok := w.Location(w.CurrentLocation); ok {
		reachable := false
		for _, p := range here.Paths {
			if strings.EqualFold(p, dest.Name) {
				reachable = true
				break
			}
		}
		if !reachable {
			return Location{}, fmt.Errorf("%w: %s", ErrNoPath, dest.Name)
		}
	}
	from := w.CurrentLocation
	w.CurrentLocation = dest.Name
	w.AddEvent("travel", fmt.Sprintf("Traveled from %s to %s", from, dest.Name), nil)
	return dest, nil
}

// AddLocation adds a location or replaces one with the same name.
func (w *World) AddLocation(loc Location) {
	for i := range w.Locations {
		if strings.EqualFold(w.Locations[i].Name, loc.Name) {
			w.Locations[i] = loc
			return
		}
	}
	w.Locations = append(w.Locations, loc)
}

func (w *World) AdvanceTurn() int {
	w.TurnCount++
	return w.TurnCount
}

// UpsertNPC adds an NPC or updates the one with the same name.
func (w *World) UpsertNPC(npc NPC) NPC {
	if npc.Attitude == "" {
		npc.Attitude = "neutral"
	}
	for i := range w.NPCs {
		if strings.EqualFold(w.NPCs[i].Name, npc.Name) {
			w.NPCs[i] = npc
			return npc
		}
	}
	w.NPCs = append(w.NPCs, npc)
	return npc
}

func (w *World) AddQuest(q Quest) Quest {
	if q.Status == "" {
		q.Status = QuestActive
	}
	if q.ID == "" {
		q.ID = fmt.Sprintf("q%d", len(w.Quests)+1)
	}
	w.Quests = append(w.Quests, q)
	return q
}

func (w *World) SetQuestStatus(id, status string) (Quest, error) {
	switch status {
	case QuestActive, QuestCompleted, QuestFailed:
	default:
		return Quest{}, fmt.Errorf("%w: %q", ErrInvalidQuestStatus, status)
	}
	for i := range w.Quests {
		if strings.EqualFold(w.Quests[i].ID, id) {
			w.Quests[i].Status = status
			w.AddEvent("quest", fmt.Sprintf("Quest %s is now %s", w.Quests[i].Title, status), nil)
			return w.Quests[i], nil
		}
	}
	return Quest{}, fmt.Errorf("%w: %s", ErrUnknownQuest, id)
}

// Summary is a short description for the narrator.
func (w *World) Summary() string {
	var b strings.Builder
	p := w.Player
	fmt.Fprintf(&b, "%s the %s is at %s. HP %d/%d (%s), mana %d/%d.", p.Name, p.Class, w.CurrentLocation, p.HP, p.MaxHP, p.Status, p.Mana, p.MaxMana)
	if len(p.Inventory) > 0 {
		fmt.Fprintf(&b, " Carrying: %s.", strings.Join(p.Inventory, ", "))
	}
	var active []string
	for _, q := range w.Quests {
		if q.Status == QuestActive {
			active = append(active, q.Title)
		}
	}
	if len(active) > 0 {
		fmt.Fprintf(&b, " Active quests: %s.", strings.Join(active, "; "))
	}
	fmt.Fprintf(&b, " Turn %d.", w.TurnCount)
	return b.String()
}
