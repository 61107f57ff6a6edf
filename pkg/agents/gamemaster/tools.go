// Package gamemaster lets the narrator read and change the game world through
// tools, so dice, HP and inventory stay consistent across turns.
package gamemaster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harunnryd/voicedays/pkg/configutil"
	"github.com/harunnryd/voicedays/pkg/game"
	"github.com/harunnryd/voicedays/pkg/llm"
)

const DefaultStyle = "classic fantasy"

// Instructions builds the narrator prompt for a story style.
func Instructions(style string) string {
	if strings.TrimSpace(style) == "" {
		style = DefaultStyle
	}
	return fmt.Sprintf(`You are the Game Master of a %s voice adventure set around the village of Eldermere.
Narrate vividly in two to four sentences per turn and always end by asking the player what they do.
Call get_world_state when you need the player's stats, location or quests.
Whenever the outcome of an action is uncertain, call skill_check and narrate according to the tier:
full_success, partial_success with a complication, or fail with a consequence.
Use move_to for travel, take_damage and heal for HP, cast_spell for magic, add_item and use_item for inventory,
and update_quest when a quest is finished or lost. Never invent numbers the tools did not return.`, style)
}

const recentEvents = 3

type Registry struct {
	*llm.Registry
	world *game.World
}

func NewRegistry(world *game.World) *Registry {
	if world == nil {
		world = game.NewWorld()
	}
	r := &Registry{Registry: llm.NewRegistry(), world: world}

	r.Register(llm.Tool{
		Name:        "get_world_state",
		Description: "Summarise the player, location, paths and recent events.",
		Schema:      llm.Object(nil),
	}, r.worldState)
	r.Register(llm.Tool{
		Name:        "skill_check",
		Description: "Roll a d20 plus an attribute against a difficulty.",
		Schema: llm.Object(map[string]any{
			"action":     llm.String("What the player attempts."),
			"difficulty": llm.Integer("Target number, 5 easy to 20 very hard."),
			"attribute":  llm.Enum("Attribute used as modifier.", "strength", "intelligence", "luck"),
		}, "action", "difficulty"),
	}, r.skillCheck)
	r.Register(llm.Tool{
		Name:        "move_to",
		Description: "Travel to a location connected to the current one.",
		Schema:      llm.Object(map[string]any{"location": llm.String("Destination name.")}, "location"),
	}, r.moveTo)
	r.Register(llm.Tool{
		Name:        "take_damage",
		Description: "Reduce the player's HP.",
		Schema: llm.Object(map[string]any{
			"amount": llm.Integer("Damage points."),
			"source": llm.String("What caused it."),
		}, "amount"),
	}, r.takeDamage)
	r.Register(llm.Tool{
		Name:        "heal",
		Description: "Restore the player's HP up to the maximum.",
		Schema:      llm.Object(map[string]any{"amount": llm.Integer("HP restored.")}, "amount"),
	}, r.heal)
	r.Register(llm.Tool{
		Name:        "cast_spell",
		Description: "Spend mana on a spell.",
		Schema: llm.Object(map[string]any{
			"spell": llm.String("Spell name."),
			"mana":  llm.Integer("Mana cost."),
		}, "spell", "mana"),
	}, r.castSpell)
	r.Register(llm.Tool{
		Name:        "add_item",
		Description: "Put an item in the player's inventory.",
		Schema:      llm.Object(map[string]any{"item": llm.String("Item name.")}, "item"),
	}, r.addItem)
	r.Register(llm.Tool{
		Name:        "use_item",
		Description: "Use up an item from the inventory.",
		Schema:      llm.Object(map[string]any{"item": llm.String("Item name.")}, "item"),
	}, r.useItem)
	r.Register(llm.Tool{
		Name:        "update_quest",
		Description: "Mark a quest completed or failed, or reactivate it.",
		Schema: llm.Object(map[string]any{
			"quest_id": llm.String("Quest id such as q1."),
			"status":   llm.Enum("New status.", game.QuestActive, game.QuestCompleted, game.QuestFailed),
		}, "quest_id", "status"),
	}, r.updateQuest)
	return r
}

// World exposes the session world, mainly for tests and transcripts.
func (r *Registry) World() *game.World { return r.world }

type gameArgs struct {
	Action     string `mapstructure:"action"`
	Difficulty int    `mapstructure:"difficulty"`
	Attribute  string `mapstructure:"attribute"`
	Location   string `mapstructure:"location"`
	Amount     int    `mapstructure:"amount"`
	Source     string `mapstructure:"source"`
	Spell      string `mapstructure:"spell"`
	Mana       int    `mapstructure:"mana"`
	Item       string `mapstructure:"item"`
	QuestID    string `mapstructure:"quest_id"`
	Status     string `mapstructure:"status"`
}

func decode(raw map[string]any) (gameArgs, error) {
	var args gameArgs
	err := configutil.DecodeArgs(raw, &args)
	return args, err
}

func (r *Registry) worldState(context.Context, map[string]any) (string, error) {
	var b strings.Builder
	b.WriteString(r.world.Summary())
	if here, ok := r.world.Location(r.world.CurrentLocation); ok {
		fmt.Fprintf(&b, " %s Paths lead to %s.", here.Description, strings.Join(here.Paths, " and "))
	}
	var npcs []string
	for _, npc := range r.world.NPCs {
		if npc.Alive && strings.EqualFold(npc.Location, r.world.CurrentLocation) {
			npcs = append(npcs, fmt.Sprintf("%s the %s (%s)", npc.Name, npc.Role, npc.Attitude))
		}
	}
	if len(npcs) > 0 {
		fmt.Fprintf(&b, " Here: %s.", strings.Join(npcs, ", "))
	}
	if evs := r.world.RecentEvents(recentEvents); len(evs) > 0 {
		descs := make([]string, 0, len(evs))
		for _, ev := range evs {
			descs = append(descs, ev.Description)
		}
		fmt.Fprintf(&b, " Recently: %s.", strings.Join(descs, "; "))
	}
	return b.String(), nil
}

func (r *Registry) skillCheck(_ context.Context, raw map[string]any) (string, error) {
	args, err := decode(raw)
	if err != nil {
		return "", err
	}
	attr := args.Attribute
	if attr == "" {
		attr = "strength"
	}
	res, err := r.world.CheckSuccess(args.Difficulty, attr)
	if err != nil {
		if errors.Is(err, game.ErrUnknownAttribute) {
			return "", llm.UserError(err, "Use strength, intelligence or luck for checks.")
		}
		return "", err
	}
	r.world.AdvanceTurn()
	return fmt.Sprintf("%s: rolled %d (modifier %+d) against %d, %s.",
		args.Action, res.Roll, res.Modifier, res.Difficulty, res.Tier), nil
}

func (r *Registry) moveTo(_ context.Context, raw map[string]any) (string, error) {
	args, err := decode(raw)
	if err != nil {
		return "", err
	}
	loc, err := r.world.MoveTo(args.Location)
	switch {
	case errors.Is(err, game.ErrUnknownLocation):
		return "", llm.UserError(err, "There is no place called %s in this land.", args.Location)
	case errors.Is(err, game.ErrNoPath):
		here, _ := r.world.Location(r.world.CurrentLocation)
		return "", llm.UserError(err, "No path leads there from %s. From here you can reach %s.",
			r.world.CurrentLocation, strings.Join(here.Paths, " or "))
	case err != nil:
		return "", err
	}
	r.world.AdvanceTurn()
	return fmt.Sprintf("Arrived at %s. %s", loc.Name, loc.Description), nil
}

func (r *Registry) takeDamage(_ context.Context, raw map[string]any) (string, error) {
	args, err := decode(raw)
	if err != nil {
		return "", err
	}
	hp := r.world.ApplyDamage(args.Amount)
	desc := fmt.Sprintf("Took %d damage", args.Amount)
	if args.Source != "" {
		desc += " from " + args.Source
	}
	r.world.AddEvent("damage", desc, map[string]any{"amount": args.Amount})
	p := r.world.Player
	if hp == 0 {
		return fmt.Sprintf("%s. HP 0/%d. The player has fallen.", desc, p.MaxHP), nil
	}
	return fmt.Sprintf("%s. HP %d/%d, %s.", desc, hp, p.MaxHP, p.Status), nil
}

func (r *Registry) heal(_ context.Context, raw map[string]any) (string, error) {
	args, err := decode(raw)
	if err != nil {
		return "", err
	}
	hp := r.world.Heal(args.Amount)
	return fmt.Sprintf("Healed. HP %d/%d, %s.", hp, r.world.Player.MaxHP, r.world.Player.Status), nil
}

func (r *Registry) castSpell(_ context.Context, raw map[string]any) (string, error) {
	args, err := decode(raw)
	if err != nil {
		return "", err
	}
	if err := r.world.SpendMana(args.Mana); err != nil {
		return "", llm.UserError(err, "Not enough mana for %s. Mana %d/%d.", args.Spell, r.world.Player.Mana, r.world.Player.MaxMana)
	}
	r.world.AddEvent("spell", "Cast "+args.Spell, map[string]any{"mana": args.Mana})
	return fmt.Sprintf("Cast %s. Mana %d/%d.", args.Spell, r.world.Player.Mana, r.world.Player.MaxMana), nil
}

func (r *Registry) addItem(_ context.Context, raw map[string]any) (string, error) {
	args, err := decode(raw)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(args.Item) == "" {
		return "", llm.UserError(errors.New("empty item"), "Which item?")
	}
	r.world.AddItem(args.Item)
	r.world.AddEvent("item", "Found "+args.Item, nil)
	return fmt.Sprintf("%s added. Carrying: %s.", args.Item, strings.Join(r.world.Player.Inventory, ", ")), nil
}

func (r *Registry) useItem(_ context.Context, raw map[string]any) (string, error) {
	args, err := decode(raw)
	if err != nil {
		return "", err
	}
	if err := r.world.RemoveItem(args.Item); err != nil {
		return "", llm.UserError(err, "The player isn't carrying %s.", args.Item)
	}
	r.world.AddEvent("item", "Used "+args.Item, nil)
	return fmt.Sprintf("Used %s.", args.Item), nil
}

func (r *Registry) updateQuest(_ context.Context, raw map[string]any) (string, error) {
	args, err := decode(raw)
	if err != nil {
		return "", err
	}
	q, err := r.world.SetQuestStatus(args.QuestID, args.Status)
	switch {
	case errors.Is(err, game.ErrUnknownQuest):
		return "", llm.UserError(err, "There is no quest %s.", args.QuestID)
	case errors.Is(err, game.ErrInvalidQuestStatus):
		return "", llm.UserError(err, "Quest status must be active, completed or failed.")
	case err != nil:
		return "", err
	}
	return fmt.Sprintf("Quest %q is now %s.", q.Title, q.Status), nil
}

var _ llm.ToolRegistry = (*Registry)(nil)
