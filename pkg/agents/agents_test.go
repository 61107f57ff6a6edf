package agents

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harunnryd/voicedays/pkg/commerce"
	"github.com/harunnryd/voicedays/pkg/fraud"
	"github.com/harunnryd/voicedays/pkg/grocery"
	"github.com/harunnryd/voicedays/pkg/jsonstore"
	"github.com/harunnryd/voicedays/pkg/logging"
)

func testDeps(t *testing.T) Deps {
	t.Helper()
	dir := t.TempDir()
	logger := logging.Discard()
	return Deps{
		GroceryCatalog: grocery.DefaultCatalog(),
		Orders: grocery.NewOrderStore(
			jsonstore.NewFileStore[grocery.Order](filepath.Join(dir, "orders_instamart.json")),
			grocery.WithLogger(logger),
		),
		Commerce: commerce.NewStore(
			commerce.DefaultCatalog(),
			jsonstore.NewFileStore[commerce.CartItem](filepath.Join(dir, "cart.json")),
			jsonstore.NewFileStore[commerce.Order](filepath.Join(dir, "orders.json")),
			commerce.WithLogger(logger),
		),
		Fraud:  fraud.NewDatabase(jsonstore.NewFileStore[fraud.Case](filepath.Join(dir, "fraud_cases.json")), nil, logger),
		Logger: logger,
	}
}

func TestParseDay(t *testing.T) {
	cases := map[string]Day{
		"grocery":    DayGrocery,
		" Instamart": DayGrocery,
		"7":          DayGrocery,
		"merchant":   DayCommerce,
		"4":          DayTutor,
		"FRAUD":      DayFraud,
		"game":       DayGame,
	}
	for in, want := range cases {
		got, err := ParseDay(in)
		if err != nil || got != want {
			t.Fatalf("ParseDay(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseDay("day nine"); !errors.Is(err, ErrUnknownDay) {
		t.Fatalf("expected ErrUnknownDay, got %v", err)
	}
}

func TestBuildEveryDay(t *testing.T) {
	deps := testDeps(t)
	firstTool := map[Day]string{
		DayGrocery:  "find_item",
		DayCommerce: "list_products",
		DayFraud:    "load_case",
		DayGame:     "get_world_state",
		DayTutor:    "list_concepts",
	}
	for _, day := range Days() {
		s, err := Build(day, deps)
		if err != nil {
			t.Fatalf("build %s: %v", day, err)
		}
		if s.Instructions == "" || s.Instructions != Prompt(day) {
			t.Fatalf("%s: instructions do not match prompt", day)
		}
		tools := s.Registry.Tools()
		if len(tools) == 0 || tools[0].Name != firstTool[day] {
			t.Fatalf("%s: unexpected tools %+v", day, tools)
		}
	}
}

func TestBuildGivesFreshSessionState(t *testing.T) {
	deps := testDeps(t)
	ctx := context.Background()
	a, _ := Build(DayGrocery, deps)
	b, _ := Build(DayGrocery, deps)
	if _, err := a.Registry.HandleTool(ctx, "add_to_cart", map[string]any{"item": "milk-dairy"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, err := b.Registry.HandleTool(ctx, "view_cart", nil)
	if err != nil || out != "Your cart is empty." {
		t.Fatalf("second session should have its own cart, got %q %v", out, err)
	}
}

func TestBuildRequiresStores(t *testing.T) {
	for _, day := range []Day{DayGrocery, DayCommerce, DayFraud} {
		if _, err := Build(day, Deps{}); err == nil {
			t.Fatalf("%s: expected missing store error", day)
		}
	}
	if _, err := Build(Day("nope"), Deps{}); !errors.Is(err, ErrUnknownDay) {
		t.Fatalf("expected ErrUnknownDay, got %v", err)
	}
}

func TestGameStyleReachesInstructions(t *testing.T) {
	s, err := Build(DayGame, Deps{GameStyle: "space opera"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(s.Instructions, "space opera") {
		t.Fatalf("expected style in instructions")
	}
}
