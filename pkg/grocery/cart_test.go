package grocery

import (
	"errors"
	"testing"

	"github.com/harunnryd/voicedays/pkg/errorsx"
)

func TestCartAddIsAdditive(t *testing.T) {
	c := DefaultCatalog()
	cart := NewCart(c)
	milk, _ := c.Get("inst_01")
	if _, err := cart.Add(milk, 2, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	line, err := cart.Add(milk, 3, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if line.Quantity != 5 || len(cart.Lines()) != 1 {
		t.Fatalf("expected one line with quantity 5, got %+v", cart.Lines())
	}
	if cart.ItemCount() != 5 {
		t.Fatalf("expected item count 5, got %d", cart.ItemCount())
	}
}

func TestCartNoteOnlyOverwrittenWhenGiven(t *testing.T) {
	c := DefaultCatalog()
	cart := NewCart(c)
	eggs, _ := c.Get("inst_08")
	_, _ = cart.Add(eggs, 1, "brown if possible")
	_, _ = cart.Add(eggs, 1, "")
	line, _ := cart.Line("inst_08")
	if line.Note != "brown if possible" {
		t.Fatalf("expected note kept, got %q", line.Note)
	}
	_, _ = cart.Add(eggs, 1, "white is fine")
	line, _ = cart.Line("inst_08")
	if line.Note != "white is fine" {
		t.Fatalf("expected note replaced, got %q", line.Note)
	}
}

func TestCartRejectsNonPositiveQuantity(t *testing.T) {
	c := DefaultCatalog()
	cart := NewCart(c)
	milk, _ := c.Get("inst_01")
	for _, qty := range []int{0, -1} {
		if _, err := cart.Add(milk, qty, ""); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("qty %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
	_, _ = cart.Add(milk, 1, "")
	if _, err := cart.UpdateQuantity("inst_01", 0); !errorsx.HasReason(err, errorsx.ReasonInvalidQuantity) {
		t.Fatalf("expected invalid_quantity reason, got %v", err)
	}
	if cart.ItemCount() != 1 {
		t.Fatalf("rejected update must not change the cart")
	}
}

func TestCartRemoveAndUpdateUseFuzzyLookup(t *testing.T) {
	c := DefaultCatalog()
	cart := NewCart(c)
	butter, _ := c.Get("inst_06")
	bread, _ := c.Get("inst_07")
	_, _ = cart.Add(butter, 1, "")
	_, _ = cart.Add(bread, 1, "")

	line, err := cart.UpdateQuantity("harvest gold white bred", 4)
	if err != nil || line.Quantity != 4 {
		t.Fatalf("expected bread updated to 4, got %+v err=%v", line, err)
	}
	removed, err := cart.Remove("amul buter (100 g)")
	if err != nil || removed.Item.ID != "inst_06" {
		t.Fatalf("expected butter removed, got %+v err=%v", removed, err)
	}
	if len(cart.Lines()) != 1 || cart.Lines()[0].ID != "inst_07" {
		t.Fatalf("unexpected lines %+v", cart.Lines())
	}
}

func TestCartRemoveErrors(t *testing.T) {
	cart := NewCart(DefaultCatalog())
	if _, err := cart.Remove("xyzzy quantum flux"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := cart.Remove("inst_01"); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
	if _, err := cart.UpdateQuantity("inst_01", 2); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
}

func TestSubtotalRoundsOnlyAtTheEnd(t *testing.T) {
	items := []Item{
		{ID: "a", Name: "A", Price: 0.333, Currency: "INR"},
		{ID: "b", Name: "B", Price: 0.333, Currency: "INR"},
		{ID: "c", Name: "C", Price: 0.333, Currency: "INR"},
	}
	c := NewCatalog(items)
	cart := NewCart(c)
	for _, item := range items {
		_, _ = cart.Add(item, 1, "")
	}
	if got := cart.Subtotal(); got != 1.0 {
		t.Fatalf("expected 1.00, got %v", got)
	}

	cart.Clear()
	half, _ := c.Get("a")
	half.Price = 0.125
	other := half
	other.ID = "b"
	_, _ = cart.Add(half, 1, "")
	_, _ = cart.Add(other, 1, "")
	if got := cart.Subtotal(); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}

func TestCartLinesKeepInsertionOrder(t *testing.T) {
	c := DefaultCatalog()
	cart := NewCart(c)
	for _, id := range []string{"inst_12", "inst_01", "inst_05"} {
		item, _ := c.Get(id)
		_, _ = cart.Add(item, 1, "")
	}
	lines := cart.Lines()
	if lines[0].ID != "inst_12" || lines[1].ID != "inst_01" || lines[2].ID != "inst_05" {
		t.Fatalf("unexpected order %+v", lines)
	}
	if lines[0].Notes != nil {
		t.Fatalf("expected nil notes")
	}
}

func TestCartClear(t *testing.T) {
	c := DefaultCatalog()
	cart := NewCart(c)
	item, _ := c.Get("inst_01")
	_, _ = cart.Add(item, 1, "")
	cart.Clear()
	if !cart.IsEmpty() || cart.Subtotal() != 0 || len(cart.Lines()) != 0 {
		t.Fatalf("expected empty cart after clear")
	}
}

func TestSnapshotAndDeliveryPolicy(t *testing.T) {
	p := DefaultDeliveryPolicy()
	if p.FeeFor(199) != 0 || p.FeeFor(250) != 0 {
		t.Fatalf("expected free delivery at or above threshold")
	}
	if p.FeeFor(198.99) != 25 {
		t.Fatalf("expected fee below threshold")
	}
	if p.Total(150) != 175 {
		t.Fatalf("expected total 175, got %v", p.Total(150))
	}

	c := DefaultCatalog()
	cart := NewCart(c)
	rice, _ := c.Get("inst_09")
	_, _ = cart.Add(rice, 1, "")
	snap := Snapshot(cart, p)
	if snap.FreeDeliveryEligible || snap.AmountToFreeDelivery != 34 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	_, _ = cart.Add(rice, 1, "")
	snap = Snapshot(cart, p)
	if !snap.FreeDeliveryEligible || snap.AmountToFreeDelivery != 0 || snap.ItemCount != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestResolveAndAddRecipe(t *testing.T) {
	recipes := DefaultRecipes()
	r, ok := ResolveRecipe(recipes, "Planning a late night hangout")
	if !ok || r.Name != "party-starter" {
		t.Fatalf("expected party-starter, got %+v", r)
	}
	if _, ok := ResolveRecipe(recipes, "just some milk"); ok {
		t.Fatalf("expected no recipe")
	}

	c := DefaultCatalog()
	cart := NewCart(c)
	added, missing, err := AddRecipe(cart, c, r, 2)
	if err != nil || len(missing) != 0 || len(added) != 3 {
		t.Fatalf("unexpected recipe result added=%v missing=%v err=%v", added, missing, err)
	}
	if line, _ := cart.Line("inst_02"); line.Quantity != 4 {
		t.Fatalf("expected chips doubled, got %d", line.Quantity)
	}
}
