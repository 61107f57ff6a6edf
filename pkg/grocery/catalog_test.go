package grocery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harunnryd/voicedays/pkg/errorsx"
)

func TestFindPrecedence(t *testing.T) {
	c := DefaultCatalog()
	cases := []struct {
		query  string
		wantID string
		tier   Tier
	}{
		{"inst_06", "inst_06", TierExact},
		{"  INST_06 ", "inst_06", TierExact},
		{"Amul Butter (100 g)", "inst_06", TierExact},
		{"chips-munchies", "inst_02", TierAlias},
		{"curd-dairy", "inst_10", TierAlias},
		{"red lays", "inst_02", TierSubstitution},
		{"two packets of red lays please", "inst_02", TierSubstitution},
		{"amul buter (100 g)", "inst_06", TierFuzzy},
		{"harvest gold white bred", "inst_07", TierFuzzy},
	}
	for _, tc := range cases {
		m, ok := c.Find(tc.query)
		if !ok {
			t.Fatalf("%q: expected a match", tc.query)
		}
		if m.Item.ID != tc.wantID || m.Tier != tc.tier {
			t.Fatalf("%q: expected %s via %s, got %s via %s", tc.query, tc.wantID, tc.tier, m.Item.ID, m.Tier)
		}
	}
}

func TestFindMessages(t *testing.T) {
	c := DefaultCatalog()
	m, _ := c.Find("red lays")
	if m.Message == "" {
		t.Fatalf("expected substitution message")
	}
	m, _ = c.Find("amul buter (100 g)")
	if m.Message != "I matched that with Amul Butter (100 g)." {
		t.Fatalf("unexpected fuzzy message %q", m.Message)
	}
	m, _ = c.Find("inst_01")
	if m.Message != "" {
		t.Fatalf("exact match should carry no message, got %q", m.Message)
	}
}

func TestFindNoMatch(t *testing.T) {
	c := DefaultCatalog()
	for _, q := range []string{"", "   ", "xyzzy quantum flux"} {
		if m, ok := c.Find(q); ok {
			t.Fatalf("%q: expected no match, got %+v", q, m)
		}
	}
}

func TestExactBeatsSubstitution(t *testing.T) {
	items := []Item{
		{ID: "x1", Name: "Red Lays", Price: 20, Currency: "INR", Category: "Munchies"},
		{ID: "x2", Name: "Blue Lays", Price: 20, Currency: "INR", Category: "Munchies"},
	}
	c := NewCatalog(items, WithSubstitutions([]Substitution{{Phrase: "red lays", ItemID: "x2", Message: "swap"}}))
	m, ok := c.Find("red lays")
	if !ok || m.Tier != TierExact || m.Item.ID != "x1" {
		t.Fatalf("expected exact match to win, got %+v", m)
	}
}

func TestTagAliasDoesNotShadowFirstItem(t *testing.T) {
	items := []Item{
		{ID: "a", Name: "Alpha Milk", Category: "Dairy", Tags: []string{"milk"}},
		{ID: "b", Name: "Beta Milk", Category: "Dairy", Tags: []string{"milk"}},
	}
	m, ok := NewCatalog(items).Find("milk-dairy")
	if !ok || m.Item.ID != "a" || m.Tier != TierAlias {
		t.Fatalf("expected first item to own the alias, got %+v", m)
	}
}

func TestTagAliasNeedsCategory(t *testing.T) {
	c := DefaultCatalog()
	for _, q := range []string{"milk", "bread", "butter"} {
		if m, ok := c.Find(q); ok {
			t.Fatalf("%q: expected no match for a bare tag, got %+v", q, m)
		}
	}
	m, ok := c.Find("milk-dairy")
	if !ok || m.Tier != TierAlias || m.Item.ID != "inst_01" {
		t.Fatalf("expected milk-dairy alias, got %+v", m)
	}
}

func TestComboFor(t *testing.T) {
	c := DefaultCatalog()
	msg, items, ok := c.ComboFor("inst_09")
	if !ok || msg == "" || len(items) != 2 {
		t.Fatalf("expected biryani combo, got %q %+v", msg, items)
	}
	if items[0].ID != "inst_10" || items[1].ID != "inst_12" {
		t.Fatalf("unexpected combo items %+v", items)
	}
	if _, _, ok := c.ComboFor("inst_01"); ok {
		t.Fatalf("expected no combo for milk")
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadCatalog(filepath.Join(dir, "missing.json")); !errorsx.HasReason(err, errorsx.ReasonCatalogLoad) {
		t.Fatalf("expected catalog_load for missing file, got %v", err)
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("[{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadCatalog(bad); !errorsx.HasReason(err, errorsx.ReasonCatalogLoad) {
		t.Fatalf("expected catalog_load for corrupt file, got %v", err)
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	raw := `[{"id":"z1","name":"Zeta Tea","price":99.5,"currency":"INR","category":"Beverages","tags":["tea"]}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if item, ok := c.Get("Z1"); !ok || item.Price != 99.5 {
		t.Fatalf("expected z1 loaded, got %+v", item)
	}
}

func TestDefaultCatalogIsIndependent(t *testing.T) {
	a := DefaultCatalog()
	items := a.Items()
	items[0].Name = "mutated"
	if got, _ := a.Get(items[0].ID); got.Name == "mutated" {
		t.Fatalf("Items must return a copy")
	}
	if len(a.Items()) != 20 {
		t.Fatalf("expected 20 default items, got %d", len(a.Items()))
	}
}
