package commerce

import "testing"

func ptr(v float64) *float64 { return &v }

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestDefaultCatalogIsValid(t *testing.T) {
	c := DefaultCatalog()
	if n := len(c.Products(Filter{})); n != 22 {
		t.Fatalf("expected 22 products, got %d", n)
	}
	if got := c.Categories(); len(got) != 3 {
		t.Fatalf("expected 3 categories, got %v", got)
	}
}

func TestNewCatalogSkipsInvalidProducts(t *testing.T) {
	products := []Product{
		{ID: "ok", Name: "Ok", Price: 10, Currency: "INR", Category: "x", Rating: 4},
		{ID: "free", Name: "Free", Price: 0, Currency: "INR", Category: "x"},
		{ID: "stars", Name: "Stars", Price: 10, Currency: "INR", Category: "x", Rating: 7},
	}
	c := NewCatalog(products, nil)
	if got := ids(c.Products(Filter{})); len(got) != 1 || got[0] != "ok" {
		t.Fatalf("expected only the valid product, got %v", got)
	}
}

func TestProductsFilters(t *testing.T) {
	c := DefaultCatalog()

	for _, p := range c.Products(Filter{Category: " Smart-Home "}) {
		if p.Category != CategorySmartHome {
			t.Fatalf("unexpected category %s", p.Category)
		}
	}
	under := c.Products(Filter{MaxPrice: ptr(3000)})
	for _, p := range under {
		if p.Price > 3000 {
			t.Fatalf("price filter leaked %s", p.ID)
		}
	}
	if len(under) != 3 {
		t.Fatalf("expected 3 products under 3000, got %v", ids(under))
	}
	band := c.Products(Filter{MinPrice: ptr(20000), MaxPrice: ptr(25000)})
	if len(band) != 3 {
		t.Fatalf("expected 3 products in band, got %v", ids(band))
	}
}

func TestProductsSearch(t *testing.T) {
	c := DefaultCatalog()
	cases := []struct {
		term    string
		include string
		exclude string
	}{
		{"kindle", "kindle-oasis", "echo-dot-5"},
		{"security cameras", "wyze-cam", "echo-studio"},
		{"cam", "ring-floodlight", "kindle-paperwhite"},
		{"doorbells", "ring-doorbell", "fire-tablet"},
		{"smart-home", "philips-hue", "kindle-oasis"},
	}
	for _, tc := range cases {
		got := ids(c.Products(Filter{Search: tc.term}))
		if !contains(got, tc.include) {
			t.Fatalf("%q: expected %s in %v", tc.term, tc.include, got)
		}
		if contains(got, tc.exclude) {
			t.Fatalf("%q: did not expect %s in %v", tc.term, tc.exclude, got)
		}
	}
	if got := c.Products(Filter{Search: "zz"}); len(got) != 0 {
		t.Fatalf("expected short unknown term to match nothing, got %v", ids(got))
	}
}

func TestProductsSort(t *testing.T) {
	c := DefaultCatalog()
	asc := c.Products(Filter{SortBy: "price_low_to_high"})
	if asc[0].ID != "alexa-smart-plug" {
		t.Fatalf("expected cheapest first, got %s", asc[0].ID)
	}
	desc := c.Products(Filter{SortBy: SortPriceDesc})
	if desc[0].ID != "kindle-oasis" {
		t.Fatalf("expected most expensive first, got %s", desc[0].ID)
	}
	rated := c.Products(Filter{SortBy: "rating_high_to_low"})
	if rated[0].ID != "kindle-oasis" {
		t.Fatalf("expected best rated first, got %s", rated[0].ID)
	}
	byName := c.Products(Filter{SortBy: "name_a_to_z"})
	if byName[0].ID != "smart-lock" {
		t.Fatalf("expected August first, got %s", byName[0].ID)
	}
	unsorted := c.Products(Filter{SortBy: "random"})
	if unsorted[0].ID != "echo-dot-5" {
		t.Fatalf("expected catalog order for unknown sort, got %s", unsorted[0].ID)
	}
}

func TestFindByName(t *testing.T) {
	c := DefaultCatalog()
	cases := map[string]string{
		"echo dot (5th gen)":                   "echo-dot-5",
		"paperwhite":                           "kindle-paperwhite",
		"I want the wyze cam please":           "wyze-cam",
		"that philips hue ambiance light bulb": "philips-hue",
	}
	for q, want := range cases {
		p, ok := c.FindByName(q)
		if !ok || p.ID != want {
			t.Fatalf("%q: expected %s, got %s (ok=%v)", q, want, p.ID, ok)
		}
	}
	if _, ok := c.FindByName("a banana"); ok {
		t.Fatalf("expected no product for banana")
	}
	if _, ok := c.FindByName(""); ok {
		t.Fatalf("expected no product for empty query")
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
