package grocery

import (
	"fmt"
	"strings"
)

type RecipeItem struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// Recipe is a named bundle added to the cart when a request mentions one of
// its keywords.
type Recipe struct {
	Name     string       `json:"name"`
	Keywords []string     `json:"keywords"`
	Items    []RecipeItem `json:"items"`
}

func DefaultRecipes() []Recipe {
	return []Recipe{
		{
			Name:     "party-starter",
			Keywords: []string{"party", "late night", "hangout"},
			Items: []RecipeItem{
				{ItemID: "inst_02", Quantity: 2},
				{ItemID: "inst_03", Quantity: 2},
				{ItemID: "inst_11", Quantity: 1},
			},
		},
		{
			Name:     "peanut-butter-sandwich",
			Keywords: []string{"peanut butter sandwich"},
			Items: []RecipeItem{
				{ItemID: "inst_07", Quantity: 1},
				{ItemID: "inst_20", Quantity: 1},
			},
		},
		{
			Name:     "breakfast-essentials",
			Keywords: []string{"breakfast", "morning basics"},
			Items: []RecipeItem{
				{ItemID: "inst_01", Quantity: 1},
				{ItemID: "inst_07", Quantity: 1},
				{ItemID: "inst_08", Quantity: 1},
				{ItemID: "inst_06", Quantity: 1},
			},
		},
		{
			Name:     "pasta-night",
			Keywords: []string{"pasta", "italian dinner"},
			Items: []RecipeItem{
				{ItemID: "inst_15", Quantity: 1},
				{ItemID: "inst_04", Quantity: 1},
				{ItemID: "inst_10", Quantity: 1},
			},
		},
	}
}

// ResolveRecipe returns the first recipe with a keyword contained in query.
func ResolveRecipe(recipes []Recipe, query string) (Recipe, bool) {
	lowered := strings.ToLower(query)
	for _, r := range recipes {
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
				return r, true
			}
		}
	}
	return Recipe{}, false
}

// AddRecipe puts every recipe item the catalog knows into the cart, scaled by
// servings, and reports the ids it could not find.
func AddRecipe(cart *Cart, catalog *Catalog, recipe Recipe, servings int) ([]Line, []string, error) {
	if servings <= 0 {
		servings = 1
	}
	var added []Line
	var missing []string
	for _, ri := range recipe.Items {
		item, ok := catalog.Get(ri.ItemID)
		if !ok {
			missing = append(missing, ri.ItemID)
			continue
		}
		line, err := cart.Add(item, ri.Quantity*servings, "")
		if err != nil {
			return added, missing, fmt.Errorf("recipe %s: %w", recipe.Name, err)
		}
		added = append(added, line)
	}
	return added, missing, nil
}
