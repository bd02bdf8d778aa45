// Package grocery turns a week of planned dishes into a shopping list grouped
// by store aisle.
package grocery

import "strings"

const Other = "Other"

// Aisles in walking order. Other is always last.
var Aisles = []string{"Produce", "Meat & Seafood", "Dairy & Eggs", "Bakery", "Pasta & Grains", "International", "Spices", "Pantry", Other}

// Aisle returns the store aisle for an ingredient tag: exact match first,
// then the first keyword contained in the name.
func Aisle(ingredient string) string {
	name := strings.ToLower(strings.TrimSpace(ingredient))
	if name == "" {
		return Other
	}
	if a, ok := exactAisle[name]; ok {
		return a
	}
	for _, kw := range aisleKeywords {
		if strings.Contains(name, kw.keyword) {
			return kw.aisle
		}
	}
	return Other
}

var exactAisle = map[string]string{
	"basil":        "Produce",
	"bean sprouts": "Produce",
	"bell pepper":  "Produce",
	"carrot":       "Produce",
	"cucumber":     "Produce",
	"eggplant":     "Produce",
	"garlic":       "Produce",
	"ginger":       "Produce",
	"green onion":  "Produce",
	"lemon":        "Produce",
	"lettuce":      "Produce",
	"onion":        "Produce",
	"potato":       "Produce",
	"red onion":    "Produce",
	"spinach":      "Produce",
	"tomato":       "Produce",
	"zucchini":     "Produce",

	"beef":        "Meat & Seafood",
	"chicken":     "Meat & Seafood",
	"ground beef": "Meat & Seafood",
	"ground pork": "Meat & Seafood",
	"pancetta":    "Meat & Seafood",
	"pork belly":  "Meat & Seafood",
	"salmon":      "Meat & Seafood",
	"shrimp":      "Meat & Seafood",

	"cheddar":    "Dairy & Eggs",
	"eggs":       "Dairy & Eggs",
	"feta":       "Dairy & Eggs",
	"mozzarella": "Dairy & Eggs",
	"parmesan":   "Dairy & Eggs",
	"tofu":       "Dairy & Eggs",

	"burger buns": "Bakery",
	"pizza dough": "Bakery",
	"tortillas":   "Bakery",

	"lasagna sheets": "Pasta & Grains",
	"lentils":        "Pasta & Grains",
	"ramen noodles":  "Pasta & Grains",
	"rice":           "Pasta & Grains",
	"rice noodles":   "Pasta & Grains",
	"spaghetti":      "Pasta & Grains",

	"coconut milk":      "International",
	"doubanjiang":       "International",
	"gochujang":         "International",
	"green curry paste": "International",
	"mirin":             "International",
	"miso":              "International",
	"soy sauce":         "International",
	"tamarind":          "International",

	"black pepper":   "Spices",
	"cumin":          "Spices",
	"curry powder":   "Spices",
	"sichuan pepper": "Spices",
	"turmeric":       "Spices",

	"bechamel":        "Pantry",
	"enchilada sauce": "Pantry",
	"olive oil":       "Pantry",
	"olives":          "Pantry",
	"peanuts":         "Pantry",
	"peas":            "Pantry",
	"red wine":        "Pantry",
	"sugar":           "Pantry",
}

// Ordered so longer, more specific keywords win.
var aisleKeywords = []struct {
	keyword string
	aisle   string
}{
	{"curry paste", "International"},
	{"fish sauce", "International"},
	{"noodle", "Pasta & Grains"},
	{"pasta", "Pasta & Grains"},
	{"flour", "Pantry"},
	{"sauce", "Pantry"},
	{"stock", "Pantry"},
	{"bread", "Bakery"},
	{"cheese", "Dairy & Eggs"},
	{"cream", "Dairy & Eggs"},
	{"butter", "Dairy & Eggs"},
	{"milk", "Dairy & Eggs"},
	{"yogurt", "Dairy & Eggs"},
	{"egg", "Dairy & Eggs"},
	{"chicken", "Meat & Seafood"},
	{"beef", "Meat & Seafood"},
	{"pork", "Meat & Seafood"},
	{"lamb", "Meat & Seafood"},
	{"bacon", "Meat & Seafood"},
	{"sausage", "Meat & Seafood"},
	{"fish", "Meat & Seafood"},
	{"prawn", "Meat & Seafood"},
	{"pepper", "Produce"},
	{"onion", "Produce"},
	{"mushroom", "Produce"},
	{"herb", "Produce"},
	{"cilantro", "Produce"},
	{"parsley", "Produce"},
	{"lime", "Produce"},
	{"cabbage", "Produce"},
	{"bean", "Pantry"},
	{"oil", "Pantry"},
	{"vinegar", "Pantry"},
	{"powder", "Spices"},
	{"paprika", "Spices"},
	{"cinnamon", "Spices"},
	{"chili", "Spices"},
}
