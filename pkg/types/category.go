package types

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category is a named classification with a display color.
type Category struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Built-in category names. These are never stored as rows.
const (
	CategoryWork     = "work"
	CategoryPersonal = "personal"
	CategoryHealth   = "health"
	CategoryMeals    = "meals"
	CategorySleep    = "sleep"
	CategoryOther    = "other"
)

// DefaultCategoryColor is used for unknown categories.
const DefaultCategoryColor = "#808080"

// BuiltinCategories lists the built-in categories in display order.
var BuiltinCategories = []Category{
	{Name: CategoryWork, Color: "#4a6fa5"},
	{Name: CategoryPersonal, Color: "#9d4edd"},
	{Name: CategoryHealth, Color: "#40916c"},
	{Name: CategoryMeals, Color: "#e76f51"},
	{Name: CategorySleep, Color: "#7209b7"},
	{Name: CategoryOther, Color: DefaultCategoryColor},
}

// NormalizeCategoryName trims and lowercases a category name.
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BuiltinColor returns the fixed color of a built-in category.
func BuiltinColor(name string) (string, bool) {
	for _, c := range BuiltinCategories {
		if c.Name == name {
			return c.Color, true
		}
	}
	return "", false
}

// IsBuiltinCategory reports whether name is one of the built-in categories.
func IsBuiltinCategory(name string) bool {
	_, ok := BuiltinColor(name)
	return ok
}

// RandomCategoryColor returns an HSL color with saturation in [50,80) and
// lightness in [30,50), readable behind white text.
func RandomCategoryColor() string {
	hue := rand.IntN(360)
	saturation := rand.IntN(30) + 50
	lightness := rand.IntN(20) + 30
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", hue, saturation, lightness)
}

// Normalized returns c with a normalized name and a color filled in.
// Returns ErrInvalidName if the name is empty after normalization.
func (c Category) Normalized() (Category, error) {
	c.Name = NormalizeCategoryName(c.Name)
	if c.Name == "" {
		return Category{}, ErrInvalidName
	}
	if c.Color == "" {
		if color, ok := BuiltinColor(c.Name); ok {
			c.Color = color
		} else {
			c.Color = RandomCategoryColor()
		}
	}
	return c, nil
}

// DisplayName capitalizes the first letter of a category name.
func DisplayName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
