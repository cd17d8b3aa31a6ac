package views

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Palette maps category names to display colors.
type Palette map[string]string

// NewPalette returns the built-in colors overlaid with custom.
func NewPalette(custom []types.Category) Palette {
	p := make(Palette, len(types.BuiltinCategories)+len(custom))
	for _, c := range custom {
		p[c.Name] = c.Color
	}
	for _, c := range types.BuiltinCategories {
		p[c.Name] = c.Color
	}
	return p
}

// LoadPalette builds a Palette from the stored categories.
func LoadPalette(ctx context.Context, store types.CategoryStore) (Palette, error) {
	custom, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading category colors: %w", err)
	}
	return NewPalette(custom), nil
}

// Color returns the color for name, or the default gray.
func (p Palette) Color(name string) string {
	if c, ok := p[name]; ok && c != "" {
		return c
	}
	return types.DefaultCategoryColor
}
