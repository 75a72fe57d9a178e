package checklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateShape(t *testing.T) {
	assert.Equal(t, 25, TemplateSize())

	seen := map[string]bool{}
	var categories []string
	for _, entry := range cleaningTemplate {
		assert.NotEmpty(t, entry.Category)
		assert.NotEmpty(t, entry.Task)
		if !seen[entry.Category] {
			seen[entry.Category] = true
			categories = append(categories, entry.Category)
		}
	}
	assert.Equal(t, []string{"Bedroom", "Bathroom", "Kitchen", "Living Room", "General"}, categories)
}

func TestTemplateCategoriesAreContiguous(t *testing.T) {
	// Template order drives display_order; a category reappearing later
	// would split its group in the checklist view.
	last := ""
	done := map[string]bool{}
	for _, entry := range cleaningTemplate {
		if entry.Category != last {
			if done[entry.Category] {
				t.Fatalf("category %q appears in more than one run", entry.Category)
			}
			done[last] = true
			last = entry.Category
		}
	}
}
