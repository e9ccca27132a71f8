package places

import (
	"strings"

	"tripwise/models"
	"tripwise/utils"
)

// Filter returns the places in the selected category (CategoryNone for all) whose name contains query
func Filter(list []models.Place, query string, category models.Category) []models.Place {
	blank := strings.TrimSpace(query) == ""
	result := []models.Place{}
	for _, p := range list {
		if category != models.CategoryNone && p.Category != category {
			continue
		}
		if !blank && !utils.ContainsFold(p.Name, query) {
			continue
		}
		result = append(result, p)
	}
	return result
}

// ToggleCategory selects c, or clears the filter when c is already selected
func ToggleCategory(selected, c models.Category) models.Category {
	if selected == c {
		return models.CategoryNone
	}
	return c
}
