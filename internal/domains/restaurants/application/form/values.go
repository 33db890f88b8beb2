package form

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
)

// Cuisines is the catalogue offered by the cuisine checkboxes.
var Cuisines = []string{
	"American", "BBQ", "Breakfast", "Burgers", "Cafe", "Chinese", "Desserts",
	"French", "Greek", "Healthy", "Indian", "Italian", "Japanese", "Mexican",
	"Noodles", "Organic", "Pasta", "Pizza", "Salads", "Seafood", "Spanish",
	"Steak", "Sushi", "Tacos", "Tapas", "Vegan",
}

var (
	cuisineKeyPattern  = regexp.MustCompile(`^cuisines\[(\d+)\]$`)
	menuItemKeyPattern = regexp.MustCompile(`^menuItems\[(\d+)\]\[(name|price)\]$`)
)

// DraftFromValues rebuilds a draft from posted form values. It accepts the
// same bracketed keys the payload uses as well as repeated "cuisines" values
// from checkboxes. Menu rows keep the order of their indexes.
func DraftFromValues(values map[string][]string, file *domain.ImageFile) Draft {
	d := Draft{
		RestaurantName:        first(values, "restaurantName"),
		City:                  first(values, "city"),
		Country:               first(values, "country"),
		DeliveryPrice:         domain.Numeric(first(values, "deliveryPrice")),
		EstimatedDeliveryTime: domain.Numeric(first(values, "estimatedDeliveryTime")),
		ImageURL:              first(values, "imageUrl"),
		ImageFile:             file,
		Cuisines:              append([]string{}, values["cuisines"]...),
		MenuItems:             []MenuItemDraft{},
	}

	indexedCuisines := map[int]string{}
	rows := map[int]*MenuItemDraft{}
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		if m := cuisineKeyPattern.FindStringSubmatch(key); m != nil {
			idx, _ := strconv.Atoi(m[1])
			indexedCuisines[idx] = vals[0]
			continue
		}
		if m := menuItemKeyPattern.FindStringSubmatch(key); m != nil {
			idx, _ := strconv.Atoi(m[1])
			row, ok := rows[idx]
			if !ok {
				row = &MenuItemDraft{}
				rows[idx] = row
			}
			if m[2] == "name" {
				row.Name = vals[0]
			} else {
				row.Price = domain.Numeric(vals[0])
			}
		}
	}
	for _, idx := range sortedIndexes(indexedCuisines) {
		if c := indexedCuisines[idx]; !d.HasCuisine(c) {
			d.Cuisines = append(d.Cuisines, c)
		}
	}
	for _, idx := range sortedIndexes(rows) {
		d.MenuItems = append(d.MenuItems, *rows[idx])
	}
	return d
}

func first(values map[string][]string, key string) string {
	if vals := values[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func sortedIndexes[V any](m map[int]V) []int {
	idx := make([]int, 0, len(m))
	for i := range m {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}
