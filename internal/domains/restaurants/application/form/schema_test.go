package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
)

func validDraft() Draft {
	return Draft{
		RestaurantName:        "Trattoria",
		City:                  "Leeds",
		Country:               "UK",
		DeliveryPrice:         "599",
		EstimatedDeliveryTime: "30",
		Cuisines:              []string{"Italian"},
		MenuItems:             []MenuItemDraft{{Name: "Pizza", Price: "10"}},
		ImageURL:              "http://x/img.png",
	}
}

func TestValidate_AcceptsAndCoerces(t *testing.T) {
	restaurant, errs := Validate(validDraft())

	require.Empty(t, errs)
	assert.Equal(t, int64(599), restaurant.DeliveryPrice)
	assert.Equal(t, int64(30), restaurant.EstimatedDeliveryTime)
	assert.Equal(t, []domain.MenuItem{{Name: "Pizza", Price: 10}}, restaurant.MenuItems)
	assert.Equal(t, "Trattoria", restaurant.RestaurantName)
}

func TestValidate_MissingScalarFields(t *testing.T) {
	cases := []struct {
		key     string
		mutate  func(*Draft)
		message string
	}{
		{"restaurantName", func(d *Draft) { d.RestaurantName = "" }, "restaurant name is required"},
		{"city", func(d *Draft) { d.City = "   " }, "city is required"},
		{"country", func(d *Draft) { d.Country = "" }, "country is required"},
		{"deliveryPrice", func(d *Draft) { d.DeliveryPrice = "" }, "delivery price is required"},
		{"estimatedDeliveryTime", func(d *Draft) { d.EstimatedDeliveryTime = "" }, "estimated delivery time is required"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			d := validDraft()
			tc.mutate(&d)

			_, errs := Validate(d)

			require.Len(t, errs, 1)
			assert.Equal(t, tc.message, errs.Get(tc.key))
		})
	}
}

func TestValidate_NonNumericInput(t *testing.T) {
	d := validDraft()
	d.DeliveryPrice = "five"
	d.EstimatedDeliveryTime = "30 minutes"
	d.MenuItems[0].Price = "ten"

	_, errs := Validate(d)

	assert.Equal(t, FieldErrors{
		"deliveryPrice":         "must be a valid number",
		"estimatedDeliveryTime": "must be a valid number",
		"menuItems[0][price]":   "must be a valid number",
	}, errs)
}

func TestValidate_Cuisines(t *testing.T) {
	d := validDraft()
	d.Cuisines = nil
	_, errs := Validate(d)
	assert.Equal(t, "please select at least one item", errs.Get("cuisines"))

	d.Cuisines = []string{}
	_, errs = Validate(d)
	assert.Equal(t, "please select at least one item", errs.Get("cuisines"))

	d.Cuisines = []string{"Sushi"}
	_, errs = Validate(d)
	assert.Empty(t, errs)
}

func TestValidate_MenuItems(t *testing.T) {
	cases := []struct {
		name  string
		item  MenuItemDraft
		key   string
		error string
	}{
		{"zero price", MenuItemDraft{Name: "Soup", Price: "0"}, "menuItems[1][price]", "price must be at least 1"},
		{"negative price", MenuItemDraft{Name: "Soup", Price: "-4"}, "menuItems[1][price]", "price must be at least 1"},
		{"missing price", MenuItemDraft{Name: "Soup"}, "menuItems[1][price]", "price is required"},
		{"empty name", MenuItemDraft{Name: "", Price: "5"}, "menuItems[1][name]", "name is required"},
		{"boundary", MenuItemDraft{Name: "Bread", Price: "1"}, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			d.MenuItems = append(d.MenuItems, tc.item)

			restaurant, errs := Validate(d)

			if tc.key == "" {
				require.Empty(t, errs)
				assert.Equal(t, int64(1), restaurant.MenuItems[1].Price)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tc.error, errs.Get(tc.key))
			assert.False(t, errs.Has("menuItems[0][price]"), "only the offending item is rejected")
		})
	}
}

func TestValidate_ImageSources(t *testing.T) {
	d := validDraft()
	d.ImageURL = ""
	_, errs := Validate(d)
	assert.Equal(t, FieldErrors{"imageFile": "Either image URL or image File must be provided"}, errs)

	d.ImageFile = &domain.ImageFile{Filename: "a.png", Data: []byte("x")}
	_, errs = Validate(d)
	assert.Empty(t, errs)

	d.ImageFile = nil
	d.ImageURL = "http://x/img.png"
	_, errs = Validate(d)
	assert.Empty(t, errs)
}

func TestValidate_TrimsInput(t *testing.T) {
	d := validDraft()
	d.RestaurantName = "  Trattoria  "
	d.DeliveryPrice = " 599 "
	d.Cuisines = []string{" Italian ", ""}

	restaurant, errs := Validate(d)

	require.Empty(t, errs)
	assert.Equal(t, "Trattoria", restaurant.RestaurantName)
	assert.Equal(t, int64(599), restaurant.DeliveryPrice)
	assert.Equal(t, []string{"Italian"}, restaurant.Cuisines)
}

func TestFieldKey(t *testing.T) {
	assert.Equal(t, "city", fieldKey("Draft.city"))
	assert.Equal(t, "menuItems[3][name]", fieldKey("Draft.menuItems[3].name"))
}
