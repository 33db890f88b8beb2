package form

import (
	"errors"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
)

// MenuItemDraft is an editable menu row.
type MenuItemDraft struct {
	Name  string         `form:"name" validate:"required"`
	Price domain.Numeric `form:"price" validate:"required"`
}

// Draft is the editable, not yet validated restaurant. Numeric fields keep the
// text that was typed so invalid input can be reported instead of defaulted.
type Draft struct {
	RestaurantName        string            `form:"restaurantName" validate:"required"`
	City                  string            `form:"city" validate:"required"`
	Country               string            `form:"country" validate:"required"`
	DeliveryPrice         domain.Numeric    `form:"deliveryPrice" validate:"required"`
	EstimatedDeliveryTime domain.Numeric    `form:"estimatedDeliveryTime" validate:"required"`
	Cuisines              []string          `form:"cuisines" validate:"required,min=1"`
	MenuItems             []MenuItemDraft   `form:"menuItems" validate:"dive"`
	ImageURL              string            `form:"imageUrl"`
	ImageFile             *domain.ImageFile `form:"imageFile"`
}

// EmptyDraft is the draft of a restaurant that does not exist yet: no
// cuisines and one blank menu row.
func EmptyDraft() Draft {
	return Draft{
		Cuisines:  []string{},
		MenuItems: []MenuItemDraft{{}},
	}
}

// HasCuisine reports whether name is selected.
func (d Draft) HasCuisine(name string) bool {
	for _, c := range d.Cuisines {
		if c == name {
			return true
		}
	}
	return false
}

// AddMenuItem appends a blank menu row.
func (d *Draft) AddMenuItem() {
	d.MenuItems = append(d.MenuItems, MenuItemDraft{})
}

// RemoveMenuItem drops the row at index i; out of range indexes are ignored.
func (d *Draft) RemoveMenuItem(i int) {
	if i < 0 || i >= len(d.MenuItems) {
		return
	}
	d.MenuItems = append(d.MenuItems[:i:i], d.MenuItems[i+1:]...)
}

func (d Draft) clone() Draft {
	out := d
	out.Cuisines = append([]string{}, d.Cuisines...)
	out.MenuItems = append([]MenuItemDraft{}, d.MenuItems...)
	if d.ImageFile != nil {
		file := *d.ImageFile
		out.ImageFile = &file
	}
	return out
}

func (d Draft) normalized() Draft {
	out := d.clone()
	out.RestaurantName = strings.TrimSpace(out.RestaurantName)
	out.City = strings.TrimSpace(out.City)
	out.Country = strings.TrimSpace(out.Country)
	out.DeliveryPrice = domain.Numeric(strings.TrimSpace(string(out.DeliveryPrice)))
	out.EstimatedDeliveryTime = domain.Numeric(strings.TrimSpace(string(out.EstimatedDeliveryTime)))
	out.ImageURL = strings.TrimSpace(out.ImageURL)
	cuisines := out.Cuisines[:0]
	for _, c := range out.Cuisines {
		if c = strings.TrimSpace(c); c != "" {
			cuisines = append(cuisines, c)
		}
	}
	out.Cuisines = cuisines
	for i := range out.MenuItems {
		out.MenuItems[i].Name = strings.TrimSpace(out.MenuItems[i].Name)
		out.MenuItems[i].Price = domain.Numeric(strings.TrimSpace(string(out.MenuItems[i].Price)))
	}
	return out
}

const (
	msgInvalidNumber = "must be a valid number"
	msgImageRequired = "Either image URL or image File must be provided"
	msgPriceMinimum  = "price must be at least 1"
	msgInvalidValue  = "is invalid"
	tagImageRequired = "image_required"
)

var requiredMessages = map[string]string{
	"restaurantName":        "restaurant name is required",
	"city":                  "city is required",
	"country":               "country is required",
	"deliveryPrice":         "delivery price is required",
	"estimatedDeliveryTime": "estimated delivery time is required",
	"cuisines":              "please select at least one item",
	"name":                  "name is required",
	"price":                 "price is required",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		d := sl.Current().Interface().(Draft)
		if d.ImageURL == "" && d.ImageFile == nil {
			sl.ReportError(d.ImageFile, "imageFile", "ImageFile", tagImageRequired, "")
		}
	}, Draft{})
	return v
}

// Validate runs the structural rules then coerces numeric text. It returns
// the typed restaurant, or field errors keyed by input name.
func Validate(d Draft) (domain.Restaurant, FieldErrors) {
	d = d.normalized()
	errs := checkStructure(d)
	restaurant := coerce(d, errs)
	if len(errs) > 0 {
		return domain.Restaurant{}, errs
	}
	return restaurant, nil
}

func checkStructure(d Draft) FieldErrors {
	errs := FieldErrors{}
	err := validate.Struct(d)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.add("", err.Error())
		return errs
	}
	for _, fe := range verrs {
		key := fieldKey(fe.Namespace())
		errs.add(key, messageFor(key, fe))
	}
	return errs
}

func messageFor(key string, fe validator.FieldError) string {
	switch fe.Tag() {
	case tagImageRequired:
		return msgImageRequired
	case "required", "min":
		if msg, ok := requiredMessages[fe.Field()]; ok {
			return msg
		}
	}
	return key + " " + msgInvalidValue
}

// coerce parses numeric text for every field the structural pass accepted.
func coerce(d Draft, errs FieldErrors) domain.Restaurant {
	r := domain.Restaurant{
		RestaurantName: d.RestaurantName,
		City:           d.City,
		Country:        d.Country,
		Cuisines:       d.Cuisines,
		ImageURL:       d.ImageURL,
		ImageFile:      d.ImageFile,
		MenuItems:      make([]domain.MenuItem, 0, len(d.MenuItems)),
	}
	r.DeliveryPrice = coerceInt(errs, "deliveryPrice", d.DeliveryPrice)
	r.EstimatedDeliveryTime = coerceInt(errs, "estimatedDeliveryTime", d.EstimatedDeliveryTime)
	for i, item := range d.MenuItems {
		key := MenuItemKey(i, "price")
		price := coerceInt(errs, key, item.Price)
		if !errs.Has(key) && price < 1 {
			errs.add(key, msgPriceMinimum)
		}
		r.MenuItems = append(r.MenuItems, domain.MenuItem{Name: item.Name, Price: price})
	}
	return r
}

func coerceInt(errs FieldErrors, key string, n domain.Numeric) int64 {
	if errs.Has(key) {
		return 0
	}
	v, err := n.Int64()
	if err != nil {
		errs.add(key, msgInvalidNumber)
		return 0
	}
	return v
}

// fieldKey turns a validator namespace such as "Draft.menuItems[0].name"
// into the input name "menuItems[0][name]".
func fieldKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		b.WriteString("[" + p + "]")
	}
	return b.String()
}

// MenuItemKey is the input name of field in menu row i, e.g. "menuItems[1][price]".
func MenuItemKey(i int, field string) string {
	return fieldKey("Draft.menuItems[" + strconv.Itoa(i) + "]." + field)
}

// SortedKeys lists the keys of errs in a stable order.
func (e FieldErrors) SortedKeys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
