package application

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/domain"
)

// ProfileDraft is the editable user profile. Email is displayed read-only and
// never sent back.
type ProfileDraft struct {
	Email        string `form:"-"`
	Name         string `form:"name" validate:"required"`
	AddressLine1 string `form:"addressLine1" validate:"required"`
	City         string `form:"city" validate:"required"`
	Country      string `form:"country" validate:"required"`
}

// FieldErrors maps an input name to its message.
type FieldErrors map[string]string

// SortedKeys lists the keys of e in a stable order.
func (e FieldErrors) SortedKeys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var profileMessages = map[string]string{
	"name":         "name is required",
	"addressLine1": "address line 1 is required",
	"city":         "city is required",
	"country":      "country is required",
}

var profileValidate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// DraftFromUser seeds the profile form.
func DraftFromUser(user *domain.User) ProfileDraft {
	if user == nil {
		return ProfileDraft{}
	}
	return ProfileDraft{
		Email:        user.Email,
		Name:         user.Name,
		AddressLine1: user.AddressLine1,
		City:         user.City,
		Country:      user.Country,
	}
}

// Validate trims the draft and checks the required fields. On success the
// returned user carries the edits applied on top of current.
func (d ProfileDraft) Validate(current *domain.User) (*domain.User, FieldErrors) {
	d.Name = strings.TrimSpace(d.Name)
	d.AddressLine1 = strings.TrimSpace(d.AddressLine1)
	d.City = strings.TrimSpace(d.City)
	d.Country = strings.TrimSpace(d.Country)

	if err := profileValidate.Struct(d); err != nil {
		errs := FieldErrors{}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs[""] = err.Error()
			return nil, errs
		}
		for _, fe := range verrs {
			errs[fe.Field()] = profileMessages[fe.Field()]
		}
		return nil, errs
	}

	var user domain.User
	if current != nil {
		user = *current
	}
	user.ApplyProfile(domain.User{Name: d.Name, AddressLine1: d.AddressLine1, City: d.City, Country: d.Country})
	return &user, nil
}
