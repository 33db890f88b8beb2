package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/domain"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/users/ports"
)

func TestBuildProfilePage_States(t *testing.T) {
	loading := BuildProfilePage(ports.UserQuery{IsLoading: true}, false)
	assert.Equal(t, PageLoading, loading.State)
	assert.Equal(t, "Loading user profile...", loading.Message)
	assert.Nil(t, loading.Form)

	missing := BuildProfilePage(ports.UserQuery{}, false)
	assert.Equal(t, PageUnavailable, missing.State)
	assert.Equal(t, "Unable to load user profile", missing.Message)
	assert.Nil(t, missing.Form)

	user := &domain.User{Email: "a@b.c", Name: "Ada", City: "Leeds"}
	ready := BuildProfilePage(ports.UserQuery{CurrentUser: user}, true)
	assert.Equal(t, PageReady, ready.State)
	require.NotNil(t, ready.Form)
	assert.Equal(t, "a@b.c", ready.Form.Email)
	assert.Equal(t, "Leeds", ready.Form.City)
	assert.True(t, ready.IsLoading)
}

func TestProfileDraft_Validate(t *testing.T) {
	current := &domain.User{ID: "u1", Email: "a@b.c"}

	_, errs := ProfileDraft{Name: " ", City: "Leeds"}.Validate(current)
	assert.Equal(t, FieldErrors{
		"name":         "name is required",
		"addressLine1": "address line 1 is required",
		"country":      "country is required",
	}, errs)

	user, errs := ProfileDraft{Email: "ignored@x.y", Name: " Ada ", AddressLine1: "1 Road", City: "Leeds", Country: "UK"}.Validate(current)
	require.Empty(t, errs)
	assert.Equal(t, &domain.User{ID: "u1", Email: "a@b.c", Name: "Ada", AddressLine1: "1 Road", City: "Leeds", Country: "UK"}, user)
	assert.Empty(t, current.Name, "current user is not modified")
}
