//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "restaurant-api"
	ConsumerName = "restaurant-portal"

	StateUserExists        = "user pact-user exists"
	StateRestaurantExists  = "pact-user owns a restaurant"
	StateRestaurantMissing = "pact-user has no restaurant"

	// AccessToken is the bearer token the consumer sends in every interaction.
	AccessToken = "pact-access-token"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleUserPayload is the user served by the provider in StateUserExists.
func ExampleUserPayload() map[string]any {
	return map[string]any{
		"_id":          "64f0c0ffee0000000000user",
		"email":        "pact.user@example.com",
		"name":         "Pact User",
		"addressLine1": "1 Contract Street",
		"city":         "Leeds",
		"country":      "UK",
	}
}

// ExampleRestaurantPayload is the restaurant served in StateRestaurantExists.
// Numeric fields are strings, as the provider stores them.
func ExampleRestaurantPayload() map[string]any {
	return map[string]any{
		"_id":                   "64f0c0ffee000000000rest",
		"restaurantName":        "Pact Trattoria",
		"city":                  "Leeds",
		"country":               "UK",
		"deliveryPrice":         "599",
		"estimatedDeliveryTime": "30",
		"cuisines":              []string{"Italian", "Pizza"},
		"menuItems": []map[string]any{
			{"name": "Margherita", "price": 900},
		},
		"imageUrl": "https://example.pact/restaurants/trattoria.png",
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
