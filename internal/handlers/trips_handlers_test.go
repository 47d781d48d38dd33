package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gatherup/backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

func createTestGroup(t *testing.T, env *testEnv, token, name string) uint {
	t.Helper()

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/group/", map[string]any{
		"name": name,
	}, authHeaders(token))
	assertStatus(t, resp, fiber.StatusCreated)
	return uint(dataMap(t, decodeJSONMap(t, resp))["id"].(float64))
}

func createTestTrip(t *testing.T, env *testEnv, token string, groupID uint) uint {
	t.Helper()

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/trip/", map[string]any{
		"groupId":   groupID,
		"groupName": "final name",
		"date":      "2026-10-01~2026-10-03",
		"days": []map[string]any{
			{
				"day":         1,
				"destination": "Seoul",
				"locations": []map[string]any{
					{"name": "palace", "visitTime": "09:00", "category": "culture"},
					{"name": "market", "visitTime": "13:00", "category": "meals"},
				},
			},
		},
	}, authHeaders(token))
	assertStatus(t, resp, fiber.StatusCreated)
	return uint(dataMap(t, decodeJSONMap(t, resp))["tripID"].(float64))
}

func TestTripCreateAndDetails(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "host@test.com", "password123", "host")
	groupID := createTestGroup(t, env, token, "draft crew")
	tripID := createTestTrip(t, env, token, groupID)

	t.Run("details return day plans", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodGet,
			fmt.Sprintf("/api/trip/%d", tripID), nil, authHeaders(token))
		assertStatus(t, resp, fiber.StatusOK)

		data := dataMap(t, decodeJSONMap(t, resp))
		if data["groupName"] != "final name" {
			t.Fatalf("expected the renamed group, got %v", data["groupName"])
		}
		days, _ := data["days"].([]any)
		if len(days) != 1 {
			t.Fatalf("expected 1 day, got %v", data["days"])
		}
		locations := days[0].(map[string]any)["locations"].([]any)
		if len(locations) != 2 {
			t.Fatalf("expected 2 locations, got %d", len(locations))
		}
	})

	t.Run("mine lists the trip", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodGet, "/api/trip/mine", nil, authHeaders(token))
		assertStatus(t, resp, fiber.StatusOK)

		body := decodeJSONMap(t, resp)
		trips, _ := body["data"].([]any)
		if len(trips) != 1 {
			t.Fatalf("expected 1 trip, got %v", body["data"])
		}
	})

	t.Run("unknown trip is 404", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodGet, "/api/trip/99999", nil, authHeaders(token))
		assertStatus(t, resp, fiber.StatusNotFound)
	})

	t.Run("non-member cannot create a trip", func(t *testing.T) {
		_, outsiderToken := createTestUser(t, env.db, "outsider@test.com", "password123", "outsider")
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/trip/", map[string]any{
			"groupId":   groupID,
			"groupName": "hijack",
			"date":      "2026-10-01~2026-10-02",
		}, authHeaders(outsiderToken))
		assertStatus(t, resp, fiber.StatusForbidden)
	})
}

func TestLocationUpdateOverHTTP(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "host@test.com", "password123", "host")
	groupID := createTestGroup(t, env, token, "edit crew")
	tripID := createTestTrip(t, env, token, groupID)

	var location models.Location
	if err := env.db.First(&location, "trip_id = ? AND name = ?", tripID, "palace").Error; err != nil {
		t.Fatalf("expected seeded location: %v", err)
	}

	t.Run("update with matching version", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPatch,
			fmt.Sprintf("/api/trip/location/%d", location.ID), map[string]any{
				"name":            "royal palace",
				"expectedVersion": location.Version,
			}, authHeaders(token))
		assertStatus(t, resp, fiber.StatusOK)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPatch,
			fmt.Sprintf("/api/trip/location/%d", location.ID), map[string]any{
				"name":            "stale",
				"expectedVersion": location.Version,
			}, authHeaders(token))
		assertStatus(t, resp, fiber.StatusConflict)
	})

	t.Run("member of another group is refused", func(t *testing.T) {
		_, intruderToken := createTestUser(t, env.db, "intruder@test.com", "password123", "intruder")
		createTestGroup(t, env, intruderToken, "unrelated crew")

		resp := performJSONRequest(t, env.app, http.MethodPatch,
			fmt.Sprintf("/api/trip/location/%d", location.ID), map[string]any{
				"name": "hijacked",
			}, authHeaders(intruderToken))
		assertStatus(t, resp, fiber.StatusForbidden)

		deleteResp := performJSONRequest(t, env.app, http.MethodDelete,
			fmt.Sprintf("/api/trip/location/%d", location.ID), nil, authHeaders(intruderToken))
		assertStatus(t, deleteResp, fiber.StatusForbidden)
	})

	t.Run("delete location", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodDelete,
			fmt.Sprintf("/api/trip/location/%d", location.ID), nil, authHeaders(token))
		assertStatus(t, resp, fiber.StatusOK)

		again := performJSONRequest(t, env.app, http.MethodDelete,
			fmt.Sprintf("/api/trip/location/%d", location.ID), nil, authHeaders(token))
		assertStatus(t, again, fiber.StatusNotFound)
	})
}
