package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gatherup/backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

func TestAnalysisAndHistoryOverHTTP(t *testing.T) {
	env := setupTestEnv(t)
	host, hostToken := createTestUser(t, env.db, "host@test.com", "password123", "host")

	groupID := createTestGroup(t, env, hostToken, "analysts")
	tripID := createTestTrip(t, env, hostToken, groupID)

	saveResp := performJSONRequest(t, env.app, http.MethodPost,
		fmt.Sprintf("/api/payment/%d", tripID), map[string]any{
			"payments": []map[string]any{
				{"description": "lunch", "price": 20000, "category": "meals", "date": "2026-10-01", "paidByID": host.ID},
				{"description": "taxi", "price": 10000, "category": "transport", "date": "2026-10-02", "paidByID": host.ID},
			},
		}, authHeaders(hostToken))
	assertStatus(t, saveResp, fiber.StatusCreated)

	t.Run("analysis totals and marks the group finished", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodGet,
			fmt.Sprintf("/api/analysis/%d", tripID), nil, authHeaders(hostToken))
		assertStatus(t, resp, fiber.StatusOK)

		data := dataMap(t, decodeJSONMap(t, resp))
		if total, _ := data["totalAmount"].(float64); int64(total) != 30000 {
			t.Fatalf("expected total 30000, got %v", data["totalAmount"])
		}

		var group models.Group
		if err := env.db.First(&group, groupID).Error; err != nil {
			t.Fatalf("failed reloading group: %v", err)
		}
		if !group.Finished {
			t.Fatal("expected group marked finished after analysis")
		}
	})

	t.Run("finished trip shows up in history", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodGet, "/api/history", nil, authHeaders(hostToken))
		assertStatus(t, resp, fiber.StatusOK)

		body := decodeJSONMap(t, resp)
		entries, _ := body["data"].([]any)
		if len(entries) != 1 {
			t.Fatalf("expected 1 history entry, got %v", body["data"])
		}
		entry := entries[0].(map[string]any)
		if uint(entry["tripID"].(float64)) != tripID {
			t.Fatalf("expected trip %d in history, got %v", tripID, entry)
		}
	})

	t.Run("analysis of an unknown trip is 404", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodGet, "/api/analysis/99999", nil, authHeaders(hostToken))
		assertStatus(t, resp, fiber.StatusNotFound)
	})
}
