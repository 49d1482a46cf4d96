package records_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"ledger-reconciler/core/docstore/memstore"
	"ledger-reconciler/feature/records"
	"ledger-reconciler/feature/reports"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHandleLookup(t *testing.T) {
	registry, err := reports.NewRegistry()
	require.NoError(t, err)
	store := memstore.New()
	require.NoError(t, reports.NewReconciler(store, registry).GrantReport(context.Background(),
		map[string]any{"grantId": "G1", "probi": "30000000000000000000", "promotionId": "PR1"}))

	app := fiber.New()
	feature := records.NewFeature(store, registry, zap.NewNop())
	require.NoError(t, feature.Load(app))

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"Found", "/records/grants?grantId=G1", fiber.StatusOK},
		{"NotFound", "/records/grants?grantId=G9", fiber.StatusNotFound},
		{"UnknownEntity", "/records/ledgers?id=1", fiber.StatusNotFound},
		{"IncompleteKey", "/records/voting?surveyorId=S1", fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/records/grants?grantId=G1", nil))
	require.NoError(t, err)
	var rec records.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.Equal(t, "30000000000000000000", rec.Fields["probi"])
	assert.Equal(t, "PR1", rec.Fields["promotionId"])
}

func TestHandleEntities(t *testing.T) {
	registry, err := reports.NewRegistry()
	require.NoError(t, err)

	app := fiber.New()
	require.NoError(t, records.NewFeature(memstore.New(), registry, zap.NewNop()).Load(app))

	resp, err := app.Test(httptest.NewRequest("GET", "/records", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var entities []records.Description
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entities))
	assert.Len(t, entities, 5)
}
