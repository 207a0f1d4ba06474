package client_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/turtacn/keyip-smiles/internal/application/smiles"
	httpserver "github.com/turtacn/keyip-smiles/internal/interfaces/http"
	"github.com/turtacn/keyip-smiles/internal/interfaces/http/handlers"
	"github.com/turtacn/keyip-smiles/internal/interfaces/http/middleware"
	"github.com/turtacn/keyip-smiles/pkg/client"
)

func startServer(t *testing.T, auth *middleware.AuthConfig) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := app.NewService(app.Config{MaxInputLength: 256, MaxBatchSize: 10, BatchConcurrency: 2})
	router := httpserver.NewRouter(httpserver.RouterConfig{
		SmilesHandler: handlers.NewSmilesHandler(svc),
		HealthHandler: handlers.NewHealthHandler("it", handlers.CheckerFunc("service", svc.Ready)),
		Auth:          auth,
		MaxBodySize:   1 << 16,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server.URL
}

func newServer(t *testing.T) *client.Client {
	t.Helper()
	c, err := client.NewClient(startServer(t, nil), client.WithRetryMax(0))
	require.NoError(t, err)
	return c
}

func TestIntegration_Parse(t *testing.T) {
	c := newServer(t)

	out, err := c.Parse(context.Background(), "c1ccccc1O", nil)
	require.NoError(t, err)
	assert.Equal(t, "C6H6O", out.Formula)
	assert.Equal(t, 7, out.HeavyAtoms)
	assert.NotEmpty(t, out.Atoms)
	assert.False(t, out.Cached)
}

func TestIntegration_ParseFailure(t *testing.T) {
	c := newServer(t)

	_, err := c.Parse(context.Background(), "C1CC", nil)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "SMI_006", apiErr.Code)
	assert.True(t, apiErr.IsParseFailure())
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestIntegration_Batch(t *testing.T) {
	c := newServer(t)

	out, err := c.ParseBatch(context.Background(), []string{"CCO", "C1CC", "c1ccccc1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	require.Len(t, out.Items, 3)
	assert.Equal(t, "C2H6O", out.Items[0].Result.Formula)
	require.NotNil(t, out.Items[1].Error)
	assert.Equal(t, "SMI_006", out.Items[1].Error.Code)
	assert.Equal(t, "C6H6", out.Items[2].Result.Formula)
}

func TestIntegration_Reaction(t *testing.T) {
	c := newServer(t)

	out, err := c.ParseReaction(context.Background(), "CC(=O)O..OCC>[Pt]>CC(=O)OCC..O", nil)
	require.NoError(t, err)
	require.Len(t, out.Reactants, 2)
	assert.Len(t, out.Catalysts, 1)
	require.Len(t, out.Products, 2)
	assert.Equal(t, "C2H4O2", out.Reactants[0].Formula)
	assert.Equal(t, "C2H6O", out.Reactants[1].Formula)
	assert.Equal(t, "C4H8O2", out.Products[0].Formula)
	assert.Equal(t, "H2O", out.Products[1].Formula)
}

func TestIntegration_HealthAndReady(t *testing.T) {
	c := newServer(t)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alive", h.Status)
	assert.Equal(t, "it", h.Version)

	r, err := c.Ready(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ready", r.Status)
}

func TestIntegration_PurgeCacheDisabled(t *testing.T) {
	c := newServer(t)

	_, err := c.PurgeCache(context.Background())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 501, apiErr.StatusCode)
	assert.Equal(t, "COMMON_016", apiErr.Code)
}

func TestIntegration_APIKey(t *testing.T) {
	url := startServer(t, &middleware.AuthConfig{Keys: map[string]string{"ci": "s3cret"}})

	anon, err := client.NewClient(url, client.WithRetryMax(0))
	require.NoError(t, err)
	_, err = anon.Parse(context.Background(), "C", nil)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Equal(t, "COMMON_003", apiErr.Code)

	authed, err := client.NewClient(url, client.WithRetryMax(0), client.WithAPIKey("s3cret"))
	require.NoError(t, err)
	out, err := authed.Parse(context.Background(), "C", nil)
	require.NoError(t, err)
	assert.Equal(t, "CH4", out.Formula)
}
