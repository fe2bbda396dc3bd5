package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/campus-content/pkg/campuscontent"
	"github.com/tendant/campus-content/pkg/campuscontent/api"
	"github.com/tendant/campus-content/pkg/campuscontent/config"
)

func newTestRouter(t *testing.T, mutate func(*config.ServerConfig)) (http.Handler, string) {
	t.Helper()
	cfg, err := config.Load(func(c *config.ServerConfig) error {
		c.Environment = "testing"
		if mutate != nil {
			mutate(c)
		}
		return nil
	})
	require.NoError(t, err)

	svc, cleanup, err := cfg.BuildService(t.Context(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	auth := api.NewAuth("server-test")
	_, tok, err := auth.Encode(map[string]interface{}{"sub": "u1", "name": "Asha"})
	require.NoError(t, err)

	return newRouter(svc, cfg, auth, nil), tok
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	for _, path := range []string{"/healthz", "/healthz/ready"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestMetricsEndpointFollowsConfig(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	router, _ = newTestRouter(t, func(c *config.ServerConfig) { c.EnableMetrics = true })
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCreateAndListProject(t *testing.T) {
	router, tok := newTestRouter(t, nil)

	body, err := json.Marshal(api.CreateProjectBody{Title: "Study Buddy", Description: "Match study partners", Skills: []string{"go"}})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/projects?skill=go", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var projects []campuscontent.Project
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "Asha", projects[0].OwnerDisplayName)
	assert.Equal(t, campuscontent.ProjectStatusOpen, projects[0].Status)
}
