package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cvenhancer/core/internal/config"
)

func TestReadinessChecks_NilPoolAndRedisFail(t *testing.T) {
	checks := ReadinessChecks(config.Config{}, nil, nil)

	require.Error(t, checks["postgres"](context.Background()))
	require.Error(t, checks["redis"](context.Background()))
	require.NoError(t, checks["objectStore"](context.Background()))
	_, hasTika := checks["tika"]
	require.False(t, hasTika)
}

func TestReadinessChecks_TikaOnlyWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checks := ReadinessChecks(config.Config{TikaURL: srv.URL}, nil, nil)
	tika, ok := checks["tika"]
	require.True(t, ok)
	require.NoError(t, tika(context.Background()))
}

func TestReadinessChecks_TikaNonOKStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	checks := ReadinessChecks(config.Config{TikaURL: srv.URL}, nil, nil)
	require.Error(t, checks["tika"](context.Background()))
}
