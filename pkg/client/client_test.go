package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"topics_go/internal/server"
	"topics_go/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := storage.NewJSONStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	srv := httptest.NewServer(server.NewRouter(store, server.RouterOptions{AuthToken: token}, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAgainstServer(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, "tok")
	c := New(srv.URL+"/", "tok")

	cat, err := c.CreateCategory(ctx, " Books ")
	require.NoError(t, err)
	assert.Equal(t, "Books", cat.Name)

	list, err := c.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	cat, err = c.UpdateCategory(ctx, cat.ID, "Novels")
	require.NoError(t, err)
	got, err := c.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Novels", got.Name)

	topic, err := c.CreateTopic(ctx, cat.ID, "Dune")
	require.NoError(t, err)
	topic, err = c.UpdateTopic(ctx, topic.ID, "Dune Messiah")
	require.NoError(t, err)
	gotTopic, err := c.GetTopic(ctx, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, topic, gotTopic)

	topics, err := c.ListTopics(ctx, cat.ID)
	require.NoError(t, err)
	assert.Len(t, topics, 1)

	require.NoError(t, c.DeleteTopic(ctx, topic.ID))
	require.NoError(t, c.DeleteCategory(ctx, cat.ID))

	_, err = c.GetCategory(ctx, cat.ID)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Category not found", apiErr.Message)
}

func TestClientValidationError(t *testing.T) {
	srv := newTestServer(t, "")
	_, err := New(srv.URL, "").CreateCategory(context.Background(), "  ")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Name is required", apiErr.Message)
}

func TestClientUnauthorized(t *testing.T) {
	srv := newTestServer(t, "tok")
	_, err := New(srv.URL, "").ListCategories(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
