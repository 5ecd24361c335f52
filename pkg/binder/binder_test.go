package binder_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authorityengine/billing/pkg/binder"
)

func TestJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Resource string `json:"resource"`
		N        int64  `json:"n"`
	}

	t.Run("binds valid body", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"resource":"posts","n":2}`))
		r.Header.Set("Content-Type", "application/json")

		var p payload
		require.NoError(t, binder.JSON()(r, &p))
		assert.Equal(t, "posts", p.Resource)
		assert.Equal(t, int64(2), p.N)
	})

	t.Run("accepts charset parameter", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"resource":"posts"}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		var p payload
		assert.NoError(t, binder.JSON()(r, &p))
	})

	t.Run("rejects missing content type", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
		var p payload
		assert.ErrorIs(t, binder.JSON()(r, &p), binder.ErrMissingContentType)
	})

	t.Run("rejects wrong media type", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader("resource=posts"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		var p payload
		assert.ErrorIs(t, binder.JSON()(r, &p), binder.ErrUnsupportedMediaType)
	})

	t.Run("rejects empty and malformed bodies", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("POST", "/", strings.NewReader(""))
		r.Header.Set("Content-Type", "application/json")
		var p payload
		assert.ErrorIs(t, binder.JSON()(r, &p), binder.ErrFailedToParseJSON)

		r = httptest.NewRequest("POST", "/", strings.NewReader(`{"resource":`))
		r.Header.Set("Content-Type", "application/json")
		assert.ErrorIs(t, binder.JSON()(r, &p), binder.ErrFailedToParseJSON)
	})
}

func TestQuery(t *testing.T) {
	t.Parallel()

	type params struct {
		Feature   string   `query:"feature"`
		Resources []string `query:"resources"`
		Limit     int      `query:"limit"`
		Verbose   bool     `query:"verbose"`
		Skipped   string   `query:"-"`
	}

	t.Run("binds tagged fields", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/?feature=api_access&resources=posts,schedules&limit=5&verbose=true", nil)

		var p params
		require.NoError(t, binder.Query()(r, &p))
		assert.Equal(t, "api_access", p.Feature)
		assert.Equal(t, []string{"posts", "schedules"}, p.Resources)
		assert.Equal(t, 5, p.Limit)
		assert.True(t, p.Verbose)
		assert.Empty(t, p.Skipped)
	})

	t.Run("missing parameters keep zero values", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/?feature=api_access", nil)

		var p params
		require.NoError(t, binder.Query()(r, &p))
		assert.Zero(t, p.Limit)
	})

	t.Run("invalid number fails", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/?limit=many", nil)

		var p params
		assert.ErrorIs(t, binder.Query()(r, &p), binder.ErrFailedToParseQuery)
	})
}
