package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramsFor(t *testing.T, target string) *Params {
	t.Helper()

	app := fiber.New()
	var params *Params
	app.Get("/", func(c *fiber.Ctx) error {
		params = GetParams(c)
		return c.SendStatus(fiber.StatusOK)
	})

	_, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	require.NotNil(t, params)
	return params
}

func TestGetParams(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		params := paramsFor(t, "/")
		assert.Equal(t, 1, params.Page)
		assert.Equal(t, DefaultLimit, params.Limit)
		assert.Equal(t, 0, params.Offset)
	})

	t.Run("explicit page and limit", func(t *testing.T) {
		params := paramsFor(t, "/?page=3&limit=10")
		assert.Equal(t, 3, params.Page)
		assert.Equal(t, 10, params.Limit)
		assert.Equal(t, 20, params.Offset)
	})

	t.Run("invalid values fall back", func(t *testing.T) {
		params := paramsFor(t, "/?page=-1&limit=abc")
		assert.Equal(t, 1, params.Page)
		assert.Equal(t, DefaultLimit, params.Limit)
	})

	t.Run("limit is capped", func(t *testing.T) {
		params := paramsFor(t, "/?limit=10000")
		assert.Equal(t, MaxLimit, params.Limit)
	})
}

func TestGetMeta(t *testing.T) {
	t.Run("partial last page rounds up", func(t *testing.T) {
		meta := GetMeta(&Params{Page: 1, Limit: 10}, 25)
		assert.Equal(t, 3, meta.TotalPages)
		assert.True(t, meta.HasNext)
		assert.False(t, meta.HasPrev)
	})

	t.Run("middle page has both directions", func(t *testing.T) {
		meta := GetMeta(&Params{Page: 2, Limit: 10}, 30)
		assert.True(t, meta.HasNext)
		assert.True(t, meta.HasPrev)
	})

	t.Run("empty result", func(t *testing.T) {
		meta := GetMeta(&Params{Page: 1, Limit: 10}, 0)
		assert.Equal(t, 0, meta.TotalPages)
		assert.False(t, meta.HasNext)
	})
}
