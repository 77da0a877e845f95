package utils

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		p := ParsePage(c)
		return c.JSON(fiber.Map{"page": p.Page, "limit": p.Limit, "offset": p.Offset()})
	})

	cases := map[string]string{
		"/":                                    `{"limit":10,"offset":0,"page":1}`,
		"/?page=3&limit=20":                    `{"limit":20,"offset":40,"page":3}`,
		"/?page=0&limit=-5":                    `{"limit":10,"offset":0,"page":1}`,
		"/?page=abc&limit=500":                 `{"limit":100,"offset":0,"page":1}`,
		"/?page=9223372036854775807&limit=100": `{"limit":100,"offset":9999900,"page":100000}`,
	}
	for url, want := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", url, nil))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, want, string(body), url)
	}
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated[string](nil, Page{Page: 2, Limit: 10}, 21)
	assert.NotNil(t, p.Data, "empty pages encode as []")
	assert.Equal(t, 3, p.Meta.TotalPages)
	assert.EqualValues(t, 21, p.Meta.Total)

	empty := NewPaginated([]int{}, Page{Page: 1, Limit: 10}, 0)
	assert.Zero(t, empty.Meta.TotalPages)
}
