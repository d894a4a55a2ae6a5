package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		query         string
		limit, offset int
	}{
		{query: "", limit: DefaultPageSize, offset: 0},
		{query: "?limit=10&offset=20", limit: 10, offset: 20},
		{query: "?limit=100000", limit: MaxPageSize, offset: 0},
		{query: "?limit=-3&offset=-1", limit: DefaultPageSize, offset: 0},
		{query: "?limit=abc", limit: DefaultPageSize, offset: 0},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/x"+tc.query, nil)

		limit, offset := Page(c)
		assert.Equal(t, tc.limit, limit, tc.query)
		assert.Equal(t, tc.offset, offset, tc.query)
	}
}

func TestParseID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for raw, want := range map[string]bool{"7": true, "0": false, "-2": false, "x": false} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Params = gin.Params{{Key: "id", Value: raw}}
		_, ok := ParseID(c, "id")
		assert.Equal(t, want, ok, raw)
	}
}
