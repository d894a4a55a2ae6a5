package bootstrap

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGinMode(t *testing.T) {
	cases := []struct {
		env, override, want string
	}{
		{env: "production", want: gin.ReleaseMode},
		{env: "staging", want: gin.ReleaseMode},
		{env: "test", want: gin.TestMode},
		{env: "development", want: gin.DebugMode},
		{env: "", want: gin.DebugMode},
		{env: "production", override: gin.DebugMode, want: gin.DebugMode},
		{env: "development", override: "loud", want: gin.DebugMode},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ginMode(tc.env, tc.override), "%s/%s", tc.env, tc.override)
	}
}
