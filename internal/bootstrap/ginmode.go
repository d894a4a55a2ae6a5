package bootstrap

import "github.com/gin-gonic/gin"

// ginMode maps the deployment environment to a gin mode. A valid GIN_MODE
// overrides it.
func ginMode(env, override string) string {
	switch override {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return override
	}
	switch env {
	case "production", "staging":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	}
	return gin.DebugMode
}

func SetGinMode(env, override string) {
	gin.SetMode(ginMode(env, override))
}
