package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// The planning UI is served from its own origin, so the allow list is the
// whole policy. An empty list opens the API up, which suits local development.
type policy struct {
	allowAll bool
	origins  map[string]struct{}
}

// New builds a CORS middleware around an origin allow list.
func New(allowedOrigins []string) gin.HandlerFunc {
	p := policy{allowAll: len(allowedOrigins) == 0, origins: map[string]struct{}{}}
	for _, origin := range allowedOrigins {
		p.origins[normalize(origin)] = struct{}{}
	}

	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Set("Vary", "Origin")

		switch origin := c.GetHeader("Origin"); {
		case origin == "" && p.allowAll:
			header.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && p.allows(origin):
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
		}

		header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		header.Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With, X-Request-ID")
		header.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (p policy) allows(origin string) bool {
	if p.allowAll {
		return true
	}
	_, ok := p.origins[normalize(origin)]
	return ok
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(origin, "/"))
}
