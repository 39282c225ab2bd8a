package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Header names carried by every protocol call. Authentication is a
// shared secret in REPO-TOKEN; build and instance identity ride along
// on the same headers.
const (
	HeaderBuildID    = "CI-BUILD-ID"
	HeaderInstanceID = "CI-INSTANCE-ID"
	HeaderToken      = "REPO-TOKEN"
)

const metaKey = "request-meta"

// RequestMeta identifies the caller of a protocol endpoint.
type RequestMeta struct {
	BuildID    string
	InstanceID string
}

// requireMeta extracts the build/instance/token headers and rejects the
// request when any is missing or the token does not match.
func (a *API) requireMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		buildID := c.GetHeader(HeaderBuildID)
		instanceID := c.GetHeader(HeaderInstanceID)
		token := c.GetHeader(HeaderToken)

		if buildID == "" || instanceID == "" || token != a.token {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Expected meta info like build id, instance id and token",
			})
			return
		}

		c.Set(metaKey, RequestMeta{BuildID: buildID, InstanceID: instanceID})
		c.Next()
	}
}

func meta(c *gin.Context) RequestMeta {
	return c.MustGet(metaKey).(RequestMeta)
}
