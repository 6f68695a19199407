// Package handler adapts the services to gin. Handlers parse the request,
// call one service method and write the JSON result.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/homebase/internal/auth"
	"github.com/mmynk/homebase/internal/respond"
)

// caller returns the authenticated identity, writing a 401 when absent.
func caller(c *gin.Context) (auth.Identity, bool) {
	id, ok := auth.IdentityFrom(c.Request.Context())
	if !ok {
		respond.Error(c, auth.ErrMissingToken)
	}
	return id, ok
}

func queryBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}
