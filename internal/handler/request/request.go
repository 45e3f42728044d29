// Package request extracts the acting identity and common parameters from a
// gin request.
package request

import (
	"fileinbox-service/internal/model/permission"
	"fileinbox-service/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Actor builds the acting identity from the session, if any.
func Actor(c *gin.Context) permission.Actor {
	var a permission.Actor
	if id, ok := middleware.UserID(c); ok {
		userID := id
		a.UserID = &userID
	}
	a.Email = middleware.UserEmail(c)
	return a
}

// ClaimedActor additionally accepts the claimed email an anonymous uploader
// sends with the request. A session email always wins over a claimed one.
func ClaimedActor(c *gin.Context) permission.Actor {
	a := Actor(c)
	if a.Email == "" {
		if email := c.GetHeader("X-Uploader-Email"); email != "" {
			a.Email = email
		} else {
			a.Email = c.PostForm("email")
		}
	}
	return a
}

func UUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

// OptionalUUIDQuery parses a query parameter that may be absent; absent maps
// to nil, which callers read as "the workspace root".
func OptionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
