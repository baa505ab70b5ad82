package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ParamID parses the named path parameter as an id.
func ParamID(ctx *gin.Context, name string) (uuid.UUID, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s not found", name)
	}

	id, err := uuid.Parse(raw)

	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}

	return id, nil
}
