package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/pkg/apierrors"
	"gorm.io/gorm"
)

type AuthenticatedUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
}

// AuthMiddleware accepts a bearer header, the token cookie, or a token query
// parameter (browsers cannot set headers on websocket upgrades).
func AuthMiddleware(conn *gorm.DB, signer *auth.Signer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := extractToken(ctx)

		if !ok {
			abortUnauthorized(ctx)
			return
		}

		userID, err := signer.VerifyJWT(tokenString)

		if err != nil {
			abortUnauthorized(ctx)
			return
		}

		var user models.User

		if err := conn.WithContext(ctx.Request.Context()).Where("id = ?", userID).Take(&user).Error; err != nil {
			abortUnauthorized(ctx)
			return
		}

		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:       user.ID,
			Username: user.Username,
			Name:     user.Name,
			Email:    user.Email,
		})
		ctx.Next()
	}
}

func extractToken(ctx *gin.Context) (string, bool) {
	if header := ctx.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}

		return parts[1], true
	}

	if cookie, err := ctx.Cookie(types.TokenCookie); err == nil && cookie != "" {
		return cookie, true
	}

	if token := ctx.Query("token"); token != "" {
		return token, true
	}

	return "", false
}

func abortUnauthorized(ctx *gin.Context) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, apierrors.CreateError(http.StatusUnauthorized, apierrors.MsgUnauthorized, GetLang(ctx)))
}
