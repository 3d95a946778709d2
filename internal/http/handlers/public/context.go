package public

import (
	handlershared "github.com/hmdp-next/internal/http/handlers/shared"
	"github.com/hmdp-next/internal/models"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func currentUser(c *gin.Context) (*models.UserDTO, bool) {
	return handlershared.CurrentUser(c)
}

func paramID(c *gin.Context, invalidKey string) (int64, bool) {
	return handlershared.ParamInt64(c, "id", invalidKey)
}
