package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"teraproxy/internal"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

func timestamp() string {
	return time.Now().UTC().Format(timestampFormat)
}

// successBody is the envelope every JSON endpoint answers with
func successBody(data any) gin.H {
	return gin.H{
		"success":   true,
		"data":      data,
		"timestamp": timestamp(),
	}
}

func errorBody(msg string) gin.H {
	return gin.H{
		"success":   false,
		"error":     msg,
		"timestamp": timestamp(),
	}
}

func respondSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, successBody(data))
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorBody(msg))
}

// respondFailure maps a core error to its status code and logs it
func respondFailure(c *gin.Context, err error) {
	if te, ok := internal.AsTeraboxError(err); ok {
		requestLogger(c).Warn("%s failed: %s", c.FullPath(), te.DetailedError())
		respondError(c, te.HTTPStatus(), te.Error())
		return
	}
	requestLogger(c).Error("%s failed: %v", c.FullPath(), err)
	respondError(c, http.StatusInternalServerError, err.Error())
}

// requireQuery returns the named query values, or answers 400 listing every missing one
func requireQuery(c *gin.Context, names ...string) ([]string, bool) {
	values := make([]string, len(names))
	var missing []string
	for i, name := range names {
		values[i] = strings.TrimSpace(c.Query(name))
		if values[i] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		respondError(c, http.StatusBadRequest, "Missing required parameters: "+strings.Join(missing, ", "))
		return nil, false
	}
	return values, true
}
