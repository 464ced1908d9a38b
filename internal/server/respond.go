package server

import "github.com/gin-gonic/gin"

// errorResponse is the uniform error body.
type errorResponse struct {
	Detail string `json:"detail"`
}

// respondError writes the uniform error body with the given status.
func respondError(c *gin.Context, status int, detail string) {
	c.JSON(status, errorResponse{Detail: detail})
}
