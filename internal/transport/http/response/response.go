package response

import "github.com/gin-gonic/gin"

// ErrorBody is the error shape for every REST endpoint.
type ErrorBody struct {
	Detail string `json:"detail"`
}

func Error(c *gin.Context, httpStatus int, detail string) {
	c.JSON(httpStatus, ErrorBody{Detail: detail})
}
