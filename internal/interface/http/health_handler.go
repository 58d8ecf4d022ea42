package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/bmi-tracker/pkg/response"
)

func Health(c *gin.Context) {
	response.Message(c, http.StatusOK, "BMI Calculator API is running")
}
