package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/bmi-tracker/internal/application"
	"github.com/oksasatya/bmi-tracker/internal/interface/middleware"
	"github.com/oksasatya/bmi-tracker/pkg/helpers"
	"github.com/oksasatya/bmi-tracker/pkg/response"
	"github.com/oksasatya/bmi-tracker/pkg/validation"
)

type BMIHandler struct {
	Svc    *application.BMIService
	Logger *logrus.Logger
}

func NewBMIHandler(svc *application.BMIService, logger *logrus.Logger) *BMIHandler {
	return &BMIHandler{Svc: svc, Logger: logger}
}

func (h *BMIHandler) bindMeasurement(c *gin.Context) (application.MeasurementInput, bool) {
	var in application.MeasurementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Invalid(c, validation.ToErrors(err))
		return in, false
	}
	return in, true
}

// Submit handles POST /api/bmi.
func (h *BMIHandler) Submit(c *gin.Context) {
	in, ok := h.bindMeasurement(c)
	if !ok {
		return
	}
	rec, err := h.Svc.Submit(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		h.fail(c, "add bmi record", err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{
		"message": "BMI record added successfully",
		"bmi":     toRecordResponse(*rec),
	})
}

// Preview handles POST /api/bmi/calculate; nothing is stored.
func (h *BMIHandler) Preview(c *gin.Context) {
	in, ok := h.bindMeasurement(c)
	if !ok {
		return
	}
	bmi, cat, err := h.Svc.Preview(in)
	if err != nil {
		h.fail(c, "preview bmi", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"bmi": bmi, "category": cat})
}

func (h *BMIHandler) History(c *gin.Context) {
	recs, err := h.Svc.History(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, "get bmi history", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"bmiRecords": toRecordResponses(recs),
		"count":      len(recs),
	})
}

func (h *BMIHandler) Latest(c *gin.Context) {
	rec, err := h.Svc.Latest(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, "get latest bmi", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"bmi": toRecordResponse(*rec)})
}

func (h *BMIHandler) Delete(c *gin.Context) {
	if err := h.Svc.Remove(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.fail(c, "delete bmi record", err)
		return
	}
	response.Message(c, http.StatusOK, "BMI record deleted successfully")
}

func (h *BMIHandler) Stats(c *gin.Context) {
	st, err := h.Svc.Stats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, "get bmi stats", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"averageBMI":           st.AverageBMI,
		"trend":                st.Trend,
		"categoryDistribution": st.CategoryDistribution,
		"bmiRecords":           toRecordResponses(st.Records),
	})
}

// Export handles POST /api/bmi/export.
func (h *BMIHandler) Export(c *gin.Context) {
	url, err := h.Svc.Export(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, "export bmi history", err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"message": "BMI history exported successfully", "url": url})
}

// fail maps service errors onto the API contract. Anything unexpected is
// logged with request context and answered with a bare 500.
func (h *BMIHandler) fail(c *gin.Context, op string, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		response.Invalid(c, verrs)
	case errors.Is(err, application.ErrRecordNotFound):
		response.Message(c, http.StatusNotFound, "BMI record not found")
	case errors.Is(err, application.ErrNoRecords):
		response.Message(c, http.StatusNotFound, "No BMI records found")
	case errors.Is(err, application.ErrExportUnavailable):
		response.Message(c, http.StatusServiceUnavailable, "Export is not available")
	default:
		helpers.LogError(h.Logger, op+" failed", err, logrus.Fields{
			"request_id": c.GetString(middleware.CtxRequestIDKey),
			"user_id":    middleware.UserID(c),
		})
		response.ServerError(c)
	}
}
