package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/paulexconde/surveychat/internal/models"
	"github.com/paulexconde/surveychat/internal/pkg/paginator"
	"github.com/paulexconde/surveychat/internal/services"
)

type SurveyController struct {
	surveys   services.SurveyService
	responses services.ResponseService
	logger    *slog.Logger
}

func NewSurveyController(surveys services.SurveyService, responses services.ResponseService, logger *slog.Logger) *SurveyController {
	return &SurveyController{surveys: surveys, responses: responses, logger: logger}
}

func (sc *SurveyController) CreateSurvey(c *gin.Context) {
	var survey models.Survey
	if err := c.ShouldBindJSON(&survey); err != nil {
		RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := sc.surveys.CreateSurvey(c.Request.Context(), survey)
	if err != nil {
		HandleServiceError(c, sc.logger, err)
		return
	}

	RespondSuccess(c, http.StatusCreated, created, "Survey created")
}

// ListSurveys returns every active survey, or one page of them when page or
// limit is given.
func (sc *SurveyController) ListSurveys(c *gin.Context) {
	pageStr, limitStr := c.Query("page"), c.Query("limit")

	if pageStr == "" && limitStr == "" {
		surveys, err := sc.surveys.ListSurveys(c.Request.Context())
		if err != nil {
			HandleServiceError(c, sc.logger, err)
			return
		}
		RespondSuccess(c, http.StatusOK, surveys, "Fetched surveys successfully")
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		RespondError(c, http.StatusBadRequest, "Invalid page number")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(paginator.DefaultLimit)))
	if err != nil || limit < 1 || limit > paginator.MaxLimit {
		RespondError(c, http.StatusBadRequest, "Invalid limit (must be 1-100)")
		return
	}

	res, err := sc.surveys.PaginateSurveys(c.Request.Context(), page, limit)
	if err != nil {
		HandleServiceError(c, sc.logger, err)
		return
	}

	RespondSuccess(c, http.StatusOK, res, "Fetched surveys successfully")
}

func (sc *SurveyController) GetSurvey(c *gin.Context) {
	survey, err := sc.surveys.GetSurvey(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, sc.logger, err)
		return
	}

	RespondSuccess(c, http.StatusOK, survey, "")
}

func (sc *SurveyController) UpdateSurvey(c *gin.Context) {
	var update models.SurveyUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := sc.surveys.UpdateSurvey(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		HandleServiceError(c, sc.logger, err)
		return
	}

	RespondSuccess(c, http.StatusOK, updated, "Survey updated")
}

func (sc *SurveyController) DeleteSurvey(c *gin.Context) {
	if err := sc.surveys.DeleteSurvey(c.Request.Context(), c.Param("id")); err != nil {
		HandleServiceError(c, sc.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (sc *SurveyController) ListResponses(c *gin.Context) {
	responses, err := sc.responses.GetSurveyResponses(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, sc.logger, err)
		return
	}

	RespondSuccess(c, http.StatusOK, responses, "")
}
