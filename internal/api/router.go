package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP handler of the service.
func NewRouter(
	logger *slog.Logger,
	healthController *HealthController,
	surveyController *SurveyController,
	chatController *ChatController,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceIDMiddleware())
	r.Use(RequestLogger(logger))

	RegisterRoutes(r, healthController, surveyController, chatController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	healthController *HealthController,
	surveyController *SurveyController,
	chatController *ChatController) {

	v1 := r.Group("/api/v1")
	v1.GET("/health", healthController.Health)

	surveysGroup := v1.Group("/surveys")
	surveysGroup.POST("", surveyController.CreateSurvey)
	surveysGroup.GET("", surveyController.ListSurveys)
	surveysGroup.GET("/:id", surveyController.GetSurvey)
	surveysGroup.PUT("/:id", surveyController.UpdateSurvey)
	surveysGroup.DELETE("/:id", surveyController.DeleteSurvey)
	surveysGroup.GET("/:id/responses", surveyController.ListResponses)

	respondGroup := v1.Group("/respond")
	respondGroup.GET("/survey/:survey_id/user/:user_id", chatController.Respond)
}
