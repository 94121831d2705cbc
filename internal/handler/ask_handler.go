package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docask/internal/model"
	"github.com/xxxsen/docask/internal/pkg/response"
	"github.com/xxxsen/docask/internal/service"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Question   string         `json:"question"`
	Answer     string         `json:"answer"`
	Sources    []model.Source `json:"sources"`
	Confidence float64        `json:"confidence"`
	Method     string         `json:"method"`
}

type AskHandler struct {
	answers *service.AnswerService
}

func NewAskHandler(answers *service.AnswerService) *AskHandler {
	return &AskHandler{answers: answers}
}

func (h *AskHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		response.Error(c, http.StatusBadRequest, "question is required")
		return
	}
	res, err := h.answers.Ask(c.Request.Context(), question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, askResponse{
		Question:   question,
		Answer:     res.Answer,
		Sources:    res.Sources,
		Confidence: res.Confidence,
		Method:     res.Method,
	})
}
