package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/world/internal/tilecache"
	"github.com/jaennil/guide_helper/backend/world/internal/usecase"
	"github.com/jaennil/guide_helper/backend/world/pkg/logger"
)

const (
	internalServerErrorText = "the server encountered an error and could not process your request"
)

var (
	ErrFailedToDecodeRequestBody = errors.New("failed to decode request body")
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Handler struct {
	validate     *validator.Validate
	worldUseCase *usecase.WorldUseCase
	tileLoader   *tilecache.Loader
}

func NewHandler(v *validator.Validate, world *usecase.WorldUseCase, loader *tilecache.Loader) *Handler {
	return &Handler{
		validate:     v,
		worldUseCase: world,
		tileLoader:   loader,
	}
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context, err error) {
	requestLogger(c).Error("internal http server error",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err,
	)
	h.RespondWithJSON(c, http.StatusInternalServerError, internalServerErrorText, nil)
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	success := code < 400

	r := response{
		Success: success,
		Message: message,
		Data:    data,
	}

	c.JSON(code, r)
}

func (h *Handler) RespondWithError(c *gin.Context, code int, err error) {
	h.RespondWithJSON(c, code, err.Error(), nil)
}

// respondWithUseCaseError maps use case errors onto status codes.
func (h *Handler) respondWithUseCaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrRegionNotFound), errors.Is(err, usecase.ErrPrimNotFound):
		h.RespondWithError(c, http.StatusNotFound, err)
	case errors.Is(err, usecase.ErrInvalidCoordinates):
		h.RespondWithError(c, http.StatusBadRequest, err)
	default:
		h.RespondWithInternalServerError(c, err)
	}
}

// bind decodes and validates the JSON body, answering 400 itself on failure.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		requestLogger(c).Warn("failed to decode request body", "error", err)
		h.RespondWithError(c, http.StatusBadRequest, ErrFailedToDecodeRequestBody)
		return false
	}

	if err := h.validate.Struct(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, err)
		return false
	}

	return true
}

func requestLogger(c *gin.Context) logger.Logger {
	if l, ok := c.Get("logger"); ok {
		if l, ok := l.(logger.Logger); ok {
			return l
		}
	}
	return logger.FromContext(c.Request.Context())
}
