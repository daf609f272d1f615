package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/world/internal/infrastructure/http/v1/dto"
)

var errInvalidID = errors.New("id should be a positive integer")

func (h *Handler) Regions(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusOK, "got regions", h.worldUseCase.Regions())
}

func (h *Handler) CreateRegion(c *gin.Context) {
	var req dto.CreateRegionRequest
	if !h.bind(c, &req) {
		return
	}

	region, err := h.worldUseCase.CreateRegion(c.Request.Context(), req.Name, *req.Latitude, *req.Longitude)
	if err != nil {
		h.respondWithUseCaseError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusCreated, "region created", region)
}

func (h *Handler) MoveRegion(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req dto.MoveRegionRequest
	if !h.bind(c, &req) {
		return
	}

	region, err := h.worldUseCase.MoveRegion(c.Request.Context(), id, *req.Latitude, *req.Longitude)
	if err != nil {
		h.respondWithUseCaseError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "region moved", region)
}

func (h *Handler) ReanchorRegion(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	region, err := h.worldUseCase.ReanchorRegion(c.Request.Context(), id)
	if err != nil {
		h.respondWithUseCaseError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "region reanchored", region)
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.RespondWithError(c, http.StatusBadRequest, errInvalidID)
		return 0, false
	}
	return id, true
}
