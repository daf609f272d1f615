package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/world/internal/infrastructure/http/v1/dto"
)

func (h *Handler) Prims(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusOK, "got prims", h.worldUseCase.Prims())
}

func (h *Handler) CreatePrim(c *gin.Context) {
	var req dto.PrimRequest
	if !h.bind(c, &req) {
		return
	}

	p, err := h.worldUseCase.CreatePrim(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.respondWithUseCaseError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusCreated, "prim created", p)
}

func (h *Handler) UpdatePrim(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req dto.PrimRequest
	if !h.bind(c, &req) {
		return
	}

	p := req.ToDomain()
	p.ID = id

	p, err := h.worldUseCase.UpdatePrim(c.Request.Context(), p)
	if err != nil {
		h.respondWithUseCaseError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "prim updated", p)
}
