package handler

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/world/internal/geo"
	"github.com/jaennil/guide_helper/backend/world/internal/infrastructure/http/v1/dto"
	"github.com/jaennil/guide_helper/backend/world/internal/tilecache"
)

var errTileNotAnchored = errors.New("tile is not anchored by any region")

// Tile serves the tile of a known region as PNG once it is cached. Until then
// it answers 202 and the client polls. Tiles no region is anchored to are 404.
func (h *Handler) Tile(c *gin.Context) {
	l := requestLogger(c)

	strX := c.Param("x")
	strY := c.Param("y")
	strZ := c.Param("z")

	x, err := strconv.ParseInt(strX, 10, 64)
	if err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, "x should be integer", nil)
		return
	}

	y, err := strconv.ParseInt(strY, 10, 64)
	if err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, "y should be integer", nil)
		return
	}

	z, err := strconv.ParseUint(strZ, 10, 32)
	if err != nil {
		h.RespondWithJSON(c, http.StatusBadRequest, "z should be integer", nil)
		return
	}

	addr, err := geo.NewTileAddress(x, y, uint32(z))
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, err)
		return
	}

	anchored, err := h.worldUseCase.IsAnchoredTile(c.Request.Context(), addr)
	if err != nil {
		h.RespondWithInternalServerError(c, err)
		return
	}
	if !anchored {
		h.RespondWithError(c, http.StatusNotFound, errTileNotAnchored)
		return
	}

	outcome, t := h.tileLoader.Request(addr)
	if outcome != tilecache.AlreadyLoaded {
		l.Debug("tile not ready", "tile", addr, "outcome", outcome)
		h.RespondWithJSON(c, http.StatusAccepted, "tile is loading", dto.TileLoadingResponse{
			Tile:    addr.String(),
			Outcome: outcome.String(),
		})
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, t.RGBA()); err != nil {
		h.RespondWithInternalServerError(c, fmt.Errorf("encode tile %s: %w", addr, err))
		return
	}

	c.Header("Cache-Control", "public, max-age=604800")
	c.Header("X-OpenStreetMap-Attribution", "© OpenStreetMap contributors")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (h *Handler) CacheStats(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusOK, "got cache stats", h.tileLoader.Cache().Stats())
}
