package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/turtacn/keyip-smiles/internal/application/smiles"
)

// ParseRequest is the body of POST /api/v1/smiles/parse and
// POST /api/v1/reactions/parse.
type ParseRequest struct {
	SMILES               string `json:"smiles" binding:"required"`
	Mode                 string `json:"mode"`
	MakeHydrogenExplicit bool   `json:"make_hydrogen_explicit"`
	SmartsWarnings       bool   `json:"smarts_warnings"`
}

// BatchRequest is the body of POST /api/v1/smiles/batch.
type BatchRequest struct {
	Items                []string `json:"items" binding:"required"`
	Mode                 string   `json:"mode"`
	MakeHydrogenExplicit bool     `json:"make_hydrogen_explicit"`
	SmartsWarnings       bool     `json:"smarts_warnings"`
}

// CacheInvalidateResponse is returned by DELETE /api/v1/cache.
type CacheInvalidateResponse struct {
	Deleted int64 `json:"deleted"`
}

// SmilesHandler exposes the parse service over HTTP.
type SmilesHandler struct {
	svc app.Service
}

func NewSmilesHandler(svc app.Service) *SmilesHandler {
	return &SmilesHandler{svc: svc}
}

// Parse handles POST /api/v1/smiles/parse.
func (h *SmilesHandler) Parse(c *gin.Context) {
	var req ParseRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.svc.Parse(c.Request.Context(), &app.ParseInput{
		SMILES:               req.SMILES,
		Mode:                 req.Mode,
		MakeHydrogenExplicit: req.MakeHydrogenExplicit,
		SmartsWarnings:       req.SmartsWarnings,
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ParseReaction handles POST /api/v1/reactions/parse.
func (h *SmilesHandler) ParseReaction(c *gin.Context) {
	var req ParseRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.svc.ParseReaction(c.Request.Context(), &app.ReactionInput{
		SMILES:               req.SMILES,
		Mode:                 req.Mode,
		MakeHydrogenExplicit: req.MakeHydrogenExplicit,
		SmartsWarnings:       req.SmartsWarnings,
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ParseBatch handles POST /api/v1/smiles/batch.  Item failures are part of
// a 200 response; only request level failures produce an error status.
func (h *SmilesHandler) ParseBatch(c *gin.Context) {
	var req BatchRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.svc.ParseBatch(c.Request.Context(), &app.BatchInput{
		Items:                req.Items,
		Mode:                 req.Mode,
		MakeHydrogenExplicit: req.MakeHydrogenExplicit,
		SmartsWarnings:       req.SmartsWarnings,
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// InvalidateCache handles DELETE /api/v1/cache.
func (h *SmilesHandler) InvalidateCache(c *gin.Context) {
	n, err := h.svc.InvalidateCache(c.Request.Context())
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, CacheInvalidateResponse{Deleted: n})
}
