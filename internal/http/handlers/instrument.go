package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/instrument-catalog/internal/catalog/validation"
	types "github.com/yungbote/instrument-catalog/internal/domain"
	"github.com/yungbote/instrument-catalog/internal/http/response"
	"github.com/yungbote/instrument-catalog/internal/pkg/ctxutil"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
	"github.com/yungbote/instrument-catalog/internal/platform/apierr"
	"github.com/yungbote/instrument-catalog/internal/services"
)

const (
	MsgBodyNotObject = "The request body must be a JSON object."
	maxJSONBody      = 1 << 20
)

// InstrumentHandler serves the JSON instrument endpoints.
type InstrumentHandler struct {
	log               *logger.Logger
	instrumentService services.InstrumentService
}

func NewInstrumentHandler(log *logger.Logger, instrumentService services.InstrumentService) *InstrumentHandler {
	return &InstrumentHandler{log: log.With("handler", "InstrumentHandler"), instrumentService: instrumentService}
}

func views(list []*types.Instrument) []types.InstrumentView {
	out := make([]types.InstrumentView, 0, len(list))
	for _, inst := range list {
		out = append(out, inst.View())
	}
	return out
}

func readJSONObject(c *gin.Context) (validation.Input, error) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxJSONBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	var in map[string]any
	if err := json.Unmarshal(raw, &in); err != nil || in == nil {
		return nil, apierr.BadRequest("invalid_json", MsgBodyNotObject)
	}
	return validation.Input(in), nil
}

func isValidation(err error) bool {
	var verr *validation.Error
	return errors.As(err, &verr)
}

func actorID(c *gin.Context) int {
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		return rd.UserID
	}
	return 0
}

// GET /api/instruments
func (h *InstrumentHandler) List(c *gin.Context) {
	list, err := h.instrumentService.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, h.log, err, nil)
		return
	}
	response.RespondOK(c, http.StatusOK, views(list))
}

// POST /api/instruments
func (h *InstrumentHandler) Create(c *gin.Context) {
	in, err := readJSONObject(c)
	if err != nil {
		response.RespondError(c, h.log, err, nil)
		return
	}
	inst, err := h.instrumentService.Create(c.Request.Context(), actorID(c), in)
	if err != nil {
		response.RespondError(c, h.log, err, nil)
		return
	}
	c.Header("Location", fmt.Sprintf("/instruments/%d", inst.ID))
	response.RespondOK(c, http.StatusCreated, inst.View())
}

// GET /api/instruments/:id
func (h *InstrumentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.RespondErrors(c, http.StatusNotFound, nil, services.MsgInstrumentNotFound)
		return
	}
	inst, err := h.instrumentService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, h.log, err, nil)
		return
	}
	response.RespondOK(c, http.StatusOK, inst.View())
}

// PUT /api/instruments/:id applies a partial update.
func (h *InstrumentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.RespondErrors(c, http.StatusNotFound, nil, services.MsgInstrumentNotFound)
		return
	}
	in, err := readJSONObject(c)
	if err != nil {
		response.RespondError(c, h.log, err, gin.H{"id": id})
		return
	}
	inst, err := h.instrumentService.Update(c.Request.Context(), actorID(c), id, in, validation.ModePartial)
	if err != nil {
		var data gin.H
		if apierr.Is(err, http.StatusBadRequest) || isValidation(err) {
			data = gin.H{"id": id}
		}
		response.RespondError(c, h.log, err, data)
		return
	}
	response.RespondOK(c, http.StatusOK, inst.View())
}

// DELETE /api/instruments/:id succeeds for ids that no longer exist.
func (h *InstrumentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.RespondErrors(c, http.StatusNotFound, nil, services.MsgInstrumentNotFound)
		return
	}
	if _, err := h.instrumentService.Delete(c.Request.Context(), actorID(c), id); err != nil {
		response.RespondError(c, h.log, err, gin.H{"instrument_id": id})
		return
	}
	response.RespondOK(c, http.StatusOK, gin.H{"deleted_instrument_id": id})
}

// GET /api/my-instruments
func (h *InstrumentHandler) ListMine(c *gin.Context) {
	list, err := h.instrumentService.ListByUser(c.Request.Context(), actorID(c))
	if err != nil {
		response.RespondError(c, h.log, err, nil)
		return
	}
	response.RespondOK(c, http.StatusOK, views(list))
}
