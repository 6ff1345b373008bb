package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/instrument-catalog/internal/catalog/validation"
	types "github.com/yungbote/instrument-catalog/internal/domain"
	"github.com/yungbote/instrument-catalog/internal/http/templates"
	"github.com/yungbote/instrument-catalog/internal/pkg/ctxutil"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
	"github.com/yungbote/instrument-catalog/internal/platform/apierr"
	"github.com/yungbote/instrument-catalog/internal/services"
)

const (
	latestInstruments = 3
	msgPageNotFound   = "We couldn't find the page you were looking for."
	msgPageForbidden  = "You can only change instruments that you created."
	msgPageError      = "Something went wrong on our end. Please try again later."
)

type PageConfig struct {
	BaseURL    string
	RateLimits string
}

// PageHandler renders the browser-facing HTML pages.
type PageHandler struct {
	log               *logger.Logger
	categoryService   services.CategoryService
	instrumentService services.InstrumentService
	authService       services.AuthService
	cfg               PageConfig
}

func NewPageHandler(
	log *logger.Logger,
	categoryService services.CategoryService,
	instrumentService services.InstrumentService,
	authService services.AuthService,
	cfg PageConfig,
) *PageHandler {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &PageHandler{
		log:               log.With("handler", "PageHandler"),
		categoryService:   categoryService,
		instrumentService: instrumentService,
		authService:       authService,
		cfg:               cfg,
	}
}

// instrumentForm is what the create and edit forms render.
type instrumentForm struct {
	ID             int
	Action         string
	Name           string
	Description    string
	Image          string
	CategoryID     int
	AlternateNames []string
	Errors         []string
}

func altNameSlots(names []string) []string {
	out := make([]string, validation.MaxFormAlternateNames)
	copy(out, names)
	return out
}

func formFromView(v types.InstrumentView) instrumentForm {
	f := instrumentForm{
		ID:             v.ID,
		Action:         fmt.Sprintf("/instruments/%d/edit", v.ID),
		Name:           v.Name,
		Description:    v.Description,
		CategoryID:     v.CategoryID,
		AlternateNames: altNameSlots(v.AlternateNames),
	}
	if v.Image != nil {
		f.Image = *v.Image
	}
	return f
}

func formFromResult(res *validation.Result, id int, action string) instrumentForm {
	rec := res.Record
	f := instrumentForm{
		ID:             id,
		Action:         action,
		AlternateNames: altNameSlots(rec.AlternateNames),
		Errors:         res.Errors,
	}
	if rec.Name != nil {
		f.Name = *rec.Name
	}
	if rec.Description != nil {
		f.Description = *rec.Description
	}
	if rec.Image != nil {
		f.Image = *rec.Image
	}
	if rec.CategoryID != nil {
		f.CategoryID = *rec.CategoryID
	}
	return f
}

func currentUser(c *gin.Context) *ctxutil.RequestData {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if !rd.Authenticated() {
		return nil
	}
	return rd
}

// page builds the template data shared by every page.
func (h *PageHandler) page(c *gin.Context, title string, extra gin.H) gin.H {
	cats, err := h.categoryService.List(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to load categories for page", "error", err)
		cats = nil
	}
	data := gin.H{
		"Title":      title,
		"Categories": cats,
		"Flashes":    popFlashes(c),
		"BaseURL":    h.cfg.BaseURL,
	}
	if u := currentUser(c); u != nil {
		data["User"] = u
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func (h *PageHandler) renderError(c *gin.Context, status int, message string) {
	title := http.StatusText(status)
	c.HTML(status, templates.PageError, h.page(c, title, gin.H{"Status": status, "Message": message}))
}

// fail renders the error page matching err.
func (h *PageHandler) fail(c *gin.Context, err error) {
	switch status := apierr.StatusOf(err); {
	case status == http.StatusNotFound:
		h.renderError(c, status, msgPageNotFound)
	case status == http.StatusForbidden:
		h.renderError(c, status, msgPageForbidden)
	case status < 500:
		var ae *apierr.Error
		msg := http.StatusText(status)
		if errors.As(err, &ae) && ae.Err != nil {
			msg = ae.Err.Error()
		}
		h.renderError(c, status, msg)
	default:
		h.log.Error("Page request failed", "path", c.FullPath(), "error", err)
		h.renderError(c, http.StatusInternalServerError, msgPageError)
	}
}

func (h *PageHandler) NotFound(c *gin.Context) {
	h.renderError(c, http.StatusNotFound, msgPageNotFound)
}

// GET /
func (h *PageHandler) Index(c *gin.Context) {
	list, err := h.instrumentService.Latest(c.Request.Context(), latestInstruments)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, templates.PageIndex, h.page(c, "", gin.H{"Instruments": views(list)}))
}

// GET /categories
func (h *PageHandler) Categories(c *gin.Context) {
	c.HTML(http.StatusOK, templates.PageCategories, h.page(c, "Categories", nil))
}

// GET /categories/:id
func (h *PageHandler) Category(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	cat, err := h.categoryService.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	list, err := h.categoryService.ListInstruments(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, templates.PageCategory, h.page(c, cat.Name, gin.H{
		"Category":    cat,
		"Instruments": views(list),
	}))
}

type categoryGroup struct {
	Category    *types.Category
	Instruments []types.InstrumentView
}

// GET /instruments lists every instrument under its category.
func (h *PageHandler) Instruments(c *gin.Context) {
	list, err := h.instrumentService.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	data := h.page(c, "All instruments", nil)
	cats, _ := data["Categories"].([]*types.Category)
	byCategory := make(map[int][]types.InstrumentView, len(cats))
	for _, inst := range list {
		byCategory[inst.CategoryID] = append(byCategory[inst.CategoryID], inst.View())
	}
	groups := make([]categoryGroup, 0, len(cats))
	for _, cat := range cats {
		groups = append(groups, categoryGroup{Category: cat, Instruments: byCategory[cat.ID]})
	}
	data["Groups"] = groups
	c.HTML(http.StatusOK, templates.PageInstruments, data)
}

// GET /instruments/:id
func (h *PageHandler) Instrument(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	inst, err := h.instrumentService.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	owner := false
	if u := currentUser(c); u != nil {
		owner = inst.OwnedBy(u.UserID)
	}
	var cat *types.Category
	if got, err := h.categoryService.Get(c.Request.Context(), inst.CategoryID); err == nil {
		cat = got
	}
	c.HTML(http.StatusOK, templates.PageInstrument, h.page(c, inst.Name, gin.H{
		"Instrument": inst.View(),
		"Category":   cat,
		"Owner":      owner,
	}))
}

// GET /instruments/new
func (h *PageHandler) NewInstrumentForm(c *gin.Context) {
	form := instrumentForm{Action: "/instruments/new", AlternateNames: altNameSlots(nil)}
	if raw := c.Query("category_id"); raw != "" {
		form.CategoryID, _ = strconv.Atoi(raw)
	}
	c.HTML(http.StatusOK, templates.PageInstrumentForm, h.page(c, "Add an instrument", gin.H{"Form": form}))
}

// POST /instruments/new
func (h *PageHandler) CreateInstrument(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		h.renderError(c, http.StatusBadRequest, "The submitted form could not be read.")
		return
	}
	inst, err := h.instrumentService.Create(c.Request.Context(), currentUser(c).UserID, validation.FormInput(c.Request.PostForm))
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			form := formFromResult(verr.Result, 0, "/instruments/new")
			c.HTML(http.StatusBadRequest, templates.PageInstrumentForm, h.page(c, "Add an instrument", gin.H{"Form": form}))
			return
		}
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/instruments/%d", inst.ID))
}

// GET /instruments/:id/edit
func (h *PageHandler) EditInstrumentForm(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	inst, err := h.instrumentService.GetOwned(c.Request.Context(), currentUser(c).UserID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, templates.PageInstrumentForm, h.page(c, "Edit "+inst.Name, gin.H{"Form": formFromView(inst.View())}))
}

// POST /instruments/:id/edit replaces every field, as the form always
// submits the full record.
func (h *PageHandler) UpdateInstrument(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		h.renderError(c, http.StatusBadRequest, "The submitted form could not be read.")
		return
	}
	in := validation.FormInput(c.Request.PostForm)
	inst, err := h.instrumentService.Update(c.Request.Context(), currentUser(c).UserID, id, in, validation.ModeCreate)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			form := formFromResult(verr.Result, id, fmt.Sprintf("/instruments/%d/edit", id))
			c.HTML(http.StatusBadRequest, templates.PageInstrumentForm, h.page(c, "Edit instrument", gin.H{"Form": form}))
			return
		}
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/instruments/%d", inst.ID))
}

// GET /instruments/:id/delete
func (h *PageHandler) DeleteInstrumentForm(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	inst, err := h.instrumentService.GetOwned(c.Request.Context(), currentUser(c).UserID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, templates.PageDelete, h.page(c, "Delete "+inst.Name, gin.H{"Instrument": inst.View()}))
}

// POST /instruments/:id/delete redirects to the instrument's former category.
func (h *PageHandler) DeleteInstrument(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	actor := currentUser(c).UserID
	inst, err := h.instrumentService.GetOwned(c.Request.Context(), actor, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.instrumentService.Delete(c.Request.Context(), actor, id); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/categories/%d", inst.CategoryID))
}

// GET /my
func (h *PageHandler) MyInstruments(c *gin.Context) {
	list, err := h.instrumentService.ListByUser(c.Request.Context(), currentUser(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, templates.PageMy, h.page(c, "My instruments", gin.H{"Instruments": views(list)}))
}

// GET /api-docs shows a fresh API key to logged-in users.
func (h *PageHandler) APIDocs(c *gin.Context) {
	extra := gin.H{"RateLimits": h.cfg.RateLimits}
	if u := currentUser(c); u != nil {
		key, exp, err := h.authService.IssueAPIKey(c.Request.Context(), u.UserID)
		if err != nil {
			h.fail(c, err)
			return
		}
		extra["APIKey"] = key
		extra["APIKeyExpires"] = exp.Format("2006-01-02")
	}
	c.HTML(http.StatusOK, templates.PageAPIDocs, h.page(c, "API documentation", extra))
}
