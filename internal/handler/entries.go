package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/smart-cafe/internal/model"
	"github.com/iliyamo/smart-cafe/internal/repository"
	"github.com/iliyamo/smart-cafe/internal/validation"
)

// EntryHandler serves the private diary.  Every route is scoped to the
// caller; entries of other users answer 404.
type EntryHandler struct {
	Entries *repository.EntryRepo
	Log     *zap.Logger
}

func NewEntryHandler(entries *repository.EntryRepo, log *zap.Logger) *EntryHandler {
	if entries == nil {
		panic("nil repository passed to NewEntryHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EntryHandler{Entries: entries, Log: log}
}

type entryReq struct {
	validation.EntryForm
	ImageURL string `json:"image_url"`
}

// List handles GET /api/entries.
func (h *EntryHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	entries, err := h.Entries.ListByUser(ctx, uid)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "database error")
	}
	return ok(c, http.StatusOK, echo.Map{"entries": entries})
}

// Get handles GET /api/entries/:id.
func (h *EntryHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	e, err := h.Entries.Get(ctx, id, uid)
	if err != nil {
		return writeErr(c, err, "Entry")
	}
	return ok(c, http.StatusOK, echo.Map{"entry": e})
}

// Create handles POST /api/entries.
func (h *EntryHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var req entryReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	fe := validation.NewFieldErrors()
	if !validation.New(fe).ValidateEntry(req.EntryForm) {
		return invalid(c, fe)
	}
	e := &model.Entry{
		UserID:   uid,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Mood:     strings.TrimSpace(req.Mood),
		ImageURL: strings.TrimSpace(req.ImageURL),
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Entries.Create(ctx, e); err != nil {
		h.Log.Error("create entry", zap.Uint64("user_id", uid), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "create failed")
	}
	saved, err := h.Entries.Get(ctx, e.ID, uid)
	if err != nil {
		return writeErr(c, err, "Entry")
	}
	return ok(c, http.StatusCreated, echo.Map{"message": "Entry saved", "entry": saved})
}

// Update handles PUT /api/entries/:id.  Title and content are replaced;
// omitted mood and image keep their value.
func (h *EntryHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req entryReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	fe := validation.NewFieldErrors()
	if !validation.New(fe).ValidateEntry(req.EntryForm) {
		return invalid(c, fe)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	e, err := h.Entries.Get(ctx, id, uid)
	if err != nil {
		return writeErr(c, err, "Entry")
	}
	e.Title = strings.TrimSpace(req.Title)
	e.Content = req.Content
	mergeString(&e.Mood, req.Mood)
	mergeString(&e.ImageURL, req.ImageURL)
	if err := h.Entries.Update(ctx, e); err != nil {
		return writeErr(c, err, "Entry")
	}
	return ok(c, http.StatusOK, echo.Map{"message": "Entry updated", "entry": e})
}

// Delete handles DELETE /api/entries/:id.
func (h *EntryHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Entries.Delete(ctx, id, uid); err != nil {
		return writeErr(c, err, "Entry")
	}
	return ok(c, http.StatusOK, echo.Map{"message": "Entry deleted"})
}
