package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/smart-cafe/internal/model"
	"github.com/iliyamo/smart-cafe/internal/repository"
	"github.com/iliyamo/smart-cafe/internal/validation"
)

// ReportHandler serves the lost-items and found-items boards and the
// matching lookups.  Each method takes the report kind so both boards share
// one implementation.
type ReportHandler struct {
	Reports *repository.ReportRepo
	Log     *zap.Logger
}

func NewReportHandler(reports *repository.ReportRepo, log *zap.Logger) *ReportHandler {
	if reports == nil {
		panic("nil repository passed to NewReportHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportHandler{Reports: reports, Log: log}
}

type reportReq struct {
	validation.ItemReportForm
	Date         string `json:"date"`
	ImageURL     string `json:"image_url"`
	ReporterName string `json:"reporterName"`
	Status       string `json:"status"`
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func noun(kind string) string {
	if kind == model.KindFound {
		return "Found item"
	}
	return "Lost item"
}

// List handles GET /api/{lost,found}-items?user_id=.
func (h *ReportHandler) List(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var owner uint64
		if q := c.QueryParam("user_id"); q != "" {
			id, valid := parseUint(q)
			if !valid {
				return fail(c, http.StatusBadRequest, "invalid user id")
			}
			owner = id
		}
		ctx, cancel := dbContext(c)
		defer cancel()

		items, err := h.Reports.List(ctx, kind, owner)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "database error")
		}
		return ok(c, http.StatusOK, echo.Map{"items": nonNil(items)})
	}
}

// Get handles GET /api/{lost,found}-items/:id.
func (h *ReportHandler) Get(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, valid := pathID(c, "id")
		if !valid {
			return fail(c, http.StatusBadRequest, "invalid id")
		}
		ctx, cancel := dbContext(c)
		defer cancel()

		item, err := h.Reports.GetByID(ctx, kind, id)
		if err != nil {
			return writeErr(c, err, noun(kind))
		}
		return ok(c, http.StatusOK, echo.Map{"item": item})
	}
}

// Create handles POST /api/{lost,found}-items.  The reporter name defaults
// to the display name in the access token and the date to today.
func (h *ReportHandler) Create(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := getUserID(c)
		if err != nil {
			return fail(c, http.StatusUnauthorized, "unauthorized")
		}
		var req reportReq
		if err := c.Bind(&req); err != nil {
			return fail(c, http.StatusBadRequest, "invalid body")
		}
		fe := validation.NewFieldErrors()
		if !validation.New(fe).ValidateItemReport(req.ItemReportForm) {
			return invalid(c, fe)
		}
		date := time.Now().UTC().Truncate(24 * time.Hour)
		if req.Date != "" {
			d, valid := parseDate(req.Date)
			if !valid {
				return fail(c, http.StatusBadRequest, "invalid date")
			}
			date = d
		}
		reporter := strings.TrimSpace(req.ReporterName)
		if reporter == "" {
			reporter, _ = c.Get("name").(string)
		}

		rep := &model.ItemReport{
			Kind:          kind,
			UserID:        uid,
			Name:          strings.TrimSpace(req.Name),
			Description:   strings.TrimSpace(req.Description),
			Location:      strings.TrimSpace(req.Location),
			Date:          date,
			ImageURL:      strings.TrimSpace(req.ImageURL),
			ReporterName:  reporter,
			ReporterPhone: validation.NormalizePhone(req.ReporterPhone),
			ReporterEmail: strings.TrimSpace(req.ReporterEmail),
			Status:        model.StatusOpen,
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		if err := h.Reports.Create(ctx, rep); err != nil {
			h.Log.Error("create report", zap.String("kind", kind), zap.Error(err))
			return fail(c, http.StatusInternalServerError, "create failed")
		}
		rep.CreatedAt = time.Now().UTC()
		return ok(c, http.StatusCreated, echo.Map{"message": noun(kind) + " reported successfully", "item": rep})
	}
}

// Update handles PUT /api/{lost,found}-items/:id.  Only the reporter may
// edit; omitted fields keep their value.
func (h *ReportHandler) Update(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := getUserID(c)
		if err != nil {
			return fail(c, http.StatusUnauthorized, "unauthorized")
		}
		id, valid := pathID(c, "id")
		if !valid {
			return fail(c, http.StatusBadRequest, "invalid id")
		}
		var req reportReq
		if err := c.Bind(&req); err != nil {
			return fail(c, http.StatusBadRequest, "invalid body")
		}
		status := strings.ToLower(strings.TrimSpace(req.Status))
		if status != "" && !model.ValidReportStatus(status) {
			return fail(c, http.StatusBadRequest, "invalid status")
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		rep, err := h.Reports.GetByID(ctx, kind, id)
		if err != nil {
			return writeErr(c, err, noun(kind))
		}
		if rep.UserID != uid {
			return fail(c, http.StatusForbidden, "forbidden")
		}
		mergeString(&rep.Name, req.Name)
		mergeString(&rep.Description, req.Description)
		mergeString(&rep.Location, req.Location)
		mergeString(&rep.ImageURL, req.ImageURL)
		mergeString(&rep.ReporterPhone, validation.NormalizePhone(req.ReporterPhone))
		mergeString(&rep.ReporterEmail, req.ReporterEmail)
		mergeString(&rep.Status, status)

		fe := validation.NewFieldErrors()
		if !validation.New(fe).ValidateItemReport(validation.ItemReportForm{
			Name:          rep.Name,
			Description:   rep.Description,
			Location:      rep.Location,
			ReporterPhone: rep.ReporterPhone,
			ReporterEmail: rep.ReporterEmail,
		}) {
			return invalid(c, fe)
		}
		if err := h.Reports.Update(ctx, rep); err != nil {
			if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrForbidden) {
				h.Log.Error("update report", zap.String("kind", kind), zap.Uint64("id", id), zap.Error(err))
			}
			return writeErr(c, err, noun(kind))
		}
		return ok(c, http.StatusOK, echo.Map{"message": noun(kind) + " updated successfully", "item": rep})
	}
}

// Delete handles DELETE /api/{lost,found}-items/:id.
func (h *ReportHandler) Delete(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
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

		if err := h.Reports.Delete(ctx, kind, id, uid); err != nil {
			return writeErr(c, err, noun(kind))
		}
		return ok(c, http.StatusOK, echo.Map{"message": noun(kind) + " deleted successfully"})
	}
}

// Match handles GET /api/matching/{lost,found}/:name: open reports whose
// name contains the given text, ignoring case, newest first.
func (h *ReportHandler) Match(kind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")
		// echo routes on RawPath when the URL carries escapes such as %2F,
		// leaving the param encoded
		if c.Request().URL.RawPath != "" {
			unescaped, err := url.PathUnescape(name)
			if err != nil {
				return fail(c, http.StatusBadRequest, "invalid name")
			}
			name = unescaped
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return fail(c, http.StatusBadRequest, "name required")
		}
		ctx, cancel := dbContext(c)
		defer cancel()

		items, err := h.Reports.Match(ctx, kind, name)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "database error")
		}
		return ok(c, http.StatusOK, echo.Map{"items": nonNil(items)})
	}
}

func nonNil(items []*model.ItemReport) []*model.ItemReport {
	if items == nil {
		return []*model.ItemReport{}
	}
	return items
}
