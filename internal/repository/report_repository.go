package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/smart-cafe/internal/model"
)

// MatchLimit caps the number of reports returned by Match.
const MatchLimit = 10

// ErrUnknownKind is returned for a report kind other than lost or found.
var ErrUnknownKind = errors.New("unknown report kind")

const reportColumns = "id, user_id, name, description, location, date, image_url, reporter_name, reporter_phone, reporter_email, status, created_at"

// ReportRepo stores lost and found reports.  Both kinds share a schema and
// are kept in their own table.
type ReportRepo struct{ DB *sql.DB }

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{DB: db} }

func reportTable(kind string) (string, error) {
	switch kind {
	case model.KindLost:
		return "lost_items", nil
	case model.KindFound:
		return "found_items", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Create inserts rep into the table of rep.Kind.
func (r *ReportRepo) Create(ctx context.Context, rep *model.ItemReport) error {
	table, err := reportTable(rep.Kind)
	if err != nil {
		return err
	}
	if rep.Status == "" {
		rep.Status = model.StatusOpen
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO "+table+" (user_id, name, description, location, date, image_url, reporter_name, reporter_phone, reporter_email, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rep.UserID, rep.Name, rep.Description, rep.Location, rep.Date, rep.ImageURL, rep.ReporterName, rep.ReporterPhone, rep.ReporterEmail, rep.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rep.ID = uint64(id)
	return nil
}

// GetByID fetches one report or ErrNotFound.
func (r *ReportRepo) GetByID(ctx context.Context, kind string, id uint64) (*model.ItemReport, error) {
	table, err := reportTable(kind)
	if err != nil {
		return nil, err
	}
	rep, err := scanReport(r.DB.QueryRowContext(ctx, "SELECT "+reportColumns+" FROM "+table+" WHERE id = ?", id), kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rep, err
}

// List returns reports of a kind, newest first.  A non-zero userID restricts
// the result to that reporter.
func (r *ReportRepo) List(ctx context.Context, kind string, userID uint64) ([]*model.ItemReport, error) {
	table, err := reportTable(kind)
	if err != nil {
		return nil, err
	}
	q := "SELECT " + reportColumns + " FROM " + table
	var args []any
	if userID != 0 {
		q += " WHERE user_id = ?"
		args = append(args, userID)
	}
	return r.list(ctx, kind, q+" ORDER BY created_at DESC, id DESC", args...)
}

// Match finds open reports of a kind whose name contains name, ignoring
// case.  At most MatchLimit reports are returned, newest first.
func (r *ReportRepo) Match(ctx context.Context, kind, name string) ([]*model.ItemReport, error) {
	table, err := reportTable(kind)
	if err != nil {
		return nil, err
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(name))) + "%"
	q := "SELECT " + reportColumns + " FROM " + table +
		" WHERE LOWER(name) LIKE ? AND status = ? ORDER BY created_at DESC, id DESC LIMIT ?"
	return r.list(ctx, kind, q, pattern, model.StatusOpen, MatchLimit)
}

// Update overwrites the editable columns of rep when it belongs to
// rep.UserID.  ErrForbidden means the report exists but is someone else's.
func (r *ReportRepo) Update(ctx context.Context, rep *model.ItemReport) error {
	table, err := reportTable(rep.Kind)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE "+table+" SET name = ?, description = ?, location = ?, image_url = ?, reporter_phone = ?, reporter_email = ?, status = ? WHERE id = ? AND user_id = ?",
		rep.Name, rep.Description, rep.Location, rep.ImageURL, rep.ReporterPhone, rep.ReporterEmail, rep.Status, rep.ID, rep.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.ownership(ctx, rep.Kind, rep.ID, rep.UserID)
	}
	return nil
}

// Delete removes a report owned by userID.
func (r *ReportRepo) Delete(ctx context.Context, kind string, id, userID uint64) error {
	table, err := reportTable(kind)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.ownership(ctx, kind, id, userID)
	}
	return nil
}

// ownership explains why a scoped write touched no row.
func (r *ReportRepo) ownership(ctx context.Context, kind string, id, userID uint64) error {
	cur, err := r.GetByID(ctx, kind, id)
	if err != nil {
		return err
	}
	if cur.UserID != userID {
		return ErrForbidden
	}
	return nil
}

func (r *ReportRepo) list(ctx context.Context, kind, q string, args ...any) ([]*model.ItemReport, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.ItemReport{}
	for rows.Next() {
		rep, err := scanReport(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func scanReport(row rowScanner, kind string) (*model.ItemReport, error) {
	rep := &model.ItemReport{Kind: kind}
	if err := row.Scan(&rep.ID, &rep.UserID, &rep.Name, &rep.Description, &rep.Location, &rep.Date, &rep.ImageURL,
		&rep.ReporterName, &rep.ReporterPhone, &rep.ReporterEmail, &rep.Status, &rep.CreatedAt); err != nil {
		return nil, err
	}
	return rep, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
