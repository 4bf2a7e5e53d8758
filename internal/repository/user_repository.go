package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/smart-cafe/internal/model"
	"github.com/iliyamo/smart-cafe/internal/utils"
)

const userColumns = "id,name,email,student_id,phone,address,password_hash,role,is_active,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create hashes password, inserts u and returns its ID.  Email is
// normalized to lower case.
func (r *UserRepo) Create(ctx context.Context, u model.User, password string, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	role := u.Role
	if role == "" {
		role = model.RoleUser
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, student_id, phone, address, password_hash, role) VALUES (?,?,?,?,?,?,?)",
		strings.TrimSpace(u.Name), email, nullString(u.StudentID), u.Phone, u.Address, hash, role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.  sql.ErrNoRows is returned
// unchanged when there is none.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// ProfileUpdate lists the columns a user may change.  Empty fields are left
// untouched.
type ProfileUpdate struct {
	Email        string
	Phone        string
	Address      string
	PasswordHash string
}

// UpdateProfile applies the non-empty fields of p.  It returns ErrNotFound
// when the user does not exist and ErrEmailExists when the new email is
// taken.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p ProfileUpdate) error {
	var (
		sets []string
		args []any
	)
	if v := strings.ToLower(strings.TrimSpace(p.Email)); v != "" {
		sets, args = append(sets, "email=?"), append(args, v)
	}
	if v := strings.TrimSpace(p.Phone); v != "" {
		sets, args = append(sets, "phone=?"), append(args, v)
	}
	if v := strings.TrimSpace(p.Address); v != "" {
		sets, args = append(sets, "address=?"), append(args, v)
	}
	if p.PasswordHash != "" {
		sets, args = append(sets, "password_hash=?"), append(args, p.PasswordHash)
	}
	if len(sets) == 0 {
		_, err := r.GetByID(ctx, id)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err == sql.ErrNoRows {
			return ErrNotFound
		}
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin account unless a user with that
// email already exists.  It reports whether a row was inserted.
func (r *UserRepo) EnsureAdmin(ctx context.Context, name, email, password string, cost int) (bool, error) {
	if _, err := r.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if err != sql.ErrNoRows {
		return false, err
	}
	_, err := r.Create(ctx, model.User{Name: name, Email: email, Role: model.RoleAdmin}, password, cost)
	if err == ErrEmailExists {
		return false, nil
	}
	return err == nil, err
}

// List returns every account, newest first.  An empty role lists all roles.
func (r *UserRepo) List(ctx context.Context, role string) ([]model.User, error) {
	q := "SELECT " + userColumns + " FROM users"
	var args []any
	if role != "" {
		q += " WHERE role=?"
		args = append(args, role)
	}
	rows, err := r.DB.QueryContext(ctx, q+" ORDER BY created_at DESC, id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u         model.User
		studentID sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &studentID, &u.Phone, &u.Address,
		&u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	u.StudentID = studentID.String
	return u, err
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
