package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/smart-cafe/internal/cart"
	"github.com/iliyamo/smart-cafe/internal/model"
)

func setupDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func userRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "student_id", "phone", "address", "password_hash", "role", "is_active", "created_at", "updated_at"}).
		AddRow(7, "Student User", "user@student.com", nil, "923001234567", "", "hash", "user", true, now, now)
}

func TestUserRepo_Create(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (name, email, student_id, phone, address, password_hash, role)")).
		WithArgs("Student User", "user@student.com", sqlmock.AnyArg(), "923001234567", "", sqlmock.AnyArg(), "user").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Create(context.Background(), model.User{
		Name: " Student User ", Email: " User@Student.com", Phone: "923001234567",
	}, "Abc123!@", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
}

func TestUserRepo_CreateDuplicate(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users").WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := repo.Create(context.Background(), model.User{Name: "A B", Email: "a@b.com"}, "Abc123!@", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=\\?").
		WithArgs("user@student.com").
		WillReturnRows(userRow())

	u, err := repo.GetByEmail(context.Background(), "USER@student.com ")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "", u.StudentID)
	assert.Equal(t, model.RoleUser, u.Role)
}

func TestUserRepo_ListByRole(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE role=? ORDER BY created_at DESC")).
		WithArgs("user").
		WillReturnRows(userRow())

	users, err := repo.List(context.Background(), model.RoleUser)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Student User", users[0].Name)
}

func TestUserRepo_UpdateProfile(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET phone=?, address=? WHERE id=?")).
		WithArgs("923001234567", "Hostel 3", uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateProfile(context.Background(), 7, ProfileUpdate{Phone: "923001234567", Address: "Hostel 3"})
	require.NoError(t, err)
}

func TestUserRepo_UpdateProfileMissingUser(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("UPDATE users SET email=\\?").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=\\?").WillReturnError(sql.ErrNoRows)

	err := repo.UpdateProfile(context.Background(), 99, ProfileUpdate{Email: "x@y.com"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_EnsureAdminExisting(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("FROM users WHERE email").WillReturnRows(userRow())

	created, err := repo.EnsureAdmin(context.Background(), "Admin", "user@student.com", "x", bcrypt.MinCost)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestTokenRepo_ConsumeIsSingleUse(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewTokenRepo(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs(sqlmock.AnyArg(), "good", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT user_id FROM refresh_tokens").WithArgs("good").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs(sqlmock.AnyArg(), "good", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	uid, err := repo.Consume(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), uid)

	_, err = repo.Consume(ctx, "good")
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestTokenRepo_IssueRevokePurge(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewTokenRepo(db)
	ctx := context.Background()
	exp := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO refresh_tokens").WithArgs(uint64(7), "h", exp).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").WithArgs(sqlmock.AnyArg(), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM refresh_tokens").WithArgs(exp, exp).
		WillReturnResult(sqlmock.NewResult(0, 5))

	require.NoError(t, repo.Issue(ctx, 7, "h", exp))
	require.NoError(t, repo.RevokeUser(ctx, 7))
	n, err := repo.Purge(ctx, exp)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func cafeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "location", "image", "is_active", "created_at"}).
		AddRow(1, "Cafe De Light", "Snacks", "Vehari Campus", "", true, now)
}

func TestCafeRepo_Create(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewCafeRepo(db)

	mock.ExpectExec("INSERT INTO cafes").
		WithArgs("Cafe De Light", "Snacks", "Vehari Campus", "", true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("FROM cafes WHERE id = \\?").WithArgs(uint64(1)).WillReturnRows(cafeRows())

	c := &model.Cafe{Name: "Cafe De Light", Description: "Snacks", Location: "Vehari Campus", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, uint64(1), c.ID)
	assert.Equal(t, now, c.CreatedAt)
}

func TestCafeRepo_CreateDuplicate(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewCafeRepo(db)

	mock.ExpectExec("INSERT INTO cafes").WillReturnError(&mysql.MySQLError{Number: 1062})
	assert.ErrorIs(t, repo.Create(context.Background(), &model.Cafe{Name: "x"}), ErrConflict)
}

func TestCafeRepo_DeleteMissing(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewCafeRepo(db)

	mock.ExpectExec("DELETE FROM cafes").WithArgs(uint64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 5), ErrNotFound)
}

func TestCafeRepo_Summaries(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewCafeRepo(db)

	mock.ExpectQuery("menu_count").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "description", "location", "image", "is_active", "created_at", "menu_count"}).
			AddRow(1, "Cafe De Light", "", "", "", true, now, 12))

	out, err := repo.Summaries(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(12), out[0].MenuItems)
}

func menuCols() []string {
	return []string{"id", "cafe_id", "name", "description", "category", "price_cents", "image", "is_available", "created_at"}
}

func TestMenuRepo_GetByIDs(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewMenuRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id IN (?,?)")).
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows(menuCols()).
			AddRow(1, 1, "Cheese Burger", "", "Fast Food", 35000, "", true, now).
			AddRow(2, 1, "Tea", "", "Drinks", 5050, "", true, now))

	got, err := repo.GetByIDs(context.Background(), []uint64{1, 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, cart.Money(35000), got[1].Price)
	assert.Equal(t, "50.50", got[2].Price.String())

	empty, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMenuRepo_Recommendations(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewMenuRepo(db)

	mock.ExpectQuery("ORDER BY COUNT\\(o.id\\) DESC").
		WithArgs(uint64(7), 5).
		WillReturnRows(sqlmock.NewRows(append(menuCols(), "cafe_name", "order_count")).
			AddRow(3, 1, "Club Sandwich", "", "Fast Food", 30000, "", true, now, "Cafe De Light", 9))

	recs, err := repo.Recommendations(context.Background(), 7, 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Cafe De Light", recs[0].CafeName)
	assert.Equal(t, int64(9), recs[0].OrderCount)
	assert.Equal(t, cart.Money(30000), recs[0].Price)
}

func TestOrderRepo_Create(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewOrderRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(uint64(7), uint64(1), model.OrderPending, int64(75000), "Hostel 3", "923001234567", "cash", "").
		WillReturnResult(sqlmock.NewResult(40, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(uint64(40), uint64(1), "Cheese Burger", 2, int64(35000)).
		WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(uint64(40), uint64(2), "Tea", 1, int64(5000)).
		WillReturnResult(sqlmock.NewResult(101, 1))
	mock.ExpectCommit()

	o := &model.Order{
		UserID: 7, CafeID: 1, TotalAmount: 75000,
		DeliveryAddress: "Hostel 3", ContactNumber: "923001234567", PaymentMethod: "cash",
		Items: []model.OrderItem{
			{MenuItemID: 1, Name: "Cheese Burger", Quantity: 2, Price: 35000},
			{MenuItemID: 2, Name: "Tea", Quantity: 1, Price: 5000},
		},
	}
	require.NoError(t, repo.Create(context.Background(), o))
	assert.Equal(t, uint64(40), o.ID)
	assert.Equal(t, uint64(101), o.Items[1].ID)
	assert.Equal(t, model.OrderPending, o.Status)
}

func TestOrderRepo_CreateRollsBack(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewOrderRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(40, 1))
	mock.ExpectExec("INSERT INTO order_items").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.Order{Items: []model.OrderItem{{MenuItemID: 1, Quantity: 1}}})
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestOrderRepo_ListByUser(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewOrderRepo(db)

	mock.ExpectQuery("FROM orders o LEFT JOIN cafes c").WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "cafe_id", "cafe_name", "status", "total_cents", "delivery_address", "contact_number", "payment_method", "jazzcash_tid", "created_at"}).
			AddRow(41, 7, 1, "Cafe De Light", "pending", 5000, "Hostel 3", "923001234567", "cash", "", now).
			AddRow(40, 7, 1, "Cafe De Light", "delivered", 70000, "Hostel 3", "923001234567", "jazzcash", "TID1", now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items WHERE order_id IN (?,?)")).
		WithArgs(uint64(41), uint64(40)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "menu_item_id", "name", "quantity", "price_cents"}).
			AddRow(100, 40, 1, "Cheese Burger", 2, 35000).
			AddRow(102, 41, 2, "Tea", 1, 5000))

	orders, err := repo.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Tea", orders[0].Items[0].Name)
	assert.Equal(t, cart.Money(70000), orders[1].Items[0].Subtotal())
	assert.Equal(t, "TID1", orders[1].JazzCashTID)
}

func TestOrderRepo_UpdateStatusMissing(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewOrderRepo(db)

	mock.ExpectExec("UPDATE orders SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM orders").WillReturnError(sql.ErrNoRows)

	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), 9, model.OrderReady), ErrNotFound)
}

func TestOrderRepo_Stats(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewOrderRepo(db)

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"u", "c", "m", "o", "p", "r"}).AddRow(10, 2, 30, 50, 3, 1234500))

	s, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.PendingOrders)
	assert.Equal(t, "12345.00", s.Revenue.String())
}

func reportRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "name", "description", "location", "date", "image_url", "reporter_name", "reporter_phone", "reporter_email", "status", "created_at"})
}

func TestReportRepo_Match(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewReportRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM found_items WHERE LOWER(name) LIKE ? AND status = ? ORDER BY created_at DESC, id DESC LIMIT ?")).
		WithArgs(`%100\%\_wallet%`, model.StatusOpen, MatchLimit).
		WillReturnRows(reportRows().AddRow(3, 2, "100% Wallet", "black", "Library", now, "", "Ali", "", "", "open", now))

	got, err := repo.Match(context.Background(), model.KindFound, " 100%_Wallet ")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.KindFound, got[0].Kind)
}

func TestReportRepo_UnknownKind(t *testing.T) {
	db, _ := setupDB(t)
	repo := NewReportRepo(db)

	_, err := repo.Match(context.Background(), "stolen", "x")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestReportRepo_UpdateForeignReport(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewReportRepo(db)

	mock.ExpectExec("UPDATE lost_items").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM lost_items WHERE id = \\?").WithArgs(uint64(3)).
		WillReturnRows(reportRows().AddRow(3, 2, "Wallet", "", "", now, "", "", "", "", "open", now))

	err := repo.Update(context.Background(), &model.ItemReport{ID: 3, Kind: model.KindLost, UserID: 9, Status: "open"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestReportRepo_CreateDefaultsToOpen(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewReportRepo(db)

	mock.ExpectExec("INSERT INTO lost_items").
		WithArgs(uint64(2), "Wallet", "black", "Library", now, "", "Ali", "", "", model.StatusOpen).
		WillReturnResult(sqlmock.NewResult(11, 1))

	rep := &model.ItemReport{Kind: model.KindLost, UserID: 2, Name: "Wallet", Description: "black", Location: "Library", Date: now, ReporterName: "Ali"}
	require.NoError(t, repo.Create(context.Background(), rep))
	assert.Equal(t, uint64(11), rep.ID)
}

func TestEntryRepo_CreateDefaultMood(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewEntryRepo(db)

	mock.ExpectExec("INSERT INTO entries").
		WithArgs(uint64(7), "Day one", "good day", model.DefaultMood, "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	e := &model.Entry{UserID: 7, Title: "Day one", Content: "good day"}
	require.NoError(t, repo.Create(context.Background(), e))
	assert.Equal(t, model.DefaultMood, e.Mood)
}

func TestEntryRepo_GetOtherUsersEntry(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewEntryRepo(db)

	mock.ExpectQuery("FROM entries WHERE id = \\? AND user_id = \\?").
		WithArgs(uint64(1), uint64(8)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 1, 8)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotificationRepo_MarkReadAlreadyRead(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewNotificationRepo(db)

	mock.ExpectExec("UPDATE notifications").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM notifications").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	assert.NoError(t, repo.MarkRead(context.Background(), 4))
}
