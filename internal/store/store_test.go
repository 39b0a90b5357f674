package store

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/routegate/routegate/apperr"
)

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	return string(hash)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error creating sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func userRows(u User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "hashed_password", "created_at", "updated_at"}).
		AddRow(u.ID.String(), u.Name, u.Email, u.HashedPassword, u.CreatedAt, u.UpdatedAt)
}

func TestCreateUser(t *testing.T) {
	st, mock := newMockStore(t)

	want := User{
		ID:             uuid.New(),
		Name:           "Ada",
		Email:          "ada@example.com",
		HashedPassword: "$2a$10$fake",
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "Ada", "ada@example.com", sqlmock.AnyArg()).
		WillReturnRows(userRows(want))

	got, err := st.CreateUser(context.Background(), "Ada", "ada@example.com", "s3cret")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if got.ID != want.ID || got.Email != want.Email {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, Message: "duplicate key"})

	_, err := st.CreateUser(context.Background(), "Ada", "ada@example.com", "s3cret")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected typed error, got %v", err)
	}
	if appErr.Status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", appErr.Status)
	}
}

func TestGetUserNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "hashed_password", "created_at", "updated_at"}))

	_, err := st.GetUser(context.Background(), uuid.New())
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected typed error, got %v", err)
	}
	if appErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", appErr.Status)
	}
}

func TestGetUser(t *testing.T) {
	st, mock := newMockStore(t)

	id := uuid.New()
	want := User{ID: id, Name: "Ada", Email: "ada@example.com"}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email")).
		WithArgs(id).
		WillReturnRows(userRows(want))

	got, err := st.GetUser(context.Background(), id)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Name != "Ada" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestUpdateUserPartial(t *testing.T) {
	st, mock := newMockStore(t)

	id := uuid.New()
	name := "Ada Lovelace"
	want := User{ID: id, Name: name, Email: "ada@example.com"}
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
		WithArgs(id, &name, nil).
		WillReturnRows(userRows(want))

	got, err := st.UpdateUser(context.Background(), id, UserPatch{Name: &name})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if got.Name != name {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestUpdateUserNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := st.UpdateUser(context.Background(), uuid.New(), UserPatch{})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 typed error, got %v", err)
	}
}

func TestEnsureSchema(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := st.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestCheckPassword(t *testing.T) {
	st, mock := newMockStore(t)

	hash := mustHash(t, "s3cret")
	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email")).
		WithArgs(id).
		WillReturnRows(userRows(User{ID: id, HashedPassword: hash}))

	user, err := st.GetUser(context.Background(), id)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !user.CheckPassword("s3cret") {
		t.Fatal("expected password to verify")
	}
	if user.CheckPassword("wrong") {
		t.Fatal("expected mismatch to fail")
	}
}
