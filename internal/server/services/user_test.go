package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/coinledger/internal/common"
	"github.com/dmitrijs2005/coinledger/internal/dbx"
	"github.com/dmitrijs2005/coinledger/internal/logging"
	"github.com/dmitrijs2005/coinledger/internal/server/auth"
	"github.com/dmitrijs2005/coinledger/internal/server/config"
	"github.com/dmitrijs2005/coinledger/internal/server/models"
	"github.com/dmitrijs2005/coinledger/internal/server/repositories/repomanager"
	transactionsrepo "github.com/dmitrijs2005/coinledger/internal/server/repositories/transactions"
	usersrepo "github.com/dmitrijs2005/coinledger/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
		BcryptCost:                  bcrypt.MinCost,
	}
}

func newUserService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager) *UserService {
	t.Helper()
	return NewUserService(db, rm, testConfig(), testLogger())
}

// fakeUsersRepo keeps users in memory, keyed by email, mimicking the
// uniqueness constraint of the real table.
type fakeUsersRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User

	createErr error
	getErr    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	stored := *u
	stored.ID = "u-" + u.Email
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.byEmail[stored.Email] = &stored
	f.byID[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := f.byID[id]
	return ok, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	t *fakeTransactionsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Transactions(db dbx.DBTX) transactionsrepo.Repository {
	return m.t
}

// --- tests ---

func TestRegister_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: newFakeUsersRepo()}
	s := newUserService(t, db, rm)

	res, err := s.Register(context.Background(), "alice@example.com", "pw123456", "Alice")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if res.User.PasswordHash == "" || res.User.PasswordHash == "pw123456" {
		t.Fatalf("password must be stored hashed, got %q", res.User.PasswordHash)
	}

	userID, err := auth.GetUserIDFromToken(res.Token, []byte("k"))
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if userID != res.User.ID {
		t.Fatalf("token bound to %q, want %q", userID, res.User.ID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: newFakeUsersRepo()}
	s := newUserService(t, db, rm)

	first, err := s.Register(context.Background(), "alice@example.com", "pw123456", "Alice")
	if err != nil {
		t.Fatalf("first Register error: %v", err)
	}

	_, err = s.Register(context.Background(), "alice@example.com", "different1", "Mallory")
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}

	// first record unchanged
	got, err := rm.u.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.Name != "Alice" || got.ID != first.User.ID {
		t.Fatalf("first record was modified: %+v", got)
	}
}

func TestRegister_Validation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: newFakeUsersRepo()}
	s := newUserService(t, db, rm)

	tests := []struct {
		name     string
		email    string
		password string
		userName string
	}{
		{"empty email", "", "pw123456", "Alice"},
		{"email without at", "alice.example.com", "pw123456", "Alice"},
		{"short password", "alice@example.com", "pw", "Alice"},
		{"empty name", "alice@example.com", "pw123456", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tt.email, tt.password, tt.userName)
			if !errors.Is(err, common.ErrorValidation) {
				t.Fatalf("want common.ErrorValidation, got %v", err)
			}
		})
	}

	if len(rm.u.byEmail) != 0 {
		t.Fatalf("no user must be persisted on validation failure")
	}
}

func TestLogin_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: newFakeUsersRepo()}
	s := newUserService(t, db, rm)

	reg, err := s.Register(context.Background(), "alice@example.com", "pw123456", "Alice")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	res, err := s.Login(context.Background(), "alice@example.com", "pw123456")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	userID, err := auth.GetUserIDFromToken(res.Token, []byte("k"))
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if userID != reg.User.ID {
		t.Fatalf("login token bound to %q, want %q", userID, reg.User.ID)
	}
}

func TestLogin_UniformUnauthorized(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: newFakeUsersRepo()}
	s := newUserService(t, db, rm)

	if _, err := s.Register(context.Background(), "alice@example.com", "pw123456", "Alice"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	_, errUnknown := s.Login(context.Background(), "ghost@example.com", "pw123456")
	_, errWrongPw := s.Login(context.Background(), "alice@example.com", "wrong-password")

	if !errors.Is(errUnknown, common.ErrorUnauthorized) {
		t.Fatalf("unknown email: want common.ErrorUnauthorized, got %v", errUnknown)
	}
	if !errors.Is(errWrongPw, common.ErrorUnauthorized) {
		t.Fatalf("wrong password: want common.ErrorUnauthorized, got %v", errWrongPw)
	}
	// both cases must be indistinguishable
	if errUnknown.Error() != errWrongPw.Error() {
		t.Fatalf("errors differ: %q vs %q", errUnknown, errWrongPw)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: newFakeUsersRepo()}
	s := newUserService(t, db, rm)

	_, err := s.Login(context.Background(), "", "pw123456")
	if !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want common.ErrorValidation, got %v", err)
	}
}

func TestLogin_RepoFailureIsInternal(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	repo := newFakeUsersRepo()
	repo.getErr = errors.New("db down")
	rm := &fakeRepoManager{u: repo}
	s := newUserService(t, db, rm)

	_, err := s.Login(context.Background(), "alice@example.com", "pw123456")
	if !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("want common.ErrorInternal, got %v", err)
	}
}
