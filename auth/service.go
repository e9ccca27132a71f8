package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"tripwise/metrics"
	"tripwise/models"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLength   = 6
	mysqlDuplicateEntry = 1062
)

// Service registers and verifies users kept in the database
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user with a bcrypt hashed password
func (s *Service) Register(ctx context.Context, email, password string) (u models.User, err error) {
	defer func() { metrics.RecordAuth("signup", err == nil) }()
	email = normalizeEmail(email)
	if _, perr := mail.ParseAddress(email); perr != nil {
		return u, &Error{MessageInvalidEmail}
	}
	if len(password) < minPasswordLength {
		return u, &Error{MessageWeakPassword}
	}
	var count int64
	if err = s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return u, err
	}
	if count > 0 {
		return u, &Error{MessageEmailInUse}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return u, err
	}
	u = models.User{
		ID:       uuid.NewString(),
		Email:    email,
		Password: string(hash),
	}
	if err = s.db.WithContext(ctx).Create(&u).Error; err != nil {
		// a concurrent sign up took the address after the check above
		if isDuplicateKey(err) {
			return models.User{}, &Error{MessageEmailInUse}
		}
		log.Printf("Register user %s error: %v", email, err)
		return models.User{}, err
	}
	log.Info().Str("user", u.ID).Msg("user registered")
	return u, nil
}

// isDuplicateKey detects unique index violations. gorm translates them for MySQL; the SQLite driver only reports them in the message.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysqldriver.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Verify checks the credentials
func (s *Service) Verify(ctx context.Context, email, password string) (u models.User, err error) {
	defer func() { metrics.RecordAuth("signin", err == nil) }()
	err = s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, &Error{MessageUserNotFound}
	}
	if err != nil {
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return models.User{}, &Error{MessageWrongPassword}
	}
	return u, nil
}

// Get loads a user by id
func (s *Service) Get(ctx context.Context, id string) (u models.User, err error) {
	err = s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	return
}
