// Package auth manages user accounts and JWT sessions for the web surface.
package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrUserExists reports a registration with a taken username.
	ErrUserExists = errors.New("auth: username already exists")

	// ErrWeakPassword reports a password failing the strength policy.
	ErrWeakPassword = errors.New("auth: password does not meet strength requirements")

	// ErrInvalidCredentials reports a failed login.
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
)

// User is one account row.
type User struct {
	Username     string `gorm:"primaryKey;column:username"`
	PasswordHash string `gorm:"column:password"`
}

// TableName pins the historical table name.
func (User) TableName() string { return "users" }

var (
	upperRe  = regexp.MustCompile(`[A-Z]`)
	lowerRe  = regexp.MustCompile(`[a-z]`)
	digitRe  = regexp.MustCompile(`\d`)
	symbolRe = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// IsStrongPassword reports whether the password is at least 8 characters
// and contains an uppercase letter, a lowercase letter, a digit and a
// symbol.
func IsStrongPassword(password string) bool {
	return len(password) >= 8 &&
		upperRe.MatchString(password) &&
		lowerRe.MatchString(password) &&
		digitRe.MatchString(password) &&
		symbolRe.MatchString(password)
}

// Service registers users and issues session tokens.
type Service struct {
	db         *gorm.DB
	jwtSecret  []byte
	expiration time.Duration
}

// NewService returns an auth Service signing tokens with the given secret.
func NewService(db *gorm.DB, jwtSecret string, expiration time.Duration) *Service {
	return &Service{db: db, jwtSecret: []byte(jwtSecret), expiration: expiration}
}

// Register creates an account. The password must pass the strength policy
// and the username must be free.
func (s *Service) Register(username, password string) error {
	if !IsStrongPassword(password) {
		return ErrWeakPassword
	}

	var count int64
	if err := s.db.Model(&User{}).
		Where("username = ?", username).Count(&count).Error; err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := User{Username: username, PasswordHash: string(hash)}
	if err := s.db.Create(&user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Login verifies the credentials and returns a signed session token.
func (s *Service) Login(username, password string) (string, error) {
	var user User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.expiration)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a session token, returning the username.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.jwtSecret, nil
		})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}
