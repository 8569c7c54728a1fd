package user_models

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/joy095/travelmint/logger"
	"github.com/joy095/travelmint/models/shared_models"
	"golang.org/x/crypto/argon2"
)

// Argon2 Parameters
const (
	Memory      = 64 * 1024
	Iterations  = 3
	Parallelism = 4
	SaltLength  = 16
	KeyLength   = 64
)

const (
	RoleUser  = 0
	RoleAdmin = 1
)

const DefaultAvatar = "https://upload.wikimedia.org/wikipedia/commons/9/99/Sample_User_Icon.png"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailTaken     = errors.New("user already exists")
	ErrUserHasHistory = errors.New("user has bookings or payments and cannot be deleted")
)

// User Model
type User struct {
	ID                  uuid.UUID  `json:"_id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Address             string     `json:"address"`
	Phone               string     `json:"phone"`
	Avatar              string     `json:"avatar"`
	Role                int        `json:"user_role"`
	IsVerified          bool       `json:"isVerified"`
	VerifiedAt          *time.Time `json:"verifiedAt,omitempty"`
	LastPasswordResetAt *time.Time `json:"lastPasswordResetAt,omitempty"`
	TokenVersion        int        `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// DisplayName falls back to a neutral greeting for mails.
func (u *User) DisplayName() string {
	if strings.TrimSpace(u.Username) == "" {
		return "there"
	}
	return u.Username
}

// NewUser builds an unverified user with a hashed password.
func NewUser(username, email, password, address, phone string) (*User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID for user: %w", err)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &User{
		ID:           id,
		Username:     strings.TrimSpace(username),
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		Address:      address,
		Phone:        phone,
		Avatar:       DefaultAvatar,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateSalt(size int) ([]byte, error) {
	salt := make([]byte, size)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// HashPassword hashes a password using Argon2id
func HashPassword(password string) (string, error) {
	salt, err := generateSalt(SaltLength)
	if err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, Iterations, Memory, uint8(Parallelism), KeyLength)

	return fmt.Sprintf("%s$%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword verifies a password against a stored hash
func VerifyPassword(password, storedHash string) (bool, error) {
	parts := strings.Split(storedHash, "$")
	if len(parts) != 2 {
		return false, errors.New("invalid stored hash format")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return false, err
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, err
	}

	computedHash := argon2.IDKey([]byte(password), salt, Iterations, Memory, uint8(Parallelism), KeyLength)
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1, nil
}

const userColumns = `id, username, email, password_hash, address, phone, avatar, user_role,
	is_verified, verified_at, last_password_reset_at, token_version, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Address, &u.Phone, &u.Avatar, &u.Role,
		&u.IsVerified, &u.VerifiedAt, &u.LastPasswordResetAt, &u.TokenVersion, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// CreateUser inserts a new user.
func CreateUser(ctx context.Context, db shared_models.DBTX, u *User) error {
	_, err := db.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, address, phone, avatar, user_role,
			is_verified, token_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Address, u.Phone, u.Avatar, u.Role,
		u.IsVerified, u.TokenVersion, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if shared_models.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		logger.ErrorLogger.Errorf("Failed to insert user %s: %v", u.Email, err)
		return fmt.Errorf("failed to create user: %w", err)
	}
	logger.InfoLogger.Infof("User %s created", u.ID)
	return nil
}

func GetUserByID(ctx context.Context, db shared_models.DBTX, id uuid.UUID) (*User, error) {
	u, err := scanUser(db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		logger.ErrorLogger.Errorf("Failed to fetch user %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return u, err
}

func GetUserByEmail(ctx context.Context, db shared_models.DBTX, email string) (*User, error) {
	u, err := scanUser(db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, NormalizeEmail(email)))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		logger.ErrorLogger.Errorf("Failed to fetch user by email: %v", err)
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return u, err
}

// ListUsers returns non-admin users, optionally filtered by name, email or phone.
func ListUsers(ctx context.Context, db shared_models.DBTX, searchTerm string) ([]User, error) {
	rows, err := db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE user_role = $1
		  AND ($2 = '' OR username ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%' OR phone ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC`, RoleUser, searchTerm)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// MarkVerified flips the verification flag; repeated calls keep the first timestamp.
func MarkVerified(ctx context.Context, db shared_models.DBTX, id uuid.UUID) error {
	tag, err := db.Exec(ctx, `
		UPDATE users SET is_verified = TRUE, verified_at = COALESCE(verified_at, NOW()), updated_at = NOW()
		WHERE id = $1`, id)
	return affectedOne(tag, err, id)
}

// UpdatePassword stores a new hash and bumps the token version so existing sessions die.
func UpdatePassword(ctx context.Context, db shared_models.DBTX, id uuid.UUID, newPassword string) error {
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	tag, err := db.Exec(ctx, `
		UPDATE users SET password_hash = $2, last_password_reset_at = NOW(),
			token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1`, id, hash)
	return affectedOne(tag, err, id)
}

func UpdateProfile(ctx context.Context, db shared_models.DBTX, id uuid.UUID, username, address, phone string) (*User, error) {
	return scanUser(db.QueryRow(ctx, `
		UPDATE users SET username = $2, address = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, username, address, phone))
}

func UpdateAvatar(ctx context.Context, db shared_models.DBTX, id uuid.UUID, avatarURL string) error {
	tag, err := db.Exec(ctx, `UPDATE users SET avatar = $2, updated_at = NOW() WHERE id = $1`, id, avatarURL)
	return affectedOne(tag, err, id)
}

// IncrementTokenVersion invalidates every access token issued so far.
func IncrementTokenVersion(ctx context.Context, db shared_models.DBTX, id uuid.UUID) error {
	tag, err := db.Exec(ctx, `UPDATE users SET token_version = token_version + 1, updated_at = NOW() WHERE id = $1`, id)
	return affectedOne(tag, err, id)
}

// DeleteUser removes a user who owns no payment or booking history.
func DeleteUser(ctx context.Context, db shared_models.DBTX, id uuid.UUID) error {
	tag, err := db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if shared_models.IsForeignKeyViolation(err) {
			return ErrUserHasHistory
		}
	}
	return affectedOne(tag, err, id)
}

func affectedOne(tag pgconn.CommandTag, err error, id uuid.UUID) error {
	if err != nil {
		logger.ErrorLogger.Errorf("User update failed for %s: %v", id, err)
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Store adapts the package functions to a pool for injected consumers.
type Store struct {
	DB shared_models.DBTX
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return GetUserByID(ctx, s.DB, id)
}
