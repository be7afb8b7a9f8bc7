package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"authsystem/internal/models"
)

// ErrDuplicate — нарушение уникальности username/email на уровне БД.
var ErrDuplicate = errors.New("username or email already exists")

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	// GetByUsernameOrEmail — логин принимает username ИЛИ email
	GetByUsernameOrEmail(identifier string) (*models.User, error)
	ExistsByUsernameOrEmail(username, email string) (bool, error)
	GetByRefreshToken(token string) (*models.User, error)
	GetByResetToken(token string) (*models.User, error)
	Update(user *models.User) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, username, email, password_hash, role,
	refresh_token, refresh_issued_at, refresh_expires_at,
	failed_login_attempts, lockout_until,
	reset_token, reset_token_expires_at,
	is_email_confirmed, confirmation_token, confirmation_expires_at
`

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (
			username, email, password_hash, role,
			failed_login_attempts, is_email_confirmed,
			confirmation_token, confirmation_expires_at
		)
		VALUES ($1,$2,$3,$4,0,$5,$6,$7)
		RETURNING id
	`
	err := r.DB.QueryRow(q,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsEmailConfirmed,
		user.ConfirmationToken,
		user.ConfirmationExpiresAt,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		// 23505 = unique_violation: уникальные индексы по username и email
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepository) GetByUsernameOrEmail(identifier string) (*models.User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, identifier)
}

func (r *userRepository) ExistsByUsernameOrEmail(username, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`
	var exists bool
	if err := r.DB.QueryRow(q, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return exists, nil
}

func (r *userRepository) GetByRefreshToken(token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE refresh_token = $1`, token)
}

func (r *userRepository) GetByResetToken(token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE reset_token = $1`, token)
}

func (r *userRepository) Update(user *models.User) error {
	const q = `
		UPDATE users
		SET
			username=$1,
			email=$2,
			password_hash=$3,
			role=$4,
			refresh_token=$5,
			refresh_issued_at=$6,
			refresh_expires_at=$7,
			failed_login_attempts=$8,
			lockout_until=$9,
			reset_token=$10,
			reset_token_expires_at=$11,
			is_email_confirmed=$12,
			confirmation_token=$13,
			confirmation_expires_at=$14
		WHERE id=$15
	`
	_, err := r.DB.Exec(q,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.RefreshToken,
		user.RefreshIssuedAt,
		user.RefreshExpiresAt,
		user.FailedLoginAttempts,
		user.LockoutUntil,
		user.ResetToken,
		user.ResetTokenExpiresAt,
		user.IsEmailConfirmed,
		user.ConfirmationToken,
		user.ConfirmationExpiresAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("user update: %w", err)
	}
	return nil
}

func (r *userRepository) getOne(q string, arg interface{}) (*models.User, error) {
	u := &models.User{}
	var (
		rt      sql.NullString
		rtIss   sql.NullTime
		rtExp   sql.NullTime
		lockout sql.NullTime
		reset   sql.NullString
		resExp  sql.NullTime
		conf    sql.NullString
		confExp sql.NullTime
	)
	err := r.DB.QueryRow(q, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&rt, &rtIss, &rtExp,
		&u.FailedLoginAttempts, &lockout,
		&reset, &resExp,
		&u.IsEmailConfirmed, &conf, &confExp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("user get: %w", err)
	}
	if rt.Valid {
		s := rt.String
		u.RefreshToken = &s
	}
	if rtIss.Valid {
		t := rtIss.Time
		u.RefreshIssuedAt = &t
	}
	if rtExp.Valid {
		t := rtExp.Time
		u.RefreshExpiresAt = &t
	}
	if lockout.Valid {
		t := lockout.Time
		u.LockoutUntil = &t
	}
	if reset.Valid {
		s := reset.String
		u.ResetToken = &s
	}
	if resExp.Valid {
		t := resExp.Time
		u.ResetTokenExpiresAt = &t
	}
	if conf.Valid {
		s := conf.String
		u.ConfirmationToken = &s
	}
	if confExp.Valid {
		t := confExp.Time
		u.ConfirmationExpiresAt = &t
	}
	return u, nil
}
