package repositories

import (
	"strings"
	"sync"
	"time"

	"authsystem/internal/models"
)

// MemoryUserRepository — потокобезопасная реализация в памяти для тестов
// и локального запуска без Postgres. Семантика повторяет SQL-вариант:
// уникальность username/email, отсутствие строки — (nil, nil).
type MemoryUserRepository struct {
	mu    sync.Mutex
	seq   int
	users map[int]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[int]*models.User{}}
}

func (r *MemoryUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	r.seq++
	user.ID = r.seq
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *MemoryUserRepository) GetByID(id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (r *MemoryUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) GetByUsernameOrEmail(identifier string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == identifier || strings.EqualFold(u.Email, identifier) {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) ExistsByUsernameOrEmail(username, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryUserRepository) GetByRefreshToken(token string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token == "" {
		return nil, nil
	}
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == token {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) GetByResetToken(token string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token == "" {
		return nil, nil
	}
	for _, u := range r.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return nil
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

// copyUser — глубокая копия, чтобы мутации без Update не просачивались
// в "хранилище", как и с настоящей БД.
func copyUser(u *models.User) *models.User {
	cp := *u
	cp.RefreshToken = copyStr(u.RefreshToken)
	cp.RefreshIssuedAt = copyTime(u.RefreshIssuedAt)
	cp.RefreshExpiresAt = copyTime(u.RefreshExpiresAt)
	cp.LockoutUntil = copyTime(u.LockoutUntil)
	cp.ResetToken = copyStr(u.ResetToken)
	cp.ResetTokenExpiresAt = copyTime(u.ResetTokenExpiresAt)
	cp.ConfirmationToken = copyStr(u.ConfirmationToken)
	cp.ConfirmationExpiresAt = copyTime(u.ConfirmationExpiresAt)
	return &cp
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
