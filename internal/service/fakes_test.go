package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/petway-backend/internal/logger"
	"github.com/ignatzorin/petway-backend/internal/mailer"
	"github.com/ignatzorin/petway-backend/internal/models"
	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
)

func init() {
	logger.Discard()
}

// memoryUserRepository реализует UserRepository в памяти.
type memoryUserRepository struct {
	mu                sync.Mutex
	users             map[uuid.UUID]*models.User
	credentialUpdates int
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[uuid.UUID]*models.User)}
}

func (m *memoryUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperror.ErrEmailTaken
		}
	}
	user.ID = uuid.New()
	user.Verified = false
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memoryUserRepository) FindByEmail(ctx context.Context, email string, includeSecrets bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return project(u, includeSecrets), nil
		}
	}
	return nil, apperror.ErrUserNotFound
}

func (m *memoryUserRepository) GetByID(ctx context.Context, id uuid.UUID, includeSecrets bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return project(u, includeSecrets), nil
	}
	return nil, apperror.ErrUserNotFound
}

func (m *memoryUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperror.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memoryUserRepository) UpdateCredentials(ctx context.Context, id uuid.UUID, passwordHash, question, answerHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentialUpdates++
	u, ok := m.users[id]
	if !ok {
		return apperror.ErrUserNotFound
	}
	if passwordHash != "" {
		u.PasswordHash = passwordHash
	}
	if question != "" {
		u.SecretQuestion = question
	}
	if answerHash != "" {
		u.SecretAnswerHash = answerHash
	}
	return nil
}

func (m *memoryUserRepository) MarkVerified(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			u.Verified = true
			return nil
		}
	}
	return apperror.ErrUserNotFound
}

func (m *memoryUserRepository) stored(email string) *models.User {
	u, _ := m.FindByEmail(context.Background(), email, true)
	return u
}

func project(u *models.User, includeSecrets bool) *models.User {
	cp := *u
	if !includeSecrets {
		cp.PasswordHash, cp.SecretQuestion, cp.SecretAnswerHash = "", "", ""
	}
	return &cp
}

// memoryCodeRepository повторяет семантику VerificationRepository в памяти.
type memoryCodeRepository struct {
	mu    sync.Mutex
	codes []*models.VerificationCode
}

func (m *memoryCodeRepository) Create(ctx context.Context, vc *models.VerificationCode, cooldownSince time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
		if c.Email == vc.Email && c.CreatedAt.After(cooldownSince) {
			return apperror.ErrResendTooSoon
		}
	}
	vc.ID = uuid.New()
	cp := *vc
	m.codes = append(m.codes, &cp)
	return nil
}

func (m *memoryCodeRepository) Consume(ctx context.Context, email, code string, now time.Time) (*models.VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var candidates []*models.VerificationCode
	for _, c := range m.codes {
		if c.Email == email && c.Code == code && !c.Used {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, apperror.ErrInvalidCode
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].CreatedAt.After(candidates[j].CreatedAt) })
	latest := candidates[0]
	if latest.IsExpired(now) {
		return nil, apperror.ErrCodeExpired
	}
	latest.Used = true
	cp := *latest
	return &cp, nil
}

func (m *memoryCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.codes[:0]
	var n int64
	for _, c := range m.codes {
		if c.IsExpired(now) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	m.codes = kept
	return n, nil
}

func (m *memoryCodeRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.codes)
}

// recordingNotifier запоминает последний отправленный код.
type recordingNotifier struct {
	mu    sync.Mutex
	fail  bool
	codes map[string]string
	sent  int
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{codes: make(map[string]string)}
}

func (n *recordingNotifier) SendVerificationCode(ctx context.Context, to, code string, expiresAt time.Time) mailer.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[to] = code
	if n.fail {
		return mailer.Result{Status: mailer.StatusDeferred, Err: errSMTPDown}
	}
	n.sent++
	return mailer.Result{Status: mailer.StatusSent}
}

func (n *recordingNotifier) lastCode(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[email]
}

// fakeClock - управляемое время для кодов и токенов.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
