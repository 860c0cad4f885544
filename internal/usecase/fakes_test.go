package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arklim/user-auth-service/internal/core/domain"
	"github.com/arklim/user-auth-service/internal/infra/clock"
	"github.com/arklim/user-auth-service/internal/infra/security"
	"github.com/arklim/user-auth-service/internal/repository"
)

// memoryStore backs every repository fake. The transactor snapshots it and restores
// the snapshot when the callback fails, which mirrors a database rollback.
type memoryStore struct {
	mu          sync.Mutex
	users       []domain.User
	credentials []domain.Credential
	codes       []domain.OneTimeCode
	roles       []domain.Role
	assignments []domain.UserRole
	commits     int
	rollbacks   int
}

type storeSnapshot struct {
	users       []domain.User
	credentials []domain.Credential
	codes       []domain.OneTimeCode
	roles       []domain.Role
	assignments []domain.UserRole
}

func (s *memoryStore) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storeSnapshot{
		users:       append([]domain.User(nil), s.users...),
		credentials: append([]domain.Credential(nil), s.credentials...),
		codes:       append([]domain.OneTimeCode(nil), s.codes...),
		roles:       append([]domain.Role(nil), s.roles...),
		assignments: append([]domain.UserRole(nil), s.assignments...),
	}
}

func (s *memoryStore) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.credentials = snap.credentials
	s.codes = snap.codes
	s.roles = snap.roles
	s.assignments = snap.assignments
}

func (s *memoryStore) unusedCodes(userID string) []domain.OneTimeCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OneTimeCode
	for _, c := range s.codes {
		if c.UserID == userID && !c.Used {
			out = append(out, c)
		}
	}
	return out
}

func (s *memoryStore) activeCredential(userID string) (domain.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.credentials) - 1; i >= 0; i-- {
		c := s.credentials[i]
		if c.UserID == userID && c.Status == domain.UserStatusActive {
			return c, true
		}
	}
	return domain.Credential{}, false
}

type memoryUsers struct{ s *memoryStore }

func (r memoryUsers) Create(_ context.Context, user domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username || (u.Email != nil && user.Email != nil && *u.Email == *user.Email) {
			return repository.ErrConflict
		}
	}
	r.s.users = append(r.s.users, user)
	return nil
}

func (r memoryUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r memoryUsers) GetActiveByIdentifier(_ context.Context, identifier domain.Identifier) (*domain.User, error) {
	return r.find(func(u domain.User) bool {
		if u.Status != domain.UserStatusActive {
			return false
		}
		switch identifier.Kind {
		case domain.IdentifierUsername:
			return u.Username == identifier.Value
		case domain.IdentifierEmail:
			return u.EmailValue() == identifier.Value
		}
		return false
	})
}

func (r memoryUsers) GetActiveByPhone(_ context.Context, phone string) (*domain.User, error) {
	return r.find(func(u domain.User) bool {
		return u.Status == domain.UserStatusActive && u.PhoneValue() == phone
	})
}

func (r memoryUsers) find(match func(domain.User) bool) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			copy := u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memoryCredentials struct{ s *memoryStore }

func (r memoryCredentials) Create(_ context.Context, credential domain.Credential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.credentials = append(r.s.credentials, credential)
	return nil
}

func (r memoryCredentials) GetActiveByUserID(_ context.Context, userID string) (*domain.Credential, error) {
	c, ok := r.s.activeCredential(userID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r memoryCredentials) ExistsForUser(_ context.Context, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.credentials {
		if c.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r memoryCredentials) UpdatePassword(_ context.Context, userID, passwordHash string, updatedAt int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	updated := 0
	for i := range r.s.credentials {
		c := &r.s.credentials[i]
		if c.UserID == userID && c.Status == domain.UserStatusActive {
			c.PasswordHash = passwordHash
			at := updatedAt
			c.UpdatedAt = &at
			updated++
		}
	}
	if updated == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type memoryCodes struct{ s *memoryStore }

func (r memoryCodes) InvalidateUnused(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for i := range r.s.codes {
		if r.s.codes[i].UserID == userID && !r.s.codes[i].Used {
			r.s.codes[i].Used = true
			n++
		}
	}
	return n, nil
}

func (r memoryCodes) Create(_ context.Context, code domain.OneTimeCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.codes = append(r.s.codes, code)
	return nil
}

func (r memoryCodes) FindUnused(_ context.Context, userID, code string) (*domain.OneTimeCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matches []domain.OneTimeCode
	for _, c := range r.s.codes {
		if c.UserID == userID && c.Code == code && !c.Used {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil, repository.ErrNotFound
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].CreatedAt > matches[j].CreatedAt })
	return &matches[0], nil
}

func (r memoryCodes) MarkUsed(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.codes {
		if r.s.codes[i].ID == id && !r.s.codes[i].Used {
			r.s.codes[i].Used = true
			return nil
		}
	}
	return repository.ErrNotFound
}

type memoryRoles struct{ s *memoryStore }

func (r memoryRoles) Create(_ context.Context, role domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			return repository.ErrConflict
		}
	}
	r.s.roles = append(r.s.roles, role)
	return nil
}

func (r memoryRoles) GetByName(_ context.Context, name string) (*domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, role := range r.s.roles {
		if role.Name == name {
			copy := role
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memoryRoles) HasAssignment(_ context.Context, userID, roleID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.assignments {
		if a.UserID == userID && a.RoleID == roleID {
			return true, nil
		}
	}
	return false, nil
}

func (r memoryRoles) Assign(_ context.Context, assignment domain.UserRole) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.assignments = append(r.s.assignments, assignment)
	return nil
}

type memoryTransactor struct{ s *memoryStore }

func (t memoryTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.s.snapshot()
	if err := fn(ctx); err != nil {
		t.s.restore(snap)
		t.s.mu.Lock()
		t.s.rollbacks++
		t.s.mu.Unlock()
		return err
	}
	t.s.mu.Lock()
	t.s.commits++
	t.s.mu.Unlock()
	return nil
}

// recordingSender captures notifications and fails when failWith is set.
type recordingSender struct {
	mu       sync.Mutex
	sent     []domain.Notification
	failWith error
}

func (s *recordingSender) Send(_ context.Context, notification domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.sent = append(s.sent, notification)
	return nil
}

func (s *recordingSender) last(t *testing.T) domain.Notification {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatalf("expected a notification to be sent")
	}
	return s.sent[len(s.sent)-1]
}

// plainHasher keeps tests fast; the argon2 hasher has its own tests.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain$" + password, nil }

func (plainHasher) Verify(password, encoded string) bool { return encoded == "plain$"+password }

// sequenceGenerator hands out predetermined codes in order.
type sequenceGenerator struct {
	mu        sync.Mutex
	otps      []string
	passwords []string
}

func (g *sequenceGenerator) NewOTP() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.otps) == 0 {
		return "", errors.New("no otp left")
	}
	code := g.otps[0]
	g.otps = g.otps[1:]
	return code, nil
}

func (g *sequenceGenerator) TemporaryPassword() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.passwords) == 0 {
		return "", errors.New("no password left")
	}
	pw := g.passwords[0]
	g.passwords = g.passwords[1:]
	return pw, nil
}

// recordingMetrics counts outcomes per flow.
type recordingMetrics struct {
	mu            sync.Mutex
	flows         map[string][]error
	notifications map[string][]error
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{flows: map[string][]error{}, notifications: map[string][]error{}}
}

func (m *recordingMetrics) RecordFlow(flow string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flows[flow] = append(m.flows[flow], err)
}

func (m *recordingMetrics) RecordNotification(kind string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[kind] = append(m.notifications[kind], err)
}

// manualTime is a settable wall clock.
type manualTime struct {
	mu  sync.Mutex
	now time.Time
}

func (m *manualTime) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualTime) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// fixture wires every service against one memory store.
type fixture struct {
	store     *memoryStore
	sender    *recordingSender
	generator *sequenceGenerator
	time      *manualTime
	clock     *clock.ZoneClock
	tokens    *security.HMACTokenIssuer
	metrics   *recordingMetrics

	auth      *AuthService
	otp       *OTPService
	passwords *PasswordService
	bootstrap *Bootstrapper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mt := &manualTime{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	zc, err := clock.New("Asia/Kolkata", clock.WithNow(mt.Now))
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	tokens, err := security.NewHMACTokenIssuer("test-secret", security.TokenLifetime, mt.Now)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}

	f := &fixture{
		store:     &memoryStore{},
		sender:    &recordingSender{},
		generator: &sequenceGenerator{},
		time:      mt,
		clock:     zc,
		tokens:    tokens,
		metrics:   newRecordingMetrics(),
	}

	users := memoryUsers{f.store}
	credentials := memoryCredentials{f.store}
	codes := memoryCodes{f.store}
	roles := memoryRoles{f.store}
	tx := memoryTransactor{f.store}

	var ids int
	nextID := func() string {
		ids++
		return fmt.Sprintf("id-%03d", ids)
	}

	f.auth = NewAuthService(users, credentials, plainHasher{}, tokens, nil, WithAuthMetrics(f.metrics))
	f.otp = NewOTPService(users, codes, tx, f.generator, f.sender, tokens, zc, nil, WithOTPMetrics(f.metrics))
	f.otp.newID = nextID
	f.passwords = NewPasswordService(users, credentials, tx, f.generator, plainHasher{}, f.sender, zc, nil, WithPasswordMetrics(f.metrics))
	f.passwords.newID = nextID
	f.bootstrap = NewBootstrapper(users, credentials, roles, tx, plainHasher{}, zc, nil)
	f.bootstrap.newID = nextID

	return f
}

// addUser stores an active user with a password credential.
func (f *fixture) addUser(t *testing.T, username, email, phone, password string) domain.User {
	t.Helper()
	user := domain.User{
		ID:       "user-" + username,
		Username: username,
		Status:   domain.UserStatusActive,
	}
	if email != "" {
		user.Email = &email
	}
	if phone != "" {
		user.Phone = &phone
	}
	if err := (memoryUsers{f.store}).Create(context.Background(), user); err != nil {
		t.Fatalf("add user: %v", err)
	}
	if password != "" {
		if err := (memoryCredentials{f.store}).Create(context.Background(), domain.Credential{
			ID:           "cred-" + username,
			UserID:       user.ID,
			PasswordHash: "plain$" + password,
			Status:       domain.UserStatusActive,
		}); err != nil {
			t.Fatalf("add credential: %v", err)
		}
	}
	return user
}

func expectErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
