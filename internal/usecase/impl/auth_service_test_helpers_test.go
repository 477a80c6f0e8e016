package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"labfry/config"
	"labfry/internal/domain/entity"
	domainerrors "labfry/internal/domain/errors"
	"labfry/internal/domain/repository"
	"labfry/internal/domain/service"
	"labfry/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost:           12,
			SessionTTL:           24 * time.Hour,
			RememberMeSessionTTL: 7 * 24 * time.Hour,
		},
	}
}

// --- in-memory repositories ---

type fakeUserRepo struct {
	users   map[uuid.UUID]*entity.User
	findErr error
	saveErr error

	presenceCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if user, ok := r.users[id]; ok {
		clone := *user

		return &clone, nil
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, user := range r.users {
		if user.Email == email {
			clone := *user

			return &clone, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return domainerrors.ErrUserAlreadyExists
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone

	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone

	return nil
}

func (r *fakeUserRepo) UpdatePresence(_ context.Context, id uuid.UUID, isOnline bool) error {
	r.presenceCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	if user, ok := r.users[id]; ok {
		user.IsOnline = isOnline
		user.LastSeen = time.Now()
	}

	return nil
}

func (r *fakeUserRepo) mustGet(id uuid.UUID) *entity.User {
	return r.users[id]
}

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*entity.Session
	saveErr  error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*entity.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *entity.Session) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()
	clone := *session
	r.sessions[session.ID] = &clone

	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	if session, ok := r.sessions[id]; ok {
		clone := *session

		return &clone, nil
	}

	return nil, repository.ErrSessionNotFound
}

func (r *fakeSessionRepo) UpdateTokens(_ context.Context, id uuid.UUID, token, refreshToken string) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if session, ok := r.sessions[id]; ok {
		session.Token = token
		session.RefreshToken = refreshToken
		session.UpdatedAt = time.Now()
	}

	return nil
}

func (r *fakeSessionRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if session, ok := r.sessions[id]; ok {
		session.IsActive = false
	}

	return nil
}

func (r *fakeSessionRepo) DeactivateAllForUser(_ context.Context, userID uuid.UUID) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, session := range r.sessions {
		if session.UserID == userID {
			session.IsActive = false
		}
	}

	return nil
}

type fakeFactory struct {
	userRepo    *fakeUserRepo
	sessionRepo *fakeSessionRepo
}

func (f *fakeFactory) UserRepo() repository.UserRepository       { return f.userRepo }
func (f *fakeFactory) SessionRepo() repository.SessionRepository { return f.sessionRepo }

type fakeTxManager struct {
	factory *fakeFactory
	execErr error
}

func (tm *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	if tm.execErr != nil {
		return tm.execErr
	}

	return fn(tm.factory)
}

// --- stateless fakes ---

type fakeHasher struct {
	hashErr error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}

	return "hashed:" + password, nil
}

func (h *fakeHasher) Check(password, hash string) bool {
	return hash == "hashed:"+password
}

// fakeTokenService issues structured opaque strings instead of real JWTs so
// tests can assert the embedded identifiers directly.
type fakeTokenService struct {
	verifyErr error
}

func (s *fakeTokenService) GenerateAccessToken(payload service.SessionPayload) (string, error) {
	return fmt.Sprintf("access|%s|%s|%d", payload.UserID, payload.SessionID, time.Now().UnixNano()), nil
}

func (s *fakeTokenService) GenerateRefreshToken(payload service.SessionPayload) (string, error) {
	return fmt.Sprintf("refresh|%s|%s|%d", payload.UserID, payload.SessionID, time.Now().UnixNano()), nil
}

func (s *fakeTokenService) verifySessionToken(prefix, token string) (*service.SessionClaims, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	parts := strings.Split(token, "|")
	if len(parts) != 4 || parts[0] != prefix {
		return nil, service.ErrTokenMalformed
	}
	userID, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, service.ErrTokenMalformed
	}
	sessionID, err := uuid.Parse(parts[2])
	if err != nil {
		return nil, service.ErrTokenMalformed
	}

	return &service.SessionClaims{UserID: userID, SessionID: sessionID}, nil
}

func (s *fakeTokenService) VerifyAccessToken(token string) (*service.SessionClaims, error) {
	return s.verifySessionToken("access", token)
}

func (s *fakeTokenService) VerifyRefreshToken(token string) (*service.SessionClaims, error) {
	return s.verifySessionToken("refresh", token)
}

func (s *fakeTokenService) GenerateEmailVerificationToken(email string) (string, error) {
	return "verify|" + email, nil
}

func (s *fakeTokenService) VerifyEmailVerificationToken(token string) (string, error) {
	if s.verifyErr != nil {
		return "", s.verifyErr
	}
	email, ok := strings.CutPrefix(token, "verify|")
	if !ok {
		return "", service.ErrTokenMalformed
	}

	return email, nil
}

func (s *fakeTokenService) GeneratePasswordResetToken(email string) (string, error) {
	return "reset|" + email, nil
}

func (s *fakeTokenService) VerifyPasswordResetToken(token string) (string, error) {
	if s.verifyErr != nil {
		return "", s.verifyErr
	}
	email, ok := strings.CutPrefix(token, "reset|")
	if !ok {
		return "", service.ErrTokenMalformed
	}

	return email, nil
}

func (s *fakeTokenService) AccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (s *fakeTokenService) RefreshTokenTTL() time.Duration { return 7 * 24 * time.Hour }

var testCodePattern = regexp.MustCompile(`^\d{6}$`)

type fakeCodeGenerator struct {
	next string
}

func (g *fakeCodeGenerator) Generate() (string, error) {
	if g.next == "" {
		return "654321", nil
	}

	return g.next, nil
}

func (g *fakeCodeGenerator) Expiry() time.Time {
	return time.Now().Add(15 * time.Minute)
}

func (g *fakeCodeGenerator) IsExpired(expiry *time.Time) bool {
	return expiry == nil || time.Now().After(*expiry)
}

func (g *fakeCodeGenerator) ValidFormat(code string) bool {
	return testCodePattern.MatchString(code)
}

type sentMail struct {
	kind  string
	to    string
	token string
	code  string
}

type fakeMailer struct {
	sent     []sentMail
	failSend bool
}

func (m *fakeMailer) SendVerificationEmail(_ context.Context, email, _, token, code string) error {
	if m.failSend {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{kind: "verification", to: email, token: token, code: code})

	return nil
}

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, email, _, token, code string) error {
	if m.failSend {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{kind: "reset", to: email, token: token, code: code})

	return nil
}

func (m *fakeMailer) SendWelcomeEmail(_ context.Context, email, _ string) error {
	if m.failSend {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{kind: "welcome", to: email})

	return nil
}

func (m *fakeMailer) HealthCheck(context.Context) error {
	if m.failSend {
		return errors.New("smtp unavailable")
	}

	return nil
}

// --- fixture ---

type authFixture struct {
	service     usecase.AuthUsecase
	userRepo    *fakeUserRepo
	sessionRepo *fakeSessionRepo
	txManager   *fakeTxManager
	tokens      *fakeTokenService
	codeGen     *fakeCodeGenerator
	mailer      *fakeMailer
}

func newAuthFixture() *authFixture {
	userRepo := newFakeUserRepo()
	sessionRepo := newFakeSessionRepo()
	txManager := &fakeTxManager{factory: &fakeFactory{userRepo: userRepo, sessionRepo: sessionRepo}}
	tokens := &fakeTokenService{}
	codeGen := &fakeCodeGenerator{}
	mailer := &fakeMailer{}

	svc := NewAuthService(AuthServiceParams{
		TxManager:    txManager,
		UserRepo:     userRepo,
		SessionRepo:  sessionRepo,
		Hasher:       &fakeHasher{},
		TokenService: tokens,
		CodeGen:      codeGen,
		Mailer:       mailer,
		Config:       newTestConfig(),
		Logger:       newDiscardLogger(),
	})

	return &authFixture{
		service:     svc,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		txManager:   txManager,
		tokens:      tokens,
		codeGen:     codeGen,
		mailer:      mailer,
	}
}

// seedUser registers and returns a stored user directly through the repo.
func (f *authFixture) seedUser(email string, role entity.Role, status entity.AccountStatus, verified bool) *entity.User {
	user := &entity.User{
		Email:         email,
		PasswordHash:  "hashed:password123",
		FirstName:     "Test",
		LastName:      "User",
		Role:          role,
		Status:        status,
		EmailVerified: verified,
		LastSeen:      time.Now(),
	}
	_ = f.userRepo.Create(context.Background(), user)

	return f.userRepo.mustGet(user.ID)
}
