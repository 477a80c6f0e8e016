package postgres

import (
	"context"

	"labfry/internal/domain/entity"
	domainerrors "labfry/internal/domain/errors"
	"labfry/internal/domain/repository"
	"labfry/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// sessionRepository implements the domain.SessionRepository interface using GORM.
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository is the constructor for sessionRepository.
func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// Create persists a new session row carrying its final token pair.
func (repo *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	sessionM := fromSessionDomain(session)
	if err := repo.db.WithContext(ctx).Create(sessionM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create session")
	}

	session.CreatedAt = sessionM.CreatedAt
	session.UpdatedAt = sessionM.UpdatedAt

	return nil
}

// FindByID retrieves a session by its unique ID regardless of active state.
func (repo *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	var sessionM model.SessionModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&sessionM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.Wrap(err, "failed to find session by id")
	}

	return toSessionDomain(&sessionM), nil
}

// UpdateTokens overwrites the stored token pair in place. The expires_at
// column is deliberately not touched; refreshes never extend a session.
func (repo *sessionRepository) UpdateTokens(ctx context.Context, id uuid.UUID, token, refreshToken string) error {
	err := repo.db.WithContext(ctx).Model(&model.SessionModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"token":         token,
			"refresh_token": refreshToken,
		}).Error
	if err != nil {
		return errors.Wrap(err, "failed to update session tokens")
	}

	return nil
}

// Deactivate marks a single session inactive. Matching zero rows is fine,
// which makes repeated logout calls harmless.
func (repo *sessionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	err := repo.db.WithContext(ctx).Model(&model.SessionModel{}).
		Where("id = ?", id).
		Update("is_active", false).Error
	if err != nil {
		return errors.Wrap(err, "failed to deactivate session")
	}

	return nil
}

// DeactivateAllForUser marks every session of a user inactive.
func (repo *sessionRepository) DeactivateAllForUser(ctx context.Context, userID uuid.UUID) error {
	err := repo.db.WithContext(ctx).Model(&model.SessionModel{}).
		Where("user_id = ?", userID).
		Update("is_active", false).Error
	if err != nil {
		return errors.Wrap(err, "failed to deactivate user sessions")
	}

	return nil
}

// --- Mapper Functions ---

func toSessionDomain(data *model.SessionModel) *entity.Session {
	if data == nil {
		return nil
	}

	return &entity.Session{
		ID:           data.ID,
		UserID:       data.UserID,
		Token:        data.Token,
		RefreshToken: data.RefreshToken,
		ExpiresAt:    data.ExpiresAt,
		IsActive:     data.IsActive,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

func fromSessionDomain(data *entity.Session) *model.SessionModel {
	if data == nil {
		return nil
	}

	return &model.SessionModel{
		ID:           data.ID,
		UserID:       data.UserID,
		Token:        data.Token,
		RefreshToken: data.RefreshToken,
		ExpiresAt:    data.ExpiresAt,
		IsActive:     data.IsActive,
		CreatedAt:    data.CreatedAt,
	}
}
