// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"labfry/internal/domain/entity"
	domainerrors "labfry/internal/domain/errors"
	"labfry/internal/domain/repository"
	"labfry/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a domain.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by id")
	}

	return toUserDomain(&userM), nil
}

// FindByEmail retrieves a single user by their email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where("email = ?", email).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	return toUserDomain(&userM), nil
}

// Create persists a new user entity to the database.
// The unique index on email is the final arbiter against duplicate accounts.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.LastSeen.IsZero() {
		user.LastSeen = time.Now()
	}

	userM := fromUserDomain(user)
	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required user information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// Update modifies an existing user entity in the database. Save writes every
// column, which is what the verification and reset flows rely on to null out
// consumed token and code fields.
func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)
	if err := repo.db.WithContext(ctx).Save(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required user information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to update user")
	}

	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// UpdatePresence writes only the presence columns.
func (repo *userRepository) UpdatePresence(ctx context.Context, id uuid.UUID, isOnline bool) error {
	err := repo.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_online": isOnline,
			"last_seen": time.Now(),
		}).Error
	if err != nil {
		return errors.Wrap(err, "failed to update user presence")
	}

	return nil
}

// --- Mapper Functions ---

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:           data.ID,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		FirstName:    data.FirstName,
		LastName:     data.LastName,
		Role:         entity.RoleFromString(data.Role),
		Status:       entity.AccountStatus(data.Status),

		EmailVerified:                data.EmailVerified,
		EmailVerificationToken:       data.EmailVerificationToken,
		EmailVerificationTokenExpiry: data.EmailVerificationTokenExpiry,
		EmailVerificationCode:        data.EmailVerificationCode,
		EmailVerificationCodeExpiry:  data.EmailVerificationCodeExpiry,

		PasswordResetToken:       data.PasswordResetToken,
		PasswordResetTokenExpiry: data.PasswordResetTokenExpiry,
		PasswordResetCode:        data.PasswordResetCode,
		PasswordResetCodeExpiry:  data.PasswordResetCodeExpiry,

		IsOnline:  data.IsOnline,
		LastSeen:  data.LastSeen,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

// fromUserDomain converts a domain User entity to a GORM UserModel for persistence.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:           data.ID,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		FirstName:    data.FirstName,
		LastName:     data.LastName,
		Role:         data.Role.String(),
		Status:       data.Status.String(),

		EmailVerified:                data.EmailVerified,
		EmailVerificationToken:       data.EmailVerificationToken,
		EmailVerificationTokenExpiry: data.EmailVerificationTokenExpiry,
		EmailVerificationCode:        data.EmailVerificationCode,
		EmailVerificationCodeExpiry:  data.EmailVerificationCodeExpiry,

		PasswordResetToken:       data.PasswordResetToken,
		PasswordResetTokenExpiry: data.PasswordResetTokenExpiry,
		PasswordResetCode:        data.PasswordResetCode,
		PasswordResetCodeExpiry:  data.PasswordResetCodeExpiry,

		IsOnline:  data.IsOnline,
		LastSeen:  data.LastSeen,
		CreatedAt: data.CreatedAt,
	}
}
