package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ivgeniay/jointpresentation/internal/models"
)

// UserService resolves nickname identities. Users are never deleted.
type UserService struct {
	db     *gorm.DB
	limits Limits
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, limits Limits) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, limits: limits.withDefaults()}, nil
}

// GetOrCreate returns the user owning nickname, creating it on first use.
// A concurrent creation of the same nickname resolves to the row that won.
func (s *UserService) GetOrCreate(ctx context.Context, nickname string) (*models.User, error) {
	ctx = ensureContext(ctx)

	nickname = strings.TrimSpace(nickname)
	if err := validateText("nickname", nickname, s.limits.NicknameMaxLength); err != nil {
		return nil, err
	}

	if user, err := s.findByNickname(ctx, nickname); err == nil {
		return user, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError("User", "load user", err)
	}

	user := &models.User{Nickname: nickname}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if !isUniqueConstraintError(err) {
			return nil, storeError("User", "create user", err)
		}
		existing, lookupErr := s.findByNickname(ctx, nickname)
		if lookupErr != nil {
			return nil, storeError("User", "load user", lookupErr)
		}
		return existing, nil
	}
	return user, nil
}

// GetByID loads a user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, storeError("User", "get user", err)
	}
	return &user, nil
}

// List returns every known user ordered by nickname.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	if err := s.db.WithContext(ctx).Order("nickname ASC").Find(&users).Error; err != nil {
		return nil, storeError("User", "list users", err)
	}
	return users, nil
}

func (s *UserService) findByNickname(ctx context.Context, nickname string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "nickname = ?", nickname).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
