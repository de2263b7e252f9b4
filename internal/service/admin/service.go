package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"ballmatro-service/internal/config"
	"ballmatro-service/internal/model"
	pkgAuth "ballmatro-service/pkg/auth"
	appErr "ballmatro-service/pkg/errors"
	"ballmatro-service/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const statusActive = "active"

// Service manages the operators allowed to generate datasets and run LLM
// attempts.
type Service struct {
	db *gorm.DB
}

type LoginResult struct {
	Token    string    `json:"token"`
	ExpireAt time.Time `json:"expireAt"`
	Admin    AdminInfo `json:"admin"`
}

type AdminInfo struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"displayName"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, appErr.ErrInvalidAdminPassword
	}

	admin, err := s.find(ctx, "username = ?", username)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(admin.Status, statusActive) {
		return nil, appErr.ErrAdminDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		logger.L().Warn("operator login rejected", zap.String("username", username))
		return nil, appErr.ErrInvalidAdminPassword
	}

	token, err := pkgAuth.GenerateAdminToken(admin.ID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	expireAt := now.Add(time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour)

	if err := s.db.WithContext(ctx).
		Model(admin).
		Updates(map[string]interface{}{
			"last_login_at": now,
			"updated_at":    now,
		}).Error; err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:    token,
		ExpireAt: expireAt,
		Admin:    sanitizeAdmin(*admin),
	}, nil
}

// Profile returns the operator behind a verified token.
func (s *Service) Profile(ctx context.Context, adminID int64) (*AdminInfo, error) {
	admin, err := s.find(ctx, "id = ?", adminID)
	if err != nil {
		return nil, err
	}
	info := sanitizeAdmin(*admin)
	return &info, nil
}

func (s *Service) EnsureDefaultAdmin(ctx context.Context) error {
	cfg := config.GlobalConfig.Admin
	if cfg.DefaultUsername == "" || cfg.DefaultPassword == "" {
		logger.L().Warn("default admin credentials not configured; skipping bootstrap")
		return nil
	}

	var exists int64
	if err := s.db.WithContext(ctx).
		Model(&model.Admin{}).
		Where("username = ?", cfg.DefaultUsername).
		Count(&exists).Error; err != nil {
		return err
	}
	if exists > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.Admin{
		Username:     cfg.DefaultUsername,
		PasswordHash: string(hash),
		DisplayName:  cfg.DefaultUsername,
		Status:       statusActive,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return err
	}
	logger.L().Info("default admin account created",
		zap.String("username", cfg.DefaultUsername))
	return nil
}

func (s *Service) find(ctx context.Context, query string, arg interface{}) (*model.Admin, error) {
	var admin model.Admin
	if err := s.db.WithContext(ctx).Where(query, arg).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func sanitizeAdmin(admin model.Admin) AdminInfo {
	return AdminInfo{
		ID:          admin.ID,
		Username:    admin.Username,
		DisplayName: admin.DisplayName,
		Status:      admin.Status,
		LastLoginAt: admin.LastLoginAt,
		CreatedAt:   admin.CreatedAt,
	}
}
