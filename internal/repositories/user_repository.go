package repositories

import (
	"github.com/chamadopro/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateUser(user *models.User) error
	SetDeviceToken(userID uint, token string) error
	ListUsers(page, limit int) ([]models.User, int64, error)
}

type postgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new UserRepository backed by PostgreSQL
func NewPostgresUserRepository(db *gorm.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *postgresUserRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *postgresUserRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *postgresUserRepository) UpdateUser(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *postgresUserRepository) SetDeviceToken(userID uint, token string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("device_token", token).Error
}

func (r *postgresUserRepository) ListUsers(page, limit int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	r.db.Model(&models.User{}).Count(&total)

	offset := (page - 1) * limit
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}
