package repository

import (
	"errors"

	"attendance-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByChatID(chatID int64) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	GetByIDs(ids []uint) ([]*models.User, error)
	Update(user *models.User) error
	Delete(chatID int64) error
	Exists(chatID int64) (bool, error)
	GetAll() ([]*models.User, error)
	GetTeam(managerID uint) ([]*models.User, error)
	UpdateRole(chatID int64, role models.Role) error
	SetManager(chatID int64, managerID *uint) error
	GetAdmins() ([]*models.User, error)
	GetStats() (int, int, error)
}

type GormUserRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormUserRepository(db *gorm.DB, logger *logrus.Logger) (*GormUserRepository, error) {
	// Автомиграция - создает таблицы если их нет
	if err := db.AutoMigrate(&models.User{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate users table")
		return nil, err
	}

	return &GormUserRepository{db: db, logger: logger}, nil
}

func (r *GormUserRepository) Create(user *models.User) error {
	// Проверяем, существует ли уже пользователь
	exists, err := r.Exists(user.ChatID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}

	if err := r.db.Create(user).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create user")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"id":      user.ID,
		"chat_id": user.ChatID,
		"role":    user.Role,
	}).Info("User created")
	return nil
}

func (r *GormUserRepository) GetByChatID(chatID int64) (*models.User, error) {
	var user models.User
	result := r.db.Where("chat_id = ?", chatID).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &user, nil
}

func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	result := r.db.First(&user, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		return nil, result.Error
	}

	return &user, nil
}

func (r *GormUserRepository) GetByIDs(ids []uint) ([]*models.User, error) {
	users := []*models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.Where("id IN ?", ids).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormUserRepository) Update(user *models.User) error {
	// Проверяем существование пользователя
	exists, err := r.Exists(user.ChatID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	return r.db.Save(user).Error
}

func (r *GormUserRepository) Delete(chatID int64) error {
	result := r.db.Where("chat_id = ?", chatID).Delete(&models.User{})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	r.logger.WithField("chat_id", chatID).Info("User deleted")
	return nil
}

func (r *GormUserRepository) Exists(chatID int64) (bool, error) {
	var count int64
	result := r.db.Model(&models.User{}).Where("chat_id = ?", chatID).Count(&count)

	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

func (r *GormUserRepository) GetAll() ([]*models.User, error) {
	var users []*models.User
	result := r.db.Order("id ASC").Find(&users)

	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

// GetTeam возвращает руководителя и его прямых подчиненных
func (r *GormUserRepository) GetTeam(managerID uint) ([]*models.User, error) {
	var users []*models.User
	result := r.db.Where("id = ? OR manager_id = ?", managerID, managerID).
		Order("id ASC").
		Find(&users)

	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

func (r *GormUserRepository) UpdateRole(chatID int64, role models.Role) error {
	result := r.db.Model(&models.User{}).
		Where("chat_id = ?", chatID).
		Update("role", role)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SetManager назначает руководителя; nil снимает назначение
func (r *GormUserRepository) SetManager(chatID int64, managerID *uint) error {
	result := r.db.Model(&models.User{}).
		Where("chat_id = ?", chatID).
		Update("manager_id", managerID)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	r.logger.WithFields(logrus.Fields{
		"chat_id":    chatID,
		"manager_id": managerID,
	}).Info("User manager updated")
	return nil
}

func (r *GormUserRepository) GetAdmins() ([]*models.User, error) {
	var admins []*models.User
	result := r.db.Where("role = ?", models.RoleAdmin).Find(&admins)

	if result.Error != nil {
		return nil, result.Error
	}

	return admins, nil
}

func (r *GormUserRepository) GetStats() (int, int, error) {
	var total int64
	var admins int64

	// Получаем общее количество пользователей
	result := r.db.Model(&models.User{}).Count(&total)
	if result.Error != nil {
		return 0, 0, result.Error
	}

	// Получаем количество администраторов
	result = r.db.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&admins)
	if result.Error != nil {
		return 0, 0, result.Error
	}

	return int(total), int(admins), nil
}
