package service

import (
	"errors"
	"fmt"
	"strings"

	"attendance-bot/internal/models"
	"attendance-bot/internal/repository"

	"github.com/sirupsen/logrus"
)

type UserService struct {
	repo   repository.UserRepository
	events repository.ActionEventRepository
	absent repository.AbsencePeriodRepository
	logger *logrus.Logger
}

func NewUserService(
	repo repository.UserRepository,
	events repository.ActionEventRepository,
	absent repository.AbsencePeriodRepository,
	logger *logrus.Logger,
) *UserService {
	return &UserService{repo: repo, events: events, absent: absent, logger: logger}
}

// CreateUser создает нового пользователя с ролью client по умолчанию
func (s *UserService) CreateUser(chatID int64, username, firstName, lastName string) (*models.User, error) {
	// Проверяем валидность данных
	if strings.TrimSpace(firstName) == "" {
		return nil, fmt.Errorf("имя не может быть пустым")
	}

	user := &models.User{
		ChatID:    chatID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Role:      models.RoleClient,
	}

	if err := s.repo.Create(user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, fmt.Errorf("профиль уже создан")
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"user_id": user.ID,
	}).Info("Profile created")
	return user, nil
}

// GetUser возвращает пользователя по chatID
func (s *UserService) GetUser(chatID int64) (*models.User, error) {
	user, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// UpdateUser обновляет данные пользователя
func (s *UserService) UpdateUser(chatID int64, username, firstName, lastName string) (*models.User, error) {
	user, err := s.GetUser(chatID)
	if err != nil {
		return nil, err
	}

	// Обновляем поля (кроме роли)
	if username != "" {
		user.Username = username
	}
	if firstName != "" {
		user.FirstName = firstName
	}
	if lastName != "" {
		user.LastName = lastName
	}

	if err := s.repo.Update(user); err != nil {
		return nil, fmt.Errorf("ошибка обновления пользователя: %w", err)
	}

	return user, nil
}

// UpdateRole обновляет роль пользователя (только для админов)
func (s *UserService) UpdateRole(adminChatID, targetChatID int64, role models.Role) error {
	if err := s.requireAdmin(adminChatID); err != nil {
		return err
	}

	if _, err := s.GetUser(targetChatID); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"admin_chat_id":  adminChatID,
		"target_chat_id": targetChatID,
		"role":           role,
	}).Info("Updating user role")
	return s.repo.UpdateRole(targetChatID, role)
}

// SetManager назначает руководителя сотруднику. Руководитель получает роль manager,
// если у него роль client.
func (s *UserService) SetManager(adminChatID, employeeChatID, managerChatID int64) error {
	if err := s.requireAdmin(adminChatID); err != nil {
		return err
	}
	if employeeChatID == managerChatID {
		return fmt.Errorf("сотрудник не может быть руководителем самому себе")
	}

	if _, err := s.GetUser(employeeChatID); err != nil {
		return err
	}
	manager, err := s.GetUser(managerChatID)
	if err != nil {
		return err
	}

	if manager.Role == models.RoleClient {
		if err := s.repo.UpdateRole(managerChatID, models.RoleManager); err != nil {
			return err
		}
	}

	return s.repo.SetManager(employeeChatID, &manager.ID)
}

func (s *UserService) requireAdmin(chatID int64) error {
	admin, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return fmt.Errorf("ошибка проверки админа: %w", err)
	}
	if admin == nil || !admin.IsAdmin() {
		return ErrAccessDenied
	}
	return nil
}

// FormatUserInfo форматирует информацию о пользователе для вывода
func (s *UserService) FormatUserInfo(user *models.User) string {
	var lines []string

	lines = append(lines, "👤 Профиль пользователя:")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("🆔 ID чата: %d", user.ChatID))

	if user.Username != "" {
		lines = append(lines, fmt.Sprintf("📛 Никнейм: @%s", user.Username))
	}

	lines = append(lines, fmt.Sprintf("👨‍💼 Имя: %s", user.FirstName))

	if user.LastName != "" {
		lines = append(lines, fmt.Sprintf("👨‍💼 Фамилия: %s", user.LastName))
	}

	roleEmoji := "👤"
	if user.IsAdmin() {
		roleEmoji = "👑"
	}
	lines = append(lines, fmt.Sprintf("%s Роль: %s", roleEmoji, string(user.Role)))

	if user.ManagerID != nil {
		if manager, err := s.repo.GetByID(*user.ManagerID); err == nil && manager != nil {
			lines = append(lines, fmt.Sprintf("🧭 Руководитель: %s", manager.DisplayName()))
		}
	}

	return strings.Join(lines, "\n")
}

// DeleteUser удаляет пользователя вместе с его журналом и отсутствиями
func (s *UserService) DeleteUser(chatID int64) error {
	user, err := s.GetUser(chatID)
	if err != nil {
		return err
	}

	if err := s.events.DeleteByUserID(user.ID); err != nil {
		return fmt.Errorf("ошибка удаления журнала: %w", err)
	}
	if err := s.absent.DeleteByUserID(user.ID); err != nil {
		return fmt.Errorf("ошибка удаления отсутствий: %w", err)
	}

	return s.repo.Delete(chatID)
}

// GetAllUsers возвращает всех пользователей
func (s *UserService) GetAllUsers() ([]*models.User, error) {
	return s.repo.GetAll()
}

// FormatAllUsers форматирует список всех пользователей
func (s *UserService) FormatAllUsers() (string, error) {
	users, err := s.GetAllUsers()
	if err != nil {
		return "", err
	}

	if len(users) == 0 {
		return "📭 Список пользователей пуст.", nil
	}

	var lines []string
	lines = append(lines, "📋 Все пользователи:")
	lines = append(lines, "")

	for i, user := range users {
		roleEmoji := "👤"
		if user.IsAdmin() {
			roleEmoji = "👑"
		}

		userInfo := fmt.Sprintf("%d. %s %s ", i+1, roleEmoji, user.DisplayName())
		if user.Username != "" {
			userInfo += fmt.Sprintf("(@%s) ", user.Username)
		}
		userInfo += fmt.Sprintf("- ID: %d", user.ChatID)
		lines = append(lines, userInfo)
	}

	total, admins, err := s.repo.GetStats()
	if err == nil {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("📊 Всего пользователей: %d", total))
		lines = append(lines, fmt.Sprintf("👑 Администраторов: %d", admins))
	}

	return strings.Join(lines, "\n"), nil
}

// IsAdmin проверяет, является ли пользователь администратором
func (s *UserService) IsAdmin(chatID int64) (bool, error) {
	user, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return false, err
	}

	return user != nil && user.IsAdmin(), nil
}

// InitializeAdmin инициализирует администратора из конфига
func (s *UserService) InitializeAdmin(adminChatID int64) error {
	if adminChatID == 0 {
		return nil // Админ не задан в конфиге
	}

	existingUser, err := s.repo.GetByChatID(adminChatID)
	if err != nil {
		return err
	}

	if existingUser != nil {
		return s.repo.UpdateRole(adminChatID, models.RoleAdmin)
	}

	adminUser := &models.User{
		ChatID:    adminChatID,
		Username:  "admin",
		FirstName: "Администратор",
		Role:      models.RoleAdmin,
	}

	return s.repo.Create(adminUser)
}

// GetAdmins возвращает всех администраторов
func (s *UserService) GetAdmins() ([]*models.User, error) {
	return s.repo.GetAdmins()
}

// GetStats возвращает количество пользователей и администраторов
func (s *UserService) GetStats() (int, int, error) {
	return s.repo.GetStats()
}

// ClearManager убирает руководителя у сотрудника
func (s *UserService) ClearManager(adminChatID, employeeChatID int64) error {
	if err := s.requireAdmin(adminChatID); err != nil {
		return err
	}
	if _, err := s.GetUser(employeeChatID); err != nil {
		return err
	}
	return s.repo.SetManager(employeeChatID, nil)
}

// GetUserByID возвращает пользователя по внутреннему ID
func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
