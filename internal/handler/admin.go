package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"attendance-bot/internal/models"
	"attendance-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// showAllUsers показывает всех пользователей
func (h *Handler) showAllUsers(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if !h.requireAdmin(chatID) {
		return
	}

	allUsers, err := h.userService.FormatAllUsers()
	if err != nil {
		h.reply(chatID, "❌ Ошибка получения списка пользователей: "+err.Error())
		return
	}

	h.reply(chatID, allUsers)
}

// showStats показывает статистику (только для админов)
func (h *Handler) showStats(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if !h.requireAdmin(chatID) {
		return
	}

	total, admins, err := h.userService.GetStats()
	if err != nil {
		h.reply(chatID, "❌ Ошибка получения статистики: "+err.Error())
		return
	}

	holidays, err := h.nonWorkingDayService.CountNonWorkingDays()
	if err != nil {
		h.logger.WithError(err).Warn("Failed to count non-working days")
	}

	h.reply(chatID, fmt.Sprintf(`📊 Статистика бота:

👥 Всего пользователей: %d
👑 Администраторов: %d
👤 Сотрудников: %d
📅 Выходных дней в календаре: %d
🕐 Часовой пояс: %s`,
		total, admins, total-admins, holidays, h.loc.String()))
}

// showAdmins показывает всех администраторов (только для админов)
func (h *Handler) showAdmins(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if !h.requireAdmin(chatID) {
		return
	}

	admins, err := h.userService.GetAdmins()
	if err != nil {
		h.reply(chatID, "❌ Ошибка получения списка администраторов: "+err.Error())
		return
	}

	if len(admins) == 0 {
		h.reply(chatID, "👑 Список администраторов пуст.")
		return
	}

	lines := []string{"👑 Администраторы:", ""}
	for i, admin := range admins {
		adminInfo := fmt.Sprintf("%d. %s ", i+1, admin.DisplayName())
		if admin.Username != "" {
			adminInfo += fmt.Sprintf("(@%s) ", admin.Username)
		}
		adminInfo += fmt.Sprintf("- ID: %d", admin.ChatID)
		lines = append(lines, adminInfo)
	}

	h.reply(chatID, strings.Join(lines, "\n"))
}

// setUserRole изменяет роль пользователя
func (h *Handler) setUserRole(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	parts := strings.Fields(args)
	if len(parts) != 2 {
		h.reply(chatID, "❌ Неверный формат.\nПример: /setrole 123456789 manager\nДоступные роли: admin, manager, client")
		return
	}

	targetChatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Неверный формат ID.\nID должен быть числом.")
		return
	}

	role := models.Role(strings.ToLower(parts[1]))
	switch role {
	case models.RoleAdmin, models.RoleManager, models.RoleClient:
	default:
		h.reply(chatID, "❌ Неизвестная роль.\nДоступные роли: admin, manager, client")
		return
	}

	// Не позволяем понизить главного администратора из конфига
	if role != models.RoleAdmin && h.config.BaseAdminChatID != 0 && targetChatID == h.config.BaseAdminChatID {
		h.reply(chatID, "❌ Нельзя изменить роль главного администратора, заданного в конфигурации!")
		return
	}

	if err := h.userService.UpdateRole(chatID, targetChatID, role); err != nil {
		h.reply(chatID, adminErrorText("Ошибка изменения роли", err))
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Роль пользователя с ID %d изменена на '%s'!", targetChatID, role))
}

// setManager: /setmanager ID_сотрудника ID_руководителя, "-" вместо руководителя убирает его
func (h *Handler) setManager(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	parts := strings.Fields(args)
	if len(parts) != 2 {
		h.reply(chatID, "❌ Неверный формат.\nПример: /setmanager 123456789 987654321")
		return
	}

	employeeChatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Неверный формат ID сотрудника.")
		return
	}

	if parts[1] == "-" {
		if err := h.userService.ClearManager(chatID, employeeChatID); err != nil {
			h.reply(chatID, adminErrorText("Ошибка назначения руководителя", err))
			return
		}
		h.reply(chatID, fmt.Sprintf("✅ У сотрудника с ID %d больше нет руководителя.", employeeChatID))
		return
	}

	managerChatID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Неверный формат ID руководителя.")
		return
	}

	if err := h.userService.SetManager(chatID, employeeChatID, managerChatID); err != nil {
		h.reply(chatID, adminErrorText("Ошибка назначения руководителя", err))
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Руководитель сотрудника с ID %d: ID %d", employeeChatID, managerChatID))
}

func adminErrorText(prefix string, err error) string {
	switch {
	case errors.Is(err, service.ErrAccessDenied):
		return "❌ Доступ запрещен. Эта команда только для администраторов."
	case errors.Is(err, service.ErrUserNotFound):
		return "❌ Пользователь не найден."
	default:
		return "❌ " + prefix + ": " + err.Error()
	}
}
