package handler

import (
	"errors"
	"fmt"
	"strings"

	"attendance-bot/internal/models"
	"attendance-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	stateAwaitingFirstName = "awaiting_first_name"
	stateAwaitingLastName  = "awaiting_last_name:"
	stateAwaitingUpdate    = "awaiting_update"
)

const profileNotFoundText = "❌ Профиль не найден.\nИспользуйте /createprofile чтобы создать профиль."

// startProfileCreation начинает процесс создания профиля
func (h *Handler) startProfileCreation(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if user, err := h.userService.GetUser(chatID); err == nil && user != nil {
		h.reply(chatID, "❌ У вас уже есть профиль!\nИспользуйте /myprofile чтобы посмотреть его или /updateprofile чтобы изменить.")
		return
	}

	h.userStates[chatID] = stateAwaitingFirstName

	h.reply(chatID, `👤 Создание профиля

Шаг 1 из 2:
✏️ Пожалуйста, отправьте ваше имя:`)
}

// handleProfileState обрабатывает состояния создания/обновления профиля
func (h *Handler) handleProfileState(message *tgbotapi.Message, state string) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	username := ""
	if message.From != nil {
		username = message.From.UserName
	}

	switch {
	case state == stateAwaitingFirstName:
		if text == "" {
			h.reply(chatID, "❌ Имя не может быть пустым. Отправьте ваше имя:")
			return
		}
		h.userStates[chatID] = stateAwaitingLastName + text

		h.reply(chatID, fmt.Sprintf(`Шаг 2 из 2:
✅ Имя сохранено: %s
✏️ Теперь отправьте вашу фамилию (если нет фамилии, отправьте "-"):`, text))

	case strings.HasPrefix(state, stateAwaitingLastName):
		firstName := strings.TrimPrefix(state, stateAwaitingLastName)
		lastName := text
		if lastName == "-" {
			lastName = ""
		}

		delete(h.userStates, chatID)

		user, err := h.userService.CreateUser(chatID, username, firstName, lastName)
		if err != nil {
			h.reply(chatID, "❌ Ошибка создания профиля: "+err.Error())
			return
		}

		h.reply(chatID, fmt.Sprintf(`🎉 Профиль успешно создан!

%s

Теперь вы можете отмечать начало рабочего дня командой /in.`, h.userService.FormatUserInfo(user)))

	case state == stateAwaitingUpdate:
		delete(h.userStates, chatID)

		parts := strings.Fields(text)
		if len(parts) < 1 {
			h.reply(chatID, "❌ Неверный формат. Пожалуйста, отправьте имя и фамилию.")
			return
		}

		firstName := parts[0]
		lastName := ""
		if len(parts) > 1 {
			lastName = strings.Join(parts[1:], " ")
		}

		user, err := h.userService.UpdateUser(chatID, username, firstName, lastName)
		if err != nil {
			h.reply(chatID, "❌ Ошибка обновления профиля: "+err.Error())
			return
		}

		h.reply(chatID, "✅ Профиль успешно обновлен!\n\n"+h.userService.FormatUserInfo(user))

	default:
		delete(h.userStates, chatID)
	}
}

// showProfile показывает профиль пользователя
func (h *Handler) showProfile(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user, err := h.userService.GetUser(chatID)
	if err != nil {
		h.reply(chatID, profileNotFoundText)
		return
	}

	h.reply(chatID, h.userService.FormatUserInfo(user))
}

// startProfileUpdate начинает процесс обновления профиля
func (h *Handler) startProfileUpdate(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if _, err := h.userService.GetUser(chatID); err != nil {
		h.reply(chatID, profileNotFoundText)
		return
	}

	h.reply(chatID, `✏️ Обновление профиля

Отправьте новые данные в формате:
Имя Фамилия

Например: Иван Иванов
Или просто: Иван (если нужно обновить только имя)`)

	h.userStates[chatID] = stateAwaitingUpdate
}

// deleteProfile спрашивает подтверждение удаления профиля
func (h *Handler) deleteProfile(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да, удалить", "confirm_delete"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Нет, отменить", "cancel_delete"),
		),
	)

	msg := tgbotapi.NewMessage(chatID, "⚠️ Вы уверены, что хотите удалить свой профиль?\nЖурнал действий и заявки тоже будут удалены.")
	msg.ReplyMarkup = keyboard
	h.client.Send(msg)
}

// currentUser возвращает профиль автора сообщения или отвечает, что профиля нет
func (h *Handler) currentUser(chatID int64) (*models.User, bool) {
	user, err := h.userService.GetUser(chatID)
	if err != nil {
		if !errors.Is(err, service.ErrUserNotFound) {
			h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to load user")
		}
		h.reply(chatID, profileNotFoundText)
		return nil, false
	}
	return user, true
}

// requireAdmin отвечает отказом, если автор сообщения не администратор
func (h *Handler) requireAdmin(chatID int64) bool {
	isAdmin, err := h.userService.IsAdmin(chatID)
	if err != nil {
		h.logger.WithError(err).Error("Error checking admin status")
		h.reply(chatID, "❌ Ошибка проверки прав доступа: "+err.Error())
		return false
	}

	if !isAdmin {
		h.logger.WithField("chat_id", chatID).Warn("Unauthorized access to admin command")
		h.reply(chatID, "❌ Доступ запрещен. Эта команда только для администраторов.")
		return false
	}
	return true
}
