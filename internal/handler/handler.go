package handler

import (
	"context"
	"time"

	"attendance-bot/internal/config"
	"attendance-bot/internal/service"
	"attendance-bot/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	client               telegram.Sender
	userService          *service.UserService
	attendanceService    *service.AttendanceService
	absenceService       *service.AbsenceService
	nonWorkingDayService *service.NonWorkingDayService
	userStates           map[int64]string
	config               *config.BotConfig
	loc                  *time.Location
	now                  func() time.Time
	logger               *logrus.Logger
}

func NewHandler(
	client telegram.Sender,
	userService *service.UserService,
	attendanceService *service.AttendanceService,
	absenceService *service.AbsenceService,
	nonWorkingDayService *service.NonWorkingDayService,
	cfg *config.BotConfig,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		client:               client,
		userService:          userService,
		attendanceService:    attendanceService,
		absenceService:       absenceService,
		nonWorkingDayService: nonWorkingDayService,
		userStates:           make(map[int64]string),
		config:               cfg,
		loc:                  cfg.Location(),
		now:                  time.Now,
		logger:               logger,
	}
}

// HandleUpdates обрабатывает обновления по одному, пока канал не закрыт или ctx не отменен
func (h *Handler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	// Обработка callback query (для inline кнопок)
	if update.CallbackQuery != nil {
		h.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	h.handleMessage(ctx, update.Message)
}

// handleCallbackQuery обрабатывает inline кнопки
func (h *Handler) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	// Удаляем клавиатуру
	editMsg := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup())
	h.client.Send(editMsg)

	switch callback.Data {
	case "confirm_delete":
		if err := h.userService.DeleteUser(chatID); err != nil {
			h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to delete profile")
			h.reply(chatID, "❌ Ошибка удаления профиля: "+err.Error())
		} else {
			h.reply(chatID, "✅ Ваш профиль успешно удален!")
		}
	case "cancel_delete":
		h.reply(chatID, "❌ Удаление профиля отменено.")
	case "command_clock_in":
		h.recordAction(ctx, chatID, actionLogin)
	case "command_clock_out":
		h.recordAction(ctx, chatID, actionLogout)
	}

	// Отвечаем на callback (убираем "часики" у кнопки)
	h.client.Send(tgbotapi.NewCallback(callback.ID, ""))
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	username := ""
	if message.From != nil {
		username = message.From.UserName
	}
	h.logger.WithFields(logrus.Fields{
		"chat_id":  message.Chat.ID,
		"username": username,
	}).Debug(message.Text)

	chatID := message.Chat.ID

	// Проверяем, находится ли пользователь в процессе создания/обновления профиля
	if state, exists := h.userStates[chatID]; exists && !message.IsCommand() {
		h.handleProfileState(message, state)
		return
	}
	delete(h.userStates, chatID)

	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}

	h.reply(chatID, "🤖 Я понимаю только команды. Используйте /help для списка команд.")
}

func (h *Handler) reply(chatID int64, text string) {
	if _, err := h.client.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to send message")
	}
}
