package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"attendance-bot/internal/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// addHoliday: /holiday дата [название], только для админов
func (h *Handler) addHoliday(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	if !h.requireAdmin(chatID) {
		return
	}

	parts := strings.Fields(args)
	if len(parts) == 0 {
		h.reply(chatID, "❌ Укажите дату.\nПример: /holiday 31.12.2026 Новогодний выходной")
		return
	}

	date, err := parseDate(parts[0], h.today())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	title := strings.Join(parts[1:], " ")

	if err := h.nonWorkingDayService.AddDay(date, title); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			h.reply(chatID, fmt.Sprintf("⚠️ %s уже отмечен как выходной.", formatDate(date)))
			return
		}
		h.logger.WithError(err).Error("Failed to add holiday")
		h.reply(chatID, "❌ Ошибка добавления выходного: "+err.Error())
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ %s добавлен в календарь как выходной.", formatShortDate(date)))
}

// showHolidays: /holidays [месяц]
func (h *Handler) showHolidays(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	ym, err := parseMonth(args, h.today())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	days, err := h.nonWorkingDayService.ForMonth(ctx, ym)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load holidays")
		h.reply(chatID, "❌ Ошибка получения календаря: "+err.Error())
		return
	}

	h.reply(chatID, formatHolidays(ym, days))
}

// checkWorkingDay: /checkday [дата], по умолчанию сегодня
func (h *Handler) checkWorkingDay(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	date := h.today()
	if strings.TrimSpace(args) != "" {
		var err error
		date, err = parseDate(args, h.today())
		if err != nil {
			h.reply(chatID, "❌ "+err.Error())
			return
		}
	}

	isHoliday, err := h.nonWorkingDayService.IsNonWorkingDay(date)
	if err != nil {
		h.reply(chatID, "❌ Ошибка проверки дня: "+err.Error())
		return
	}

	if isHoliday {
		h.reply(chatID, fmt.Sprintf("🎉 %s - выходной день по производственному календарю.", formatShortDate(date)))
		return
	}
	h.reply(chatID, fmt.Sprintf("💼 %s - рабочий день.", formatShortDate(date)))
}
