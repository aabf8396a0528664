package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/models"
	"attendance-bot/internal/repository"
	"attendance-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// parseRange парсит "дата_начала дата_окончания"
func parseRange(args string, today attendance.Date) (attendance.Date, attendance.Date, error) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return attendance.Date{}, attendance.Date{}, errors.New("нужно указать дату начала и дату окончания")
	}

	from, err := parseDate(parts[0], today)
	if err != nil {
		return attendance.Date{}, attendance.Date{}, fmt.Errorf("дата начала: %w", err)
	}
	to, err := parseDate(parts[1], today)
	if err != nil {
		return attendance.Date{}, attendance.Date{}, fmt.Errorf("дата окончания: %w", err)
	}
	return from, to, nil
}

// addVacation добавляет заявку на отпуск
func (h *Handler) addVacation(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	user, ok := h.currentUser(chatID)
	if !ok {
		return
	}

	if strings.TrimSpace(args) == "" {
		h.reply(chatID, `🏖️ Добавление отпуска

Формат команды:
/vacation дата_начала дата_окончания

Примеры:
/vacation 01.07.2026 14.07.2026
→ Отпуск с 1 по 14 июля 2026

💡 Важно:
• Отпуск можно добавить только на будущие даты
• Заявка засчитывается после одобрения администратором
• Нельзя пересекаться с другими отпусками/больничными`)
		return
	}

	from, to, err := parseRange(args, h.today())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	period, err := h.absenceService.AddVacation(user.ID, from, to)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to add vacation")
		h.reply(chatID, "❌ Ошибка добавления отпуска: "+err.Error())
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Заявка на отпуск #%d создана!\n\n🏖️ Период: %s\n%s",
		period.ID, formatPeriod(*period), absenceStatusTitle(period.Status)))
	h.notifyAdmins(user, period)
}

// addSickLeave добавляет больничный, он одобряется сразу
func (h *Handler) addSickLeave(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	user, ok := h.currentUser(chatID)
	if !ok {
		return
	}

	if strings.TrimSpace(args) == "" {
		h.reply(chatID, `🏥 Добавление больничного

Формат команды:
/sick дата_начала дата_окончания

Пример:
/sick 01.07.2026 07.07.2026

💡 Больничный можно добавить на любые даты, включая прошедшие.`)
		return
	}

	from, to, err := parseRange(args, h.today())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	period, err := h.absenceService.AddSickLeave(user.ID, from, to)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to add sick leave")
		h.reply(chatID, "❌ Ошибка добавления больничного: "+err.Error())
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Больничный #%d добавлен!\n\n🏥 Период: %s\nВыздоравливайте!",
		period.ID, formatPeriod(*period)))
}

// addDayOff добавляет заявку на отгул
func (h *Handler) addDayOff(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	user, ok := h.currentUser(chatID)
	if !ok {
		return
	}

	if strings.TrimSpace(args) == "" {
		h.reply(chatID, "🎯 Формат команды: /dayoff дата\nПример: /dayoff 15.08.2026")
		return
	}

	date, err := parseDate(args, h.today())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	period, err := h.absenceService.AddDayOff(user.ID, date)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to add day off")
		h.reply(chatID, "❌ Ошибка добавления отгула: "+err.Error())
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Заявка на отгул #%d создана!\n\n🎯 Дата: %s\n%s",
		period.ID, formatDate(date), absenceStatusTitle(period.Status)))
	h.notifyAdmins(user, period)
}

func (h *Handler) showMyAbsences(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	user, ok := h.currentUser(chatID)
	if !ok {
		return
	}

	periods, err := h.absenceService.GetUserAbsences(user.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get user absences")
		h.reply(chatID, "❌ Ошибка получения данных: "+err.Error())
		return
	}

	h.reply(chatID, formatAbsences(periods))
}

// cancelAbsence удаляет свой период отсутствия
func (h *Handler) cancelAbsence(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	user, ok := h.currentUser(chatID)
	if !ok {
		return
	}

	periodID, err := parseID(args)
	if err != nil {
		h.reply(chatID, "❌ Укажите номер заявки.\nПример: /cancelabsence 12\nНомера есть в /myabsences")
		return
	}

	if err := h.absenceService.DeleteAbsence(user.ID, periodID); err != nil {
		h.reply(chatID, absenceErrorText(err))
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Заявка #%d удалена.", periodID))
}

func (h *Handler) showPendingAbsences(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if !h.requireAdmin(chatID) {
		return
	}

	periods, err := h.absenceService.GetPending()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get pending absences")
		h.reply(chatID, "❌ Ошибка получения заявок: "+err.Error())
		return
	}

	h.reply(chatID, formatPending(periods))
}

// reviewAbsence одобряет или отклоняет заявку и сообщает об этом сотруднику
func (h *Handler) reviewAbsence(message *tgbotapi.Message, args string, approve bool) {
	chatID := message.Chat.ID

	periodID, err := parseID(args)
	if err != nil {
		h.reply(chatID, "❌ Укажите номер заявки.\nПример: /approve 12")
		return
	}

	var period *models.AbsencePeriod
	if approve {
		period, err = h.absenceService.Approve(chatID, periodID)
	} else {
		period, err = h.absenceService.Reject(chatID, periodID)
	}
	if err != nil {
		h.reply(chatID, absenceErrorText(err))
		return
	}

	verdict := absenceStatusTitle(period.Status)
	h.reply(chatID, fmt.Sprintf("Заявка #%d: %s", period.ID, verdict))

	if owner, err := h.userService.GetUserByID(period.UserID); err == nil {
		h.reply(owner.ChatID, fmt.Sprintf("📬 %s %s: %s", period.TypeTitle(), formatPeriod(*period), verdict))
	}
}

// notifyAdmins сообщает администраторам о новой заявке
func (h *Handler) notifyAdmins(user *models.User, period *models.AbsencePeriod) {
	if period.Status != models.AbsenceStatusPending {
		return
	}

	admins, err := h.userService.GetAdmins()
	if err != nil {
		h.logger.WithError(err).Warn("Failed to load admins for notification")
		return
	}

	text := fmt.Sprintf("📥 Новая заявка #%d от %s\n%s %s\n\n/approve %d или /reject %d",
		period.ID, user.DisplayName(), period.TypeTitle(), formatPeriod(*period), period.ID, period.ID)
	for _, admin := range admins {
		if admin.ChatID == user.ChatID {
			continue
		}
		h.reply(admin.ChatID, text)
	}
}

func absenceErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrAccessDenied):
		return "❌ Доступ запрещен."
	case errors.Is(err, repository.ErrNotFound):
		return "❌ Заявка не найдена."
	case errors.Is(err, service.ErrAbsenceReviewed):
		return "⚠️ Заявка уже рассмотрена."
	default:
		return "❌ Ошибка: " + err.Error()
	}
}

func parseID(args string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(args), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("неверный номер %q", args)
	}
	return uint(id), nil
}
