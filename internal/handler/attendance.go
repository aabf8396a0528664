package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/models"
	"attendance-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const (
	actionLogin      = attendance.ActionLogin
	actionLogout     = attendance.ActionLogout
	actionBreakStart = attendance.ActionBreakStarted
	actionBreakEnd   = attendance.ActionBreakEnded
)

// rejectedActionText - подсказка, почему действие не принято в текущем положении
var rejectedActionText = map[attendance.Action]map[attendance.PresenceState]string{
	actionLogin: {
		attendance.PresenceWorking: "⚠️ Вы уже на работе. Завершите день командой /out.",
		attendance.PresenceOnBreak: "⚠️ Вы на перерыве. Вернитесь командой /resume или завершите день командой /out.",
	},
	actionLogout: {
		attendance.PresenceOff: "⚠️ Рабочий день не начат. Начните его командой /in.",
	},
	actionBreakStart: {
		attendance.PresenceOff:     "⚠️ Рабочий день не начат. Начните его командой /in.",
		attendance.PresenceOnBreak: "⚠️ Вы уже на перерыве.",
	},
	actionBreakEnd: {
		attendance.PresenceOff:     "⚠️ Рабочий день не начат. Начните его командой /in.",
		attendance.PresenceWorking: "⚠️ Вы не на перерыве.",
	},
}

// recordAction фиксирует вход/выход/перерыв автора сообщения текущим временем
func (h *Handler) recordAction(ctx context.Context, chatID int64, action attendance.Action) {
	user, ok := h.currentUser(chatID)
	if !ok {
		return
	}

	now := h.now()
	presence, err := h.attendanceService.RecordAction(ctx, user, action, now)
	if err != nil {
		if errors.Is(err, service.ErrActionNotAllowed) {
			text, ok := rejectedActionText[action][presence.State]
			if !ok {
				text = "⚠️ Действие сейчас недоступно."
			}
			h.reply(chatID, text)
			return
		}
		h.logger.WithError(err).WithFields(logrus.Fields{
			"chat_id": chatID,
			"action":  action.String(),
		}).Error("Failed to record action")
		h.reply(chatID, "❌ Не удалось сохранить отметку, попробуйте позже.")
		return
	}

	clock := now.In(h.loc).Format("15:04")
	switch action {
	case actionLogin:
		msg := tgbotapi.NewMessage(chatID, "✅ Рабочий день начат в "+clock+"\nХорошей работы!")
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🏁 Завершить день", "command_clock_out"),
			),
		)
		h.client.Send(msg)
	case actionLogout:
		h.reply(chatID, "🏁 Рабочий день завершен в "+clock+"\n⏱ Отработано за сессию: "+formatDuration(presence.Worked))
		h.showTodayFor(ctx, user)
	case actionBreakStart:
		h.reply(chatID, "☕ Перерыв начат в "+clock+"\nВернитесь командой /resume.")
	case actionBreakEnd:
		h.reply(chatID, "💪 Перерыв завершен в "+clock+"\n"+formatPresence(presence, h.loc))
	}
}

func (h *Handler) showToday(ctx context.Context, message *tgbotapi.Message) {
	user, ok := h.currentUser(message.Chat.ID)
	if !ok {
		return
	}
	h.showTodayFor(ctx, user)
}

func (h *Handler) showTodayFor(ctx context.Context, user *models.User) {
	status, err := h.attendanceService.Today(ctx, user)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to build today status")
		h.reply(user.ChatID, "❌ Ошибка получения статуса: "+err.Error())
		return
	}

	absence, err := h.absenceService.GetCurrentAbsence(user.ID)
	if err != nil {
		// статус без строки об отсутствии
		h.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to get current absence")
		absence = nil
	}
	h.reply(user.ChatID, formatToday(status, absence, h.loc))
}

// showMonthlyReport: /month [месяц] [ID сотрудника]
func (h *Handler) showMonthlyReport(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	viewer, ok := h.currentUser(chatID)
	if !ok {
		return
	}

	target := viewer
	parts := strings.Fields(args)
	monthArg := ""
	if len(parts) > 0 {
		monthArg = parts[0]
	}
	if len(parts) > 1 {
		targetChatID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			h.reply(chatID, "❌ Неверный формат ID.\nID должен быть числом.")
			return
		}
		target, err = h.userService.GetUser(targetChatID)
		if err != nil {
			h.reply(chatID, "❌ Сотрудник не найден.")
			return
		}
	}

	ym, err := parseMonth(monthArg, h.today())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	report, err := h.attendanceService.MonthlyReport(ctx, viewer, target, ym)
	if err != nil {
		h.replyReportError(chatID, err)
		return
	}

	h.reply(chatID, formatMonthlyReport(report, h.loc))
}

// showDailyReport: /day [дата], по умолчанию сегодня
func (h *Handler) showDailyReport(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	viewer, ok := h.currentUser(chatID)
	if !ok {
		return
	}

	date := h.today()
	if strings.TrimSpace(args) != "" {
		var err error
		date, err = parseDate(args, h.today())
		if err != nil {
			h.reply(chatID, "❌ "+err.Error())
			return
		}
	}

	report, err := h.attendanceService.DailyReport(ctx, viewer, date)
	if err != nil {
		h.replyReportError(chatID, err)
		return
	}

	h.reply(chatID, formatDailyReport(report, h.loc))
}

// showMonthlyTally: /tally [месяц]
func (h *Handler) showMonthlyTally(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	viewer, ok := h.currentUser(chatID)
	if !ok {
		return
	}

	ym, err := parseMonth(args, h.today())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	rows, err := h.attendanceService.MonthlyTally(ctx, viewer, ym)
	if err != nil {
		h.replyReportError(chatID, err)
		return
	}

	h.reply(chatID, formatTally(ym, rows))
}

func (h *Handler) replyReportError(chatID int64, err error) {
	switch {
	case errors.Is(err, service.ErrAccessDenied):
		h.reply(chatID, "❌ Доступ запрещен. Отчет доступен руководителю сотрудника и администраторам.")
	case errors.Is(err, service.ErrCollaboratorFetch):
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Report data unavailable")
		h.reply(chatID, "❌ Не удалось получить данные для отчета, попробуйте позже.")
	default:
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to build report")
		h.reply(chatID, "❌ Ошибка построения отчета: "+err.Error())
	}
}

func (h *Handler) today() attendance.Date {
	return attendance.DateOf(h.now(), h.loc)
}
