package handler

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	args := message.CommandArguments()

	switch command {
	case "start":
		h.sendStartMessage(message)
	case "help":
		h.sendHelpMessage(message)
	case "helpadmin":
		h.sendAdminHelpMessage(message)

	// Профиль
	case "createprofile":
		h.startProfileCreation(message)
	case "myprofile":
		h.showProfile(message)
	case "updateprofile":
		h.startProfileUpdate(message)
	case "deleteprofile":
		h.deleteProfile(message)

	// Учет рабочего времени (все пользователи)
	case "in", "startwork":
		h.recordAction(ctx, message.Chat.ID, actionLogin)
	case "out", "endwork", "finish":
		h.recordAction(ctx, message.Chat.ID, actionLogout)
	case "break":
		h.recordAction(ctx, message.Chat.ID, actionBreakStart)
	case "resume":
		h.recordAction(ctx, message.Chat.ID, actionBreakEnd)
	case "status", "today":
		h.showToday(ctx, message)

	// Отчеты
	case "month", "monthwork":
		h.showMonthlyReport(ctx, message, args)
	case "day":
		h.showDailyReport(ctx, message, args)
	case "tally":
		h.showMonthlyTally(ctx, message, args)

	// Отпуска/больничные/отгулы
	case "vacation":
		h.addVacation(message, args)
	case "sick", "sickleave":
		h.addSickLeave(message, args)
	case "dayoff":
		h.addDayOff(message, args)
	case "myabsences":
		h.showMyAbsences(message)
	case "cancelabsence":
		h.cancelAbsence(message, args)

	// Администрирование
	case "pending":
		h.showPendingAbsences(message)
	case "approve":
		h.reviewAbsence(message, args, true)
	case "reject":
		h.reviewAbsence(message, args, false)
	case "allusers":
		h.showAllUsers(message)
	case "stats":
		h.showStats(message)
	case "admins":
		h.showAdmins(message)
	case "setrole":
		h.setUserRole(message, args)
	case "setmanager":
		h.setManager(message, args)

	// Производственный календарь
	case "holiday":
		h.addHoliday(message, args)
	case "holidays":
		h.showHolidays(ctx, message, args)
	case "checkday":
		h.checkWorkingDay(message, args)

	default:
		h.sendUnknownCommand(message)
	}
}

func (h *Handler) sendUnknownCommand(message *tgbotapi.Message) {
	h.reply(message.Chat.ID, "❌ Неизвестная команда. Используйте /help для списка команд.")
}

const helpText = `📋 Доступные команды:

👤 Профиль:
/createprofile - Создать профиль (ФИО)
/myprofile - Показать мой профиль
/updateprofile - Обновить профиль
/deleteprofile - Удалить профиль

⏰ Учет рабочего времени:
/in - Начать рабочий день
/break - Уйти на перерыв
/resume - Вернуться с перерыва
/out - Завершить рабочий день
/status - Текущий статус и сегодняшний день

📊 Отчеты:
/month [ГГГГ-ММ] - Мой табель за месяц
/month [ГГГГ-ММ] [ID] - Табель сотрудника (для руководителя)
/day [дата] - Кто сегодня на работе (по команде)
/tally [ГГГГ-ММ] - Сводка по дням за месяц (для руководителя)

🏖️ Отпуска/Больничные/Отгулы:
/vacation дата_начала дата_окончания - Заявка на отпуск
    Пример: /vacation 01.07.2026 14.07.2026
/sick дата_начала дата_окончания - Больничный
    Пример: /sick 01.07.2026 07.07.2026
/dayoff дата - Заявка на отгул
    Пример: /dayoff 15.08.2026
/myabsences - Мои периоды отсутствия
/cancelabsence [ID] - Удалить свою заявку

📅 Календарь:
/holidays [ГГГГ-ММ] - Праздничные дни месяца
/checkday [дата] - Проверить, является ли день рабочим

🛠 Утилиты:
/start - Начать работу с ботом
/help - Показать это сообщение

💡 Как пользоваться:
1. Создайте профиль командой /createprofile
2. Начинайте рабочий день командой /in
3. Перерывы отмечайте командами /break и /resume
4. Завершайте рабочий день командой /out
5. Отпуск и отгул засчитываются после одобрения администратором`

func (h *Handler) sendStartMessage(message *tgbotapi.Message) {
	h.reply(message.Chat.ID, "👋 Добро пожаловать в бот учета рабочего времени!\n\n"+helpText)
}

func (h *Handler) sendHelpMessage(message *tgbotapi.Message) {
	h.reply(message.Chat.ID, helpText)
}

func (h *Handler) sendAdminHelpMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if !h.requireAdmin(chatID) {
		return
	}

	text := `📋 Команды администратора:

👑 Пользователи:
/allusers - Показать всех пользователей
/stats - Статистика бота
/admins - Показать администраторов
/setrole [ID] [role] - Изменить роль (admin, manager, client)
/setmanager [ID сотрудника] [ID руководителя] - Назначить руководителя
/setmanager [ID сотрудника] - - Убрать руководителя

🏖️ Заявки:
/pending - Заявки, ожидающие решения
/approve [ID] - Одобрить заявку
/reject [ID] - Отклонить заявку

📅 Календарь:
/holiday [дата] [название] - Добавить праздничный день
    Пример: /holiday 31.12.2026 Новогодний выходной`

	if h.config.BaseAdminChatID != 0 {
		text += fmt.Sprintf("\n\n🔧 ID главного администратора: %d", h.config.BaseAdminChatID)
	}

	h.reply(chatID, text)
}
