package handler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/config"
	"attendance-bot/internal/logger"
	"attendance-bot/internal/models"
	"attendance-bot/internal/repository"
	"attendance-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.mu.Lock()
		f.sent = append(f.sent, msg)
		f.mu.Unlock()
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) sentTo(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var texts []string
	for _, msg := range f.sent {
		if msg.ChatID == chatID {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

// last возвращает текст последнего сообщения в чат
func (f *fakeSender) last(chatID int64) string {
	texts := f.sentTo(chatID)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

const (
	adminChat    int64 = 100
	employeeChat int64 = 200
)

func newTestHandler(t *testing.T) (*Handler, *fakeSender) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	log := logger.Discard()

	users, err := repository.NewGormUserRepository(db, log)
	require.NoError(t, err)
	events, err := repository.NewGormActionEventRepository(db, log)
	require.NoError(t, err)
	absences, err := repository.NewGormAbsencePeriodRepository(db, log)
	require.NoError(t, err)
	holidays, err := repository.NewGormNonWorkingDayRepository(db, log)
	require.NoError(t, err)

	engine := attendance.NewEngine(attendance.WithLocation(time.UTC))
	userService := service.NewUserService(users, events, absences, log)
	require.NoError(t, userService.InitializeAdmin(adminChat))

	sender := &fakeSender{}
	h := NewHandler(
		sender,
		userService,
		service.NewAttendanceService(events, absences, holidays, users, engine, time.Second, log),
		service.NewAbsenceService(absences, users, time.UTC, log),
		service.NewNonWorkingDayService(holidays, log),
		&config.BotConfig{BaseAdminChatID: adminChat},
		log,
	)
	h.loc = time.UTC

	return h, sender
}

func command(chatID int64, text string) *tgbotapi.Message {
	name := strings.Fields(text)[0]
	return &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: chatID, UserName: "tester"},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func plain(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID, UserName: "tester"},
		Text: text,
	}
}

func createProfile(t *testing.T, h *Handler, chatID int64, first, last string) {
	t.Helper()
	ctx := context.Background()
	h.handleMessage(ctx, command(chatID, "/createprofile"))
	h.handleMessage(ctx, plain(chatID, first))
	h.handleMessage(ctx, plain(chatID, last))
	require.NotContains(t, h.userStates, chatID)
}

func TestHandler_ProfileCreation(t *testing.T) {
	h, sender := newTestHandler(t)
	ctx := context.Background()

	h.handleMessage(ctx, command(employeeChat, "/createprofile"))
	assert.Equal(t, stateAwaitingFirstName, h.userStates[employeeChat])

	h.handleMessage(ctx, plain(employeeChat, "Иван"))
	assert.Contains(t, sender.last(employeeChat), "Имя сохранено: Иван")

	h.handleMessage(ctx, plain(employeeChat, "-"))
	assert.Contains(t, sender.last(employeeChat), "Профиль успешно создан")

	user, err := h.userService.GetUser(employeeChat)
	require.NoError(t, err)
	assert.Equal(t, "Иван", user.FirstName)
	assert.Empty(t, user.LastName)
	assert.Equal(t, models.RoleClient, user.Role)

	h.handleMessage(ctx, command(employeeChat, "/createprofile"))
	assert.Contains(t, sender.last(employeeChat), "уже есть профиль")
}

func TestHandler_CommandCancelsProfileFlow(t *testing.T) {
	h, sender := newTestHandler(t)
	ctx := context.Background()

	h.handleMessage(ctx, command(employeeChat, "/createprofile"))
	h.handleMessage(ctx, command(employeeChat, "/help"))

	assert.NotContains(t, h.userStates, employeeChat)
	assert.Contains(t, sender.last(employeeChat), "Доступные команды")
}

func TestHandler_WorkdayFlow(t *testing.T) {
	h, sender := newTestHandler(t)
	ctx := context.Background()
	createProfile(t, h, employeeChat, "Анна", "Смирнова")

	h.handleMessage(ctx, command(employeeChat, "/out"))
	assert.Contains(t, sender.last(employeeChat), "Рабочий день не начат")

	h.handleMessage(ctx, command(employeeChat, "/in"))
	assert.Contains(t, sender.last(employeeChat), "Рабочий день начат")

	h.handleMessage(ctx, command(employeeChat, "/in"))
	assert.Contains(t, sender.last(employeeChat), "Вы уже на работе")

	h.handleMessage(ctx, command(employeeChat, "/resume"))
	assert.Contains(t, sender.last(employeeChat), "Вы не на перерыве")

	h.handleMessage(ctx, command(employeeChat, "/break"))
	assert.Contains(t, sender.last(employeeChat), "Перерыв начат")

	h.handleMessage(ctx, command(employeeChat, "/status"))
	assert.Contains(t, sender.last(employeeChat), "На перерыве")
	assert.Contains(t, sender.last(employeeChat), "Последнее действие: начало перерыва")

	h.handleMessage(ctx, command(employeeChat, "/resume"))
	assert.Contains(t, sender.last(employeeChat), "Перерыв завершен")

	h.handleMessage(ctx, command(employeeChat, "/out"))
	assert.Contains(t, strings.Join(sender.sentTo(employeeChat), "\n"), "Рабочий день завершен")
	assert.Contains(t, sender.last(employeeChat), "Статус дня: ✅ на работе")

	h.handleMessage(ctx, command(employeeChat, "/month"))
	assert.Contains(t, sender.last(employeeChat), "📊 Табель: Анна Смирнова")
	assert.Contains(t, sender.last(employeeChat), "✅ Рабочих дней: 1")
}

func TestHandler_WithoutProfile(t *testing.T) {
	h, sender := newTestHandler(t)
	ctx := context.Background()

	for _, cmd := range []string{"/in", "/status", "/month", "/vacation 01.07.2030 02.07.2030"} {
		h.handleMessage(ctx, command(employeeChat, cmd))
		assert.Equal(t, profileNotFoundText, sender.last(employeeChat), cmd)
	}
}

func TestHandler_ReportAccess(t *testing.T) {
	h, sender := newTestHandler(t)
	ctx := context.Background()
	createProfile(t, h, employeeChat, "Анна", "-")
	createProfile(t, h, 300, "Борис", "-")

	h.handleMessage(ctx, command(300, "/month 2024-03 200"))
	assert.Contains(t, sender.last(300), "Доступ запрещен")

	h.handleMessage(ctx, command(300, "/tally 2024-03"))
	assert.Contains(t, sender.last(300), "Доступ запрещен")

	h.handleMessage(ctx, command(adminChat, "/setmanager 200 300"))
	assert.Contains(t, sender.last(adminChat), "Руководитель сотрудника")

	h.handleMessage(ctx, command(300, "/month 2024-03 200"))
	assert.Contains(t, sender.last(300), "📊 Табель: Анна")
	assert.Contains(t, sender.last(300), "Март 2024")

	h.handleMessage(ctx, command(300, "/tally 2024-03"))
	assert.Contains(t, sender.last(300), "01.03 Пт ✅ 0 🏖 0 ❌ 2 из 2")

	h.handleMessage(ctx, command(300, "/day 04.03.2024"))
	assert.Contains(t, sender.last(300), "На работе: 0, отпуск: 0, выходной: 0, отсутствуют: 2")

	h.handleMessage(ctx, command(300, "/month 2024-13"))
	assert.Contains(t, sender.last(300), "неверный формат месяца")
}

func TestHandler_AbsenceReview(t *testing.T) {
	h, sender := newTestHandler(t)
	ctx := context.Background()
	createProfile(t, h, employeeChat, "Анна", "-")

	h.handleMessage(ctx, command(employeeChat, "/vacation 01.07.2030 14.07.2030"))
	assert.Contains(t, sender.last(employeeChat), "Заявка на отпуск #1 создана")
	assert.Contains(t, sender.last(adminChat), "Новая заявка #1 от Анна")

	h.handleMessage(ctx, command(employeeChat, "/approve 1"))
	assert.Contains(t, sender.last(employeeChat), "Доступ запрещен")

	h.handleMessage(ctx, command(adminChat, "/pending"))
	assert.Contains(t, sender.last(adminChat), "#1 Анна: Отпуск 01.07.2030 - 14.07.2030")

	h.handleMessage(ctx, command(adminChat, "/approve 1"))
	assert.Contains(t, sender.last(adminChat), "одобрено")
	assert.Contains(t, sender.last(employeeChat), "📬 Отпуск 01.07.2030 - 14.07.2030 (14 дн.): ✅ одобрено")

	h.handleMessage(ctx, command(adminChat, "/reject 1"))
	assert.Contains(t, sender.last(adminChat), "уже рассмотрена")

	h.handleMessage(ctx, command(adminChat, "/approve 42"))
	assert.Contains(t, sender.last(adminChat), "Заявка не найдена")

	h.handleMessage(ctx, command(employeeChat, "/myabsences"))
	assert.Contains(t, sender.last(employeeChat), "• Отпускных дней: 14")

	h.handleMessage(ctx, command(employeeChat, "/sick 01.07.2030 02.07.2030"))
	assert.Contains(t, sender.last(employeeChat), "пересекается")
}

func TestHandler_StatusShowsCurrentAbsence(t *testing.T) {
	h, sender := newTestHandler(t)
	ctx := context.Background()
	createProfile(t, h, employeeChat, "Анна", "-")

	h.handleMessage(ctx, command(employeeChat, "/status"))
	assert.NotContains(t, sender.last(employeeChat), "Больничный до")

	today := formatDate(h.today())
	h.handleMessage(ctx, command(employeeChat, "/sick "+today+" "+today))
	require.Contains(t, sender.last(employeeChat), "Больничный #1 добавлен")

	h.handleMessage(ctx, command(employeeChat, "/status"))
	assert.Contains(t, sender.last(employeeChat), "🏖 Больничный до "+today)
}

func TestHandler_Holidays(t *testing.T) {
	h, sender := newTestHandler(t)
	ctx := context.Background()
	createProfile(t, h, employeeChat, "Анна", "-")

	h.handleMessage(ctx, command(employeeChat, "/holiday 31.12.2030"))
	assert.Contains(t, sender.last(employeeChat), "Доступ запрещен")

	h.handleMessage(ctx, command(adminChat, "/holiday 31.12.2030 Новогодний выходной"))
	assert.Contains(t, sender.last(adminChat), "добавлен в календарь")

	h.handleMessage(ctx, command(adminChat, "/holiday 31.12.2030"))
	assert.Contains(t, sender.last(adminChat), "уже отмечен")

	h.handleMessage(ctx, command(employeeChat, "/holidays 2030-12"))
	assert.Contains(t, sender.last(employeeChat), "• 31.12 Вт Новогодний выходной")

	h.handleMessage(ctx, command(employeeChat, "/checkday 31.12.2030"))
	assert.Contains(t, sender.last(employeeChat), "выходной день")

	h.handleMessage(ctx, command(employeeChat, "/checkday 30.12.2030"))
	assert.Contains(t, sender.last(employeeChat), "рабочий день")
}

func TestHandler_SetRoleProtectsBaseAdmin(t *testing.T) {
	h, sender := newTestHandler(t)
	ctx := context.Background()
	createProfile(t, h, employeeChat, "Анна", "-")

	h.handleMessage(ctx, command(adminChat, "/setrole 100 client"))
	assert.Contains(t, sender.last(adminChat), "главного администратора")

	h.handleMessage(ctx, command(adminChat, "/setrole 200 boss"))
	assert.Contains(t, sender.last(adminChat), "Неизвестная роль")

	h.handleMessage(ctx, command(adminChat, "/setrole 200 manager"))
	assert.Contains(t, sender.last(adminChat), "изменена на 'manager'")

	user, err := h.userService.GetUser(employeeChat)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, user.Role)
}

func TestHandler_DeleteProfileCallback(t *testing.T) {
	h, sender := newTestHandler(t)
	ctx := context.Background()
	createProfile(t, h, employeeChat, "Анна", "-")

	h.handleMessage(ctx, command(employeeChat, "/in"))

	h.handleCallbackQuery(ctx, &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    "confirm_delete",
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: employeeChat}},
	})
	assert.Contains(t, sender.last(employeeChat), "успешно удален")

	_, err := h.userService.GetUser(employeeChat)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestHandler_HandleUpdatesStopsOnContextCancel(t *testing.T) {
	h, sender := newTestHandler(t)

	updates := make(chan tgbotapi.Update, 1)
	updates <- tgbotapi.Update{Message: command(employeeChat, "/help")}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.HandleUpdates(ctx, updates)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(sender.sentTo(employeeChat)) == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("HandleUpdates did not stop")
	}
}
