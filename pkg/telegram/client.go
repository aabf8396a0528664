package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender - то, что нужно обработчикам от API бота
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Client struct {
	Bot          *tgbotapi.BotAPI
	UpdateConfig tgbotapi.UpdateConfig
}

func NewClient(token string, debug bool) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	bot.Debug = debug

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	return &Client{
		Bot:          bot,
		UpdateConfig: updateConfig,
	}, nil
}

// Updates запускает long polling
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	return c.Bot.GetUpdatesChan(c.UpdateConfig)
}

// Stop останавливает получение обновлений
func (c *Client) Stop() {
	c.Bot.StopReceivingUpdates()
}

func (c *Client) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.Bot.Send(msg)
}
