package main

import (
	"fmt"
	"os"

	tele "gopkg.in/telebot.v3"
)

func commandStart(c tele.Context) error {
	return c.Send(textStart,
		&tele.SendOptions{
			ParseMode: tele.ModeHTML,
			ReplyMarkup: &tele.ReplyMarkup{
				InlineKeyboard: [][]tele.InlineButton{
					{{Text: "🪙 Flip Now", WebApp: &tele.WebApp{URL: os.Getenv("TELEGRAM_WEB_APP_URL")}}},
					{{Text: "🔊 Lastest news", URL: os.Getenv("TELEGRAM_ANNOUNCEMENT_URL")}},
				},
			},
		})
}

func commandHello(c tele.Context) error {
	return c.Send("Heads or tails? Let's find out together")
}

func commandMe(c tele.Context) error {
	return c.Send(fmt.Sprintf("Hi %s. Let's flip", c.Sender().Username))
}

func commandList(c tele.Context) error {
	if !AuthRequire(c, chatId) {
		return nil
	}

	return c.Send(`List of commands:
/me - Get user info (public)
/notify all force - Send message to all users
/stats - Get total users
/prize [month] - Get a month's prize and winner
/entries [month] - Get a month's entry totals
`)
}
