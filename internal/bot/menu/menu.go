package menu

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Кнопки меню проверяющего. Текст кнопки: синоним команды.
const (
	BtnAdd      = "➕ Начислить"
	BtnStudents = "🧑‍🎓 Ученики"
	BtnPending  = "📥 Заявки"
	BtnRanking  = "🏆 Рейтинг"
	BtnGroups   = "👥 Группы"
	BtnStats    = "📊 Сводка"
	BtnAuction  = "🎯 Аукцион"
	BtnBounties = "🏁 Испытания"
	BtnExport   = "📤 Экспорт"
)

var commands = map[string]string{
	BtnAdd:      "/add",
	BtnStudents: "/students",
	BtnPending:  "/pending",
	BtnRanking:  "/ranking",
	BtnGroups:   "/groups",
	BtnStats:    "/stats",
	BtnAuction:  "/auction",
	BtnBounties: "/bounties",
	BtnExport:   "/export",
}

// ReviewerMenu: постоянная клавиатура проверяющего.
func ReviewerMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnAdd),
			tgbotapi.NewKeyboardButton(BtnStudents),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnPending),
			tgbotapi.NewKeyboardButton(BtnStats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnRanking),
			tgbotapi.NewKeyboardButton(BtnGroups),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnAuction),
			tgbotapi.NewKeyboardButton(BtnBounties),
			tgbotapi.NewKeyboardButton(BtnExport),
		),
	)
}

// Command переводит текст кнопки в команду; остальное возвращает как есть.
func Command(text string) string {
	if c, ok := commands[text]; ok {
		return c
	}
	return text
}
