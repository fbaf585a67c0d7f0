package bot

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"life-organizer/internal/model"
)

const (
	menuLabelToday    = "📋 Today"
	menuLabelHabits   = "♻️ Habits"
	menuLabelShopping = "🛒 Shopping"
	menuLabelExpenses = "💸 Expenses"
	menuLabelSuggest  = "💡 Suggest"
	menuLabelHelp     = "ℹ️ Help"
)

// Callback data prefixes. Telegram caps callback data at 64 bytes, so
// recipes and suggestions are referenced by index.
const (
	cbTaskToggle  = "task:"
	cbTaskDelete  = "taskdel:"
	cbHabitToggle = "habit:"
	cbStockCycle  = "stock:"
	cbShopClear   = "shopclear"
	cbSuggest     = "suggest:"
	cbRecipe      = "recipe:"
	cbRollForward = "roll:forward"
	cbRollClear   = "roll:clear"
)

const helpText = `<b>Life organizer</b>

<b>Tasks</b>
/add &lt;title&gt; [YYYY-MM-DD] [HH:MM] [!high] - new task
/tasks [date|today|tomorrow] - task list with buttons
/clear &lt;date&gt; - delete every task on a day
/suggest - what you usually do around now

<b>Habits</b>
/habits - mark today's habits
/habit &lt;name&gt; - new habit

<b>Groceries</b>
/pantry - cycle stock levels
/grocery &lt;name&gt; [#Category] - new pantry item
/shopping - what to buy
/plan &lt;prompt&gt; - recipe ideas for the shopping list

<b>Expenses</b>
/spent &lt;amount&gt; &lt;category&gt; [note] - log spending
/expenses - today's and this month's totals

<b>Other</b>
/report - daily digest
/sync - pull reminders and shared expenses
/ask &lt;message&gt; - talk to the assistant (plain text works too)
/mute, /unmute - due-task pushes`

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelHabits),
			tgbotapi.NewKeyboardButton(menuLabelShopping),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelExpenses),
			tgbotapi.NewKeyboardButton(menuLabelSuggest),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func rolloverKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➡️ Move to today", cbRollForward),
		tgbotapi.NewInlineKeyboardButtonData("🗑 Clear", cbRollClear),
	))
}

func taskButtons(tasks []model.Task) [][]tgbotapi.InlineKeyboardButton {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for _, task := range tasks {
		label := "✅ " + shortTitle(task.Title, 24)
		if task.Status == model.StatusCompleted {
			label = "↩️ " + shortTitle(task.Title, 24)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbTaskToggle+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbTaskDelete+task.ID),
		))
	}
	return rows
}

func habitButtons(habits []model.Habit, doneToday func(model.Habit) bool) [][]tgbotapi.InlineKeyboardButton {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(habits))
	for _, h := range habits {
		mark := "⬜"
		if doneToday(h) {
			mark = "✅"
		}
		label := fmt.Sprintf("%s %s · %d🔥", mark, shortTitle(h.Name, 24), h.Streak)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbHabitToggle+h.ID),
		))
	}
	return rows
}

func stockButtons(items []model.GroceryItem) [][]tgbotapi.InlineKeyboardButton {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(items))
	for _, it := range items {
		label := fmt.Sprintf("%s %s: %s", stockIcon(it.StockLevel), shortTitle(it.Name, 20), it.StockLevel)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbStockCycle+it.ID),
		))
	}
	return rows
}

func indexedButtons(prefix string, labels []string) [][]tgbotapi.InlineKeyboardButton {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(labels))
	for i, label := range labels {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(shortTitle(label, 32), fmt.Sprintf("%s%d", prefix, i)),
		))
	}
	return rows
}

func stockIcon(level model.StockLevel) string {
	switch level {
	case model.StockHigh:
		return "🟩"
	case model.StockMedium:
		return "🟨"
	case model.StockLow:
		return "🟧"
	default:
		return "🟥"
	}
}

func shortTitle(title string, maxLen int) string {
	clean := strings.Join(strings.Fields(title), " ")
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
