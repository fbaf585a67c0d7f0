package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"life-organizer/internal/model"
	"life-organizer/internal/service"
	"life-organizer/internal/store"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	if !b.allowed(chatID) {
		b.answerCallback(cb.ID, "")
		return nil
	}

	data := cb.Data
	b.log.Info("callback", zap.Int64("user", cb.From.ID), zap.String("data", data))

	switch {
	case strings.HasPrefix(data, cbTaskDelete):
		return b.deleteTask(cb.ID, chatID, messageID, strings.TrimPrefix(data, cbTaskDelete))
	case strings.HasPrefix(data, cbTaskToggle):
		return b.toggleTask(cb.ID, chatID, messageID, strings.TrimPrefix(data, cbTaskToggle))
	case strings.HasPrefix(data, cbHabitToggle):
		return b.toggleHabit(cb.ID, chatID, messageID, strings.TrimPrefix(data, cbHabitToggle))
	case strings.HasPrefix(data, cbStockCycle):
		return b.cycleStock(cb.ID, chatID, messageID, strings.TrimPrefix(data, cbStockCycle))
	case data == cbShopClear:
		n, err := b.stores.Groceries.ClearShoppingList()
		res := service.Settle(err, "Shopping list cleared")
		b.answerCallback(cb.ID, res.Message)
		if n == 0 {
			return nil
		}
		return b.editMessage(chatID, messageID, b.shoppingText(b.stores.Groceries.ShoppingList()), nil)
	case strings.HasPrefix(data, cbSuggest):
		return b.addSuggestion(cb.ID, chatID, strings.TrimPrefix(data, cbSuggest))
	case strings.HasPrefix(data, cbRecipe):
		return b.importRecipe(cb.ID, chatID, strings.TrimPrefix(data, cbRecipe))
	case data == cbRollForward, data == cbRollClear:
		return b.resolveRollover(cb.ID, chatID, messageID, data == cbRollForward)
	default:
		b.answerCallback(cb.ID, "")
		return nil
	}
}

// editMessage refreshes a keyboard message in place. Empty rows drop the keyboard.
func (b *Bot) editMessage(chatID int64, messageID int, text string, rows [][]tgbotapi.InlineKeyboardButton) error {
	var edit tgbotapi.EditMessageTextConfig
	if len(rows) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(edit)
	return err
}

func (b *Bot) refreshTaskList(chatID int64, messageID int, date string) error {
	tasks := b.stores.Tasks.ForDate(date)
	service.SortByDue(tasks)
	return b.editMessage(chatID, messageID, b.taskListText(date, tasks), taskButtons(tasks))
}

func (b *Bot) toggleTask(callbackID string, chatID int64, messageID int, id string) error {
	task, ok, err := b.stores.Tasks.Toggle(id)
	if !ok {
		b.answerCallback(callbackID, "That task is gone")
		return nil
	}
	label := "Reopened: "
	if task.Status == model.StatusCompleted {
		label = "Done: "
	}
	b.answerCallback(callbackID, service.Settle(err, label+shortTitle(task.Title, 40)).Message)
	return b.refreshTaskList(chatID, messageID, task.EffectiveDate(b.now().Location()))
}

func (b *Bot) deleteTask(callbackID string, chatID int64, messageID int, id string) error {
	task, ok := b.stores.Tasks.Get(id)
	if !ok {
		b.answerCallback(callbackID, "That task is gone")
		return nil
	}
	err := b.stores.Tasks.Delete(id)
	b.answerCallback(callbackID, service.Settle(err, "Deleted: "+shortTitle(task.Title, 40)).Message)
	return b.refreshTaskList(chatID, messageID, task.EffectiveDate(b.now().Location()))
}

func (b *Bot) toggleHabit(callbackID string, chatID int64, messageID int, id string) error {
	habit, ok, err := b.stores.Habits.Toggle(id)
	if !ok {
		b.answerCallback(callbackID, "That habit is gone")
		return nil
	}
	b.answerCallback(callbackID, service.Settle(err, habit.Name+": streak "+strconv.Itoa(habit.Streak)).Message)

	habits := b.stores.Habits.Active()
	return b.editMessage(chatID, messageID, b.habitsText(habits), habitButtons(habits, b.stores.Habits.CompletedToday))
}

func (b *Bot) cycleStock(callbackID string, chatID int64, messageID int, id string) error {
	item, ok := b.stores.Groceries.Get(id)
	if !ok {
		b.answerCallback(callbackID, "That item is gone")
		return nil
	}
	next := item.StockLevel.Next()
	err := b.stores.Groceries.SetStock(id, next)
	b.answerCallback(callbackID, service.Settle(err, item.Name+": "+string(next)).Message)

	items := b.stores.Groceries.All()
	text := "🥫 <b>Pantry</b>\nTap an item to cycle its stock: High, Medium, Low, Out."
	return b.editMessage(chatID, messageID, text, stockButtons(items))
}

func (b *Bot) addSuggestion(callbackID string, chatID int64, raw string) error {
	i, err := strconv.Atoi(raw)
	b.mu.Lock()
	suggestions := b.suggestions[chatID]
	b.mu.Unlock()
	if err != nil || i < 0 || i >= len(suggestions) {
		b.answerCallback(callbackID, "That suggestion expired, ask again with /suggest")
		return nil
	}

	task, err := b.stores.Tasks.Add(store.TaskInput{Title: suggestions[i]})
	res := service.Settle(err, "Task added: "+task.Title)
	b.answerCallback(callbackID, "")
	return b.sendResult(chatID, res)
}

func (b *Bot) importRecipe(callbackID string, chatID int64, raw string) error {
	i, err := strconv.Atoi(raw)
	b.mu.Lock()
	recipes := b.recipes[chatID]
	b.mu.Unlock()
	if err != nil || i < 0 || i >= len(recipes) {
		b.answerCallback(callbackID, "That plan expired, ask again with /plan")
		return nil
	}
	b.answerCallback(callbackID, "")
	return b.sendResult(chatID, b.sync.ImportRecipe(recipes[i]))
}

func (b *Bot) resolveRollover(callbackID string, chatID int64, messageID int, forward bool) error {
	action, verb := store.ClearMissed, "Cleared"
	if forward {
		action, verb = store.RollForward, "Moved to today:"
	}
	n, err := b.stores.Tasks.ResolveRollover(action)
	res := service.Settle(err, verb+" "+strconv.Itoa(n)+" tasks")
	if n == 0 && err == nil {
		res.Message = "Nothing left to resolve"
	}
	b.answerCallback(callbackID, "")
	return b.editMessage(chatID, messageID, "🕰 "+escape(res.Message), nil)
}
