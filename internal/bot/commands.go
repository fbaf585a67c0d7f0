package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"life-organizer/internal/model"
	"life-organizer/internal/service"
	"life-organizer/internal/store"
)

var (
	dateArg  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockArg = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.subscribers.UpsertFromTelegram(ctx, msg.From.ID, msg.Chat.ID, msg.From.FirstName, msg.From.UserName); err != nil {
		b.log.Error("upsert subscriber", zap.Error(err))
		return b.sendText(msg.Chat.ID, "Could not register this chat, please try /start again later.")
	}
	text := fmt.Sprintf("👋 Hi, %s!\n\nI keep your tasks, habits, pantry and spending in one place, "+
		"and I ping you when a task is due.\n\n%s", escape(msg.From.FirstName), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelToday:
		return true, b.handleTasks(msg.Chat.ID, "")
	case menuLabelHabits:
		return true, b.sendHabits(msg.Chat.ID)
	case menuLabelShopping:
		return true, b.sendShopping(msg.Chat.ID)
	case menuLabelExpenses:
		return true, b.sendExpenses(msg.Chat.ID)
	case menuLabelSuggest:
		return true, b.sendSuggestions(msg.Chat.ID)
	case menuLabelHelp:
		return true, b.sendText(msg.Chat.ID, helpText)
	}
	return false, nil
}

// resolveDate turns a day argument into a calendar date. Blank means today.
func resolveDate(raw string, now time.Time) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "today":
		return now.Format(model.DateLayout), true
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(model.DateLayout), true
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(model.DateLayout), true
	}
	if _, err := time.ParseInLocation(model.DateLayout, raw, now.Location()); err != nil {
		return "", false
	}
	return raw, true
}

// parseTaskArgs reads "/add" arguments: a title followed by optional date,
// HH:MM and !priority tokens in any order.
func parseTaskArgs(args string, now time.Time) (store.TaskInput, error) {
	fields := strings.Fields(args)
	var in store.TaskInput
	var clock string

	for len(fields) > 0 {
		last := fields[len(fields)-1]
		lower := strings.ToLower(last)
		switch {
		case in.ScheduledDate == "" && (dateArg.MatchString(last) || lower == "today" || lower == "tomorrow"):
			date, ok := resolveDate(last, now)
			if !ok {
				return in, fmt.Errorf("%q is not a valid date", last)
			}
			in.ScheduledDate = date
		case clock == "" && clockArg.MatchString(last):
			clock = last
		case in.Priority == "" && strings.HasPrefix(last, "!") && model.Priority(lower[1:]).Valid():
			in.Priority = model.Priority(lower[1:])
		default:
			in.Title = strings.Join(fields, " ")
			fields = nil
			continue
		}
		fields = fields[:len(fields)-1]
	}

	if strings.TrimSpace(in.Title) == "" {
		return in, fmt.Errorf("a task needs a title")
	}
	if clock != "" {
		date := in.ScheduledDate
		if date == "" {
			date = now.Format(model.DateLayout)
			in.ScheduledDate = date
		}
		due, err := time.ParseInLocation(model.DateLayout+" 15:04", date+" "+clock, now.Location())
		if err != nil {
			return in, fmt.Errorf("%q is not a valid time", clock)
		}
		in.DueTime = &due
	}
	return in, nil
}

func (b *Bot) handleAdd(chatID int64, args string) error {
	if args == "" {
		return b.sendText(chatID, "Usage: /add &lt;title&gt; [YYYY-MM-DD] [HH:MM] [!high]")
	}
	in, err := parseTaskArgs(args, b.now())
	if err != nil {
		return b.sendText(chatID, "⚠️ "+escape(err.Error()))
	}
	task, err := b.stores.Tasks.Add(in)
	res := service.Settle(err, "Task added: "+task.Title)
	if res.OK {
		b.log.Info("task added", zap.String("task_id", task.ID))
	}
	return b.sendResult(chatID, res)
}

func (b *Bot) handleTasks(chatID int64, args string) error {
	now := b.now()
	date, ok := resolveDate(args, now)
	if !ok {
		return b.sendText(chatID, "Usage: /tasks [YYYY-MM-DD|today|tomorrow|yesterday]")
	}
	return b.sendTaskList(chatID, date)
}

func (b *Bot) taskListText(date string, tasks []model.Task) string {
	now := b.now()
	var done int
	for _, task := range tasks {
		if task.Status == model.StatusCompleted {
			done++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 <b>Tasks for %s</b> (%d/%d done)\n", date, done, len(tasks)))
	if len(tasks) == 0 {
		sb.WriteString("\nNothing planned. Add one with /add.")
	}
	for _, task := range tasks {
		sb.WriteString("\n" + service.FormatTask(task, now))
	}
	if date == now.Format(model.DateLayout) {
		if missed := b.stores.Tasks.Missed(now); len(missed) > 0 {
			sb.WriteString(fmt.Sprintf("\n\n🕰 %d unfinished tasks from earlier days.", len(missed)))
		}
	}
	return sb.String()
}

func (b *Bot) sendTaskList(chatID int64, date string) error {
	tasks := b.stores.Tasks.ForDate(date)
	service.SortByDue(tasks)
	text := b.taskListText(date, tasks)
	if len(tasks) == 0 {
		return b.sendText(chatID, text)
	}
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewInlineKeyboardMarkup(taskButtons(tasks)...))
}

func (b *Bot) handleClear(chatID int64, args string) error {
	if args == "" {
		return b.sendText(chatID, "Usage: /clear &lt;YYYY-MM-DD|today|tomorrow&gt;")
	}
	date, ok := resolveDate(args, b.now())
	if !ok {
		return b.sendText(chatID, "⚠️ "+escape(args)+" is not a valid date")
	}
	n, err := b.stores.Tasks.ClearForDate(date)
	return b.sendResult(chatID, service.Settle(err, fmt.Sprintf("Cleared %d tasks for %s", n, date)))
}

func (b *Bot) habitsText(habits []model.Habit) string {
	if len(habits) == 0 {
		return "♻️ No habits yet. Start one with /habit &lt;name&gt;."
	}
	var done int
	for _, h := range habits {
		if b.stores.Habits.CompletedToday(h) {
			done++
		}
	}
	return fmt.Sprintf("♻️ <b>Habits</b> (%d/%d today)\nTap a habit to mark it done or undo it.", done, len(habits))
}

func (b *Bot) sendHabits(chatID int64) error {
	habits := b.stores.Habits.Active()
	text := b.habitsText(habits)
	if len(habits) == 0 {
		return b.sendText(chatID, text)
	}
	rows := habitButtons(habits, b.stores.Habits.CompletedToday)
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleAddHabit(chatID int64, name string) error {
	if name == "" {
		return b.sendText(chatID, "Usage: /habit &lt;name&gt;")
	}
	habit, err := b.stores.Habits.Add(name)
	return b.sendResult(chatID, service.Settle(err, "Habit added: "+habit.Name))
}

func (b *Bot) sendPantry(chatID int64) error {
	items := b.stores.Groceries.All()
	if len(items) == 0 {
		return b.sendText(chatID, "🥫 The pantry is empty. Add items with /grocery &lt;name&gt;.")
	}
	text := fmt.Sprintf("🥫 <b>Pantry</b> (%d items)\nTap an item to cycle its stock: High, Medium, Low, Out.", len(items))
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewInlineKeyboardMarkup(stockButtons(items)...))
}

// parseGroceryArgs splits "/grocery" arguments into a name and an optional
// #Category token.
func parseGroceryArgs(args string) (name, category string) {
	var words []string
	for _, f := range strings.Fields(args) {
		if strings.HasPrefix(f, "#") && len(f) > 1 && category == "" {
			category = f[1:]
			continue
		}
		words = append(words, f)
	}
	return strings.Join(words, " "), category
}

func (b *Bot) handleAddGrocery(chatID int64, args string) error {
	name, category := parseGroceryArgs(args)
	if name == "" {
		return b.sendText(chatID, "Usage: /grocery &lt;name&gt; [#Category]")
	}
	item, err := b.stores.Groceries.Add(name, category)
	return b.sendResult(chatID, service.Settle(err, fmt.Sprintf("%s added to the pantry (%s)", item.Name, item.Category)))
}

func (b *Bot) shoppingText(items []model.GroceryItem) string {
	if len(items) == 0 {
		return "🛒 Nothing to buy, the pantry is stocked."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛒 <b>Shopping list</b> (%d)\n", len(items)))
	for _, it := range items {
		star := ""
		if it.IsEssential {
			star = " ⭐"
		}
		sb.WriteString(fmt.Sprintf("\n%s %s <i>(%s)</i>%s", stockIcon(it.StockLevel), escape(it.Name), escape(it.Category), star))
	}
	return sb.String()
}

func (b *Bot) sendShopping(chatID int64) error {
	items := b.stores.Groceries.ShoppingList()
	text := b.shoppingText(items)
	if len(items) == 0 {
		return b.sendText(chatID, text)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🧹 Clear the list", cbShopClear),
	))
	return b.sendWithReplyMarkup(chatID, text, kb)
}

// parseExpenseArgs reads "<amount> [category] [note]". A second token that
// is not a known category starts the note.
func parseExpenseArgs(args string) (store.ExpenseInput, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return store.ExpenseInput{}, fmt.Errorf("an expense needs an amount")
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", "."), 64)
	if err != nil {
		return store.ExpenseInput{}, fmt.Errorf("%q is not an amount", fields[0])
	}
	in := store.ExpenseInput{Amount: amount, Category: model.ExpenseOther}
	rest := fields[1:]
	if len(rest) > 0 {
		if c := model.ParseExpenseCategory(rest[0]); c != model.ExpenseOther || strings.EqualFold(rest[0], string(model.ExpenseOther)) {
			in.Category = c
			rest = rest[1:]
		}
	}
	in.Note = strings.Join(rest, " ")
	return in, nil
}

func (b *Bot) handleSpent(chatID int64, args string) error {
	if args == "" {
		return b.sendText(chatID, "Usage: /spent &lt;amount&gt; &lt;category&gt; [note]")
	}
	in, err := parseExpenseArgs(args)
	if err != nil {
		return b.sendText(chatID, "⚠️ "+escape(err.Error()))
	}
	exp, err := b.stores.Expenses.Add(in)
	return b.sendResult(chatID, service.Settle(err, fmt.Sprintf("Logged %.2f for %s", exp.Amount, exp.Category)))
}

func (b *Bot) expensesText() string {
	now := b.now()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💸 <b>Spending</b>\nToday: %.2f\nThis month: %.2f\n",
		b.stores.Expenses.DailyTotal(now), b.stores.Expenses.MonthlyTotal(now)))

	totals := b.stores.Expenses.CategoryTotals(now)
	if len(totals) > 0 {
		sb.WriteString("\n<b>By category</b>")
		for _, ct := range totals {
			sb.WriteString(fmt.Sprintf("\n• %s: %.2f", ct.Category, ct.Total))
		}
	}
	return sb.String()
}

func (b *Bot) sendExpenses(chatID int64) error {
	return b.sendText(chatID, b.expensesText())
}

func (b *Bot) sendSuggestions(chatID int64) error {
	suggestions := b.stores.Predictor.SuggestionsAt(b.now())
	if len(suggestions) == 0 {
		return b.sendText(chatID, "💡 No suggestions yet. I learn from the tasks you complete.")
	}
	b.mu.Lock()
	b.suggestions[chatID] = suggestions
	b.mu.Unlock()

	text := "💡 <b>You usually do these around now</b>\nTap one to add it for today."
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewInlineKeyboardMarkup(indexedButtons(cbSuggest, suggestions)...))
}

func (b *Bot) handleSync(ctx context.Context, chatID int64) error {
	reminders := b.sync.SyncReminders(ctx)
	expenses := b.sync.SyncExpenses(ctx)
	if err := b.sendResult(chatID, reminders); err != nil {
		return err
	}
	return b.sendResult(chatID, expenses)
}

func recipesText(recipes []model.Recipe) string {
	var sb strings.Builder
	sb.WriteString("🍳 <b>Recipe ideas</b>\nTap a recipe to put its missing ingredients on the shopping list.\n")
	for _, r := range recipes {
		names := make([]string, 0, len(r.Ingredients))
		for _, ing := range r.Ingredients {
			names = append(names, ing.Name)
		}
		sb.WriteString(fmt.Sprintf("\n<b>%s</b>", escape(r.Name)))
		if r.Description != "" {
			sb.WriteString(" - " + escape(r.Description))
		}
		if len(names) > 0 {
			sb.WriteString("\n<i>" + escape(strings.Join(names, ", ")) + "</i>")
		}
	}
	return sb.String()
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64, prompt string) error {
	recipes, res := b.sync.PlanGroceries(ctx, prompt)
	if !res.OK {
		return b.sendResult(chatID, res)
	}
	b.mu.Lock()
	b.recipes[chatID] = recipes
	b.mu.Unlock()

	labels := make([]string, 0, len(recipes))
	for _, r := range recipes {
		labels = append(labels, "🛒 "+r.Name)
	}
	return b.sendWithReplyMarkup(chatID, recipesText(recipes), tgbotapi.NewInlineKeyboardMarkup(indexedButtons(cbRecipe, labels)...))
}

func (b *Bot) ask(ctx context.Context, chatID int64, message string) error {
	reply, err := b.assistant.Ask(ctx, message)
	if err != nil {
		b.log.Warn("assistant", zap.Error(err))
		return b.sendText(chatID, "⚠️ The assistant is unavailable right now, try again later.")
	}

	var sb strings.Builder
	sb.WriteString("🤖 " + escape(reply.Message))
	for _, r := range reply.Results {
		// Already part of the summary when the backend sent no text.
		if strings.Contains(reply.Message, r.Message) {
			continue
		}
		icon := "✅"
		if !r.OK {
			icon = "⚠️"
		}
		sb.WriteString(fmt.Sprintf("\n%s %s", icon, escape(r.Message)))
	}
	return b.sendText(chatID, sb.String())
}

func (b *Bot) handleMute(ctx context.Context, msg *tgbotapi.Message, muted bool) error {
	if err := b.subscribers.SetMuted(ctx, msg.From.ID, muted); err != nil {
		b.log.Error("set muted", zap.Error(err))
		return b.sendText(msg.Chat.ID, "Could not change notification settings, try again later.")
	}
	if muted {
		return b.sendText(msg.Chat.ID, "🔕 Due-task pushes are off. /unmute turns them back on.")
	}
	return b.sendText(msg.Chat.ID, "🔔 Due-task pushes are on.")
}
