package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"life-organizer/internal/model"
	"life-organizer/internal/service"
)

// API is the part of the Telegram client the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Subscribers remembers the chats that receive notifications and digests.
type Subscribers interface {
	UpsertFromTelegram(ctx context.Context, telegramID, chatID int64, firstName, username string) (*model.Subscriber, error)
	SetMuted(ctx context.Context, telegramID int64, muted bool) error
	ListActive(ctx context.Context) ([]model.Subscriber, error)
}

// Deps are the collaborators the bot drives. Assistant may be nil.
type Deps struct {
	Subscribers Subscribers
	Stores      service.Stores
	Reminders   *service.ReminderService
	Sync        *service.SyncService
	Assistant   *service.Assistant
}

type Option func(*Bot)

// WithOwner restricts the bot to one chat.
func WithOwner(chatID int64) Option {
	return func(b *Bot) { b.ownerChatID = chatID }
}

func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(b *Bot) { b.log = log }
}

// Bot is the Telegram front end of the organizer.
type Bot struct {
	api         API
	subscribers Subscribers
	stores      service.Stores
	reminders   *service.ReminderService
	sync        *service.SyncService
	assistant   *service.Assistant
	ownerChatID int64
	now         func() time.Time
	log         *zap.Logger

	mu           sync.Mutex
	suggestions  map[int64][]string
	recipes      map[int64][]model.Recipe
	rolloverSent bool
}

// NewAPI authorizes a Telegram client for token.
func NewAPI(token string, log *zap.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("bot authorized", zap.String("account", api.Self.UserName))
	return api, nil
}

func New(api API, deps Deps, opts ...Option) *Bot {
	b := &Bot{
		api:         api,
		subscribers: deps.Subscribers,
		stores:      deps.Stores,
		reminders:   deps.Reminders,
		sync:        deps.Sync,
		assistant:   deps.Assistant,
		now:         time.Now,
		log:         zap.NewNop(),
		suggestions: make(map[int64][]string),
		recipes:     make(map[int64][]model.Recipe),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start asks about missed tasks once, then polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.PromptRollover(ctx); err != nil {
		b.log.Warn("rollover prompt", zap.Error(err))
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Warn("handle callback", zap.Error(err))
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Warn("handle message", zap.Error(err))
		}
	}
}

func (b *Bot) allowed(chatID int64) bool {
	return b.ownerChatID == 0 || chatID == b.ownerChatID
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !b.allowed(msg.Chat.ID) {
		return b.sendText(msg.Chat.ID, "🔒 This organizer is private.")
	}

	if msg.IsCommand() {
		b.log.Info("command", zap.Int64("user", msg.From.ID), zap.String("command", msg.Command()))
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if b.assistant != nil && strings.TrimSpace(msg.Text) != "" {
		return b.ask(ctx, msg.Chat.ID, msg.Text)
	}
	return b.sendText(msg.Chat.ID, "I didn't get that. Try /add to create a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(chatID, helpText)
	case "add":
		return b.handleAdd(chatID, args)
	case "tasks":
		return b.handleTasks(chatID, args)
	case "clear":
		return b.handleClear(chatID, args)
	case "habits":
		return b.sendHabits(chatID)
	case "habit":
		return b.handleAddHabit(chatID, args)
	case "pantry":
		return b.sendPantry(chatID)
	case "grocery":
		return b.handleAddGrocery(chatID, args)
	case "shopping":
		return b.sendShopping(chatID)
	case "spent":
		return b.handleSpent(chatID, args)
	case "expenses":
		return b.sendExpenses(chatID)
	case "suggest":
		return b.sendSuggestions(chatID)
	case "report":
		return b.sendText(chatID, b.reminders.DailySummary(b.now()))
	case "sync":
		return b.handleSync(ctx, chatID)
	case "plan":
		return b.handlePlan(ctx, chatID, args)
	case "ask":
		if b.assistant == nil {
			return b.sendText(chatID, "The assistant is not configured.")
		}
		if args == "" {
			return b.sendText(chatID, "Usage: /ask &lt;message&gt;")
		}
		return b.ask(ctx, chatID, args)
	case "mute", "unmute":
		return b.handleMute(ctx, msg, msg.Command() == "mute")
	default:
		return b.sendText(chatID, "Unknown command. Have a look at /help.")
	}
}

// Notify delivers a due-task notification. The target is a chat id.
func (b *Bot) Notify(ctx context.Context, n model.Notification) error {
	chatID, err := strconv.ParseInt(n.Target, 10, 64)
	if err != nil {
		return fmt.Errorf("notification target %q is not a chat id", n.Target)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	text := fmt.Sprintf("🔔 <b>%s</b>\n%s", escape(n.Title), escape(n.Body))
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if n.TaskID != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Done", cbTaskToggle+n.TaskID),
		))
	}
	_, err = b.api.Send(msg)
	return err
}

// Targets lists the chats that receive notifications: the owner when one is
// configured, otherwise every subscriber that has not muted the bot.
func (b *Bot) Targets(ctx context.Context) ([]string, error) {
	if b.ownerChatID != 0 {
		return []string{strconv.FormatInt(b.ownerChatID, 10)}, nil
	}
	subs, err := b.subscribers.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, strconv.FormatInt(s.ChatID, 10))
	}
	return out, nil
}

// SendDailyDigest sends the daily summary to every target.
func (b *Bot) SendDailyDigest(ctx context.Context) error {
	targets, err := b.Targets(ctx)
	if err != nil {
		return err
	}
	text := b.reminders.DailySummary(b.now())
	for _, target := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		chatID, _ := strconv.ParseInt(target, 10, 64)
		if err := b.sendText(chatID, text); err != nil {
			b.log.Warn("send digest", zap.String("target", target), zap.Error(err))
		}
	}
	return nil
}

// PromptRollover offers to roll forward or clear the tasks missed before
// this session. It sends at most once per process.
func (b *Bot) PromptRollover(ctx context.Context) error {
	b.mu.Lock()
	if b.rolloverSent {
		b.mu.Unlock()
		return nil
	}
	b.rolloverSent = true
	b.mu.Unlock()

	missed := b.stores.Tasks.PendingRollover()
	if len(missed) == 0 {
		return nil
	}
	targets, err := b.Targets(ctx)
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🕰 <b>%d unfinished tasks from earlier days</b>\n", len(missed)))
	for _, task := range missed {
		sb.WriteString(fmt.Sprintf("• %s <i>(%s)</i>\n", escape(task.Title), task.EffectiveDate(b.now().Location())))
	}
	sb.WriteString("\nMove them to today or clear them?")

	for _, target := range targets {
		chatID, _ := strconv.ParseInt(target, 10, 64)
		if err := b.sendWithReplyMarkup(chatID, sb.String(), rolloverKeyboard()); err != nil {
			b.log.Warn("send rollover prompt", zap.String("target", target), zap.Error(err))
		}
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

// sendResult reports a service outcome with a status icon.
func (b *Bot) sendResult(chatID int64, res service.Result) error {
	icon := "✅"
	if !res.OK {
		icon = "⚠️"
	}
	return b.sendText(chatID, fmt.Sprintf("%s %s", icon, escape(res.Message)))
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Warn("callback ack", zap.Error(err))
	}
}
