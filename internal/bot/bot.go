// Package bot runs the Telegram front end: questions, member search, document
// uploads, and the admin tweet workflow.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/superteamvn/stvbot/internal/ingest"
	"github.com/superteamvn/stvbot/internal/rag"
	"github.com/superteamvn/stvbot/internal/roster"
	"github.com/superteamvn/stvbot/internal/twitter"
)

// Bot wires Telegram updates to the question, roster and tweet subsystems.
type Bot struct {
	api      *tgbotapi.BotAPI
	engine   *rag.Engine
	matcher  *roster.Matcher
	manager  *twitter.Manager
	advisor  twitter.Optimizer
	ingestor *ingest.Ingestor
	adminIDs map[int64]bool
	logger   *zap.Logger
}

// Config carries the bot's dependencies.
type Config struct {
	Token    string
	Engine   *rag.Engine
	Matcher  *roster.Matcher
	Manager  *twitter.Manager
	Advisor  twitter.Optimizer
	Ingestor *ingest.Ingestor
	AdminIDs []int64
	Logger   *zap.Logger
}

// New authenticates against the Telegram API and builds the bot.
func New(cfg Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	admins := make(map[int64]bool, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = true
	}
	return &Bot{
		api:      api,
		engine:   cfg.Engine,
		matcher:  cfg.Matcher,
		manager:  cfg.Manager,
		advisor:  cfg.Advisor,
		ingestor: cfg.Ingestor,
		adminIDs: admins,
		logger:   logger,
	}, nil
}

// Username returns the authenticated bot account name.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Run long-polls Telegram until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("telegram bot started", zap.String("username", b.Username()))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic handling update", zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message == nil:
		// Ignore edits, channel posts and other update kinds.
	case update.Message.Document != nil:
		b.handleDocument(ctx, update.Message)
	case update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message.Text != "":
		b.handleQuestion(ctx, update.Message)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.adminIDs[userID]
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send failed", zap.Error(err))
	}
}
