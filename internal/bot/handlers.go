package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/superteamvn/stvbot/internal/advisor"
	"github.com/superteamvn/stvbot/internal/drafts"
	"github.com/superteamvn/stvbot/internal/roster"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start":
		b.sendStart(msg.Chat.ID)
	case "help":
		b.reply(msg.Chat.ID, helpMessage)
	case "find":
		b.handleFind(msg.Chat.ID, args)
	case "upload":
		if !b.requireAdmin(msg) {
			return
		}
		b.reply(msg.Chat.ID, "📤 Please send me the document you want to add to the knowledge base.\nSupported formats: .txt, .md, .pdf")
	case "tweet":
		b.handleTweet(ctx, msg, args)
	case "preview":
		b.handlePreview(msg)
	case "improve":
		b.handleImprove(ctx, msg)
	case "update":
		b.handleUpdate(ctx, msg, args)
	case "publish":
		b.handlePublish(ctx, msg)
	case "optimize":
		b.handleOptimize(ctx, msg, args)
	case "abtest":
		b.handleABTest(ctx, msg, args)
	default:
		b.reply(msg.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
}

func (b *Bot) sendStart(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Find Members 🔍", "find_members"),
			tgbotapi.NewInlineKeyboardButtonData("Ask Questions ❓", "ask_questions"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Help 📖", "help"),
		),
	)
	out := tgbotapi.NewMessage(chatID, welcomeMessage)
	out.ReplyMarkup = keyboard
	b.send(out)
}

func (b *Bot) handleQuestion(ctx context.Context, msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID, "🤔 Processing your question...")

	ans, err := b.engine.Query(ctx, msg.Text)
	if err != nil {
		b.logger.Error("query failed", zap.Error(err))
		b.reply(msg.Chat.ID, "❌ Sorry, I encountered an error. Please try again later.")
		return
	}
	b.reply(msg.Chat.ID, formatAnswer(ans))
}

func (b *Bot) handleFind(chatID int64, args string) {
	skills := strings.Fields(args)
	if len(skills) == 0 {
		b.reply(chatID, "Please specify skills to search for.\nExample: /find rust defi")
		return
	}
	b.sendMatchPage(chatID, skills, 0)
}

func (b *Bot) sendMatchPage(chatID int64, skills []string, page int) {
	result, err := b.matcher.Match(skills, page)
	if errors.Is(err, roster.ErrNoMoreMatches) {
		b.reply(chatID, "No additional members to show.")
		return
	}
	if err != nil {
		b.logger.Error("member search failed", zap.Error(err))
		b.reply(chatID, "❌ Sorry, something went wrong searching for members.")
		return
	}

	out := tgbotapi.NewMessage(chatID, formatMatchPage(result))
	if result.HasMore {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					"Show More Members 👥",
					fmt.Sprintf("more_members_%d_%s", page+1, strings.Join(skills, ",")),
				),
			),
		)
	}
	b.send(out)
}

func (b *Bot) handleTweet(ctx context.Context, msg *tgbotapi.Message, args string) {
	if !b.requireAdmin(msg) {
		return
	}
	if args == "" {
		b.reply(msg.Chat.ID, "Please provide the tweet content after the /tweet command.\nExample: /tweet Excited to announce our new Web3 workshop!")
		return
	}
	b.reply(msg.Chat.ID, "🔄 Creating draft...")

	draft, err := b.manager.CreateDraft(ctx, userKey(msg), args)
	if err != nil {
		b.logger.Error("create draft failed", zap.Error(err))
		b.reply(msg.Chat.ID, "❌ Failed to create draft")
		return
	}
	b.reply(msg.Chat.ID, formatDraft(draft))
}

func (b *Bot) handlePreview(msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}
	draft, err := b.manager.Preview(userKey(msg))
	if err != nil {
		b.replyDraftError(msg.Chat.ID, err)
		return
	}
	b.reply(msg.Chat.ID, formatDraft(draft))
}

func (b *Bot) handleImprove(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}
	b.reply(msg.Chat.ID, "🔄 Getting improvement suggestions...")

	draft, err := b.manager.Improve(ctx, userKey(msg))
	if err != nil {
		b.replyDraftError(msg.Chat.ID, err)
		return
	}
	b.reply(msg.Chat.ID, formatDraft(draft))
}

func (b *Bot) handleUpdate(ctx context.Context, msg *tgbotapi.Message, args string) {
	if !b.requireAdmin(msg) {
		return
	}
	if args == "" {
		b.reply(msg.Chat.ID, "Please provide the new content after the /update command.")
		return
	}
	draft, err := b.manager.Update(ctx, userKey(msg), args)
	if err != nil {
		b.replyDraftError(msg.Chat.ID, err)
		return
	}
	b.reply(msg.Chat.ID, formatDraft(draft))
}

func (b *Bot) handlePublish(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}
	tweet, err := b.manager.Publish(ctx, userKey(msg))
	if err != nil {
		b.replyDraftError(msg.Chat.ID, err)
		return
	}
	b.reply(msg.Chat.ID, formatPublished(tweet))
}

func (b *Bot) handleOptimize(ctx context.Context, msg *tgbotapi.Message, args string) {
	if !b.requireAdmin(msg) {
		return
	}
	if args == "" {
		b.reply(msg.Chat.ID, "Please provide content to optimize after the /optimize command.\nExample: /optimize Welcome to Superteam Vietnam!")
		return
	}
	b.reply(msg.Chat.ID, "🔄 Optimizing content...")

	opt, err := b.advisor.Optimize(ctx, args, advisor.PlatformTelegram)
	if err != nil {
		b.logger.Error("optimize failed", zap.Error(err))
		b.reply(msg.Chat.ID, "❌ Failed to optimize content")
		return
	}
	b.reply(msg.Chat.ID, formatOptimization(opt))
}

func (b *Bot) handleABTest(ctx context.Context, msg *tgbotapi.Message, args string) {
	if !b.requireAdmin(msg) {
		return
	}
	if args == "" {
		b.reply(msg.Chat.ID, "Please provide content to A/B test after the /abtest command.\nExample: /abtest Welcome to Superteam Vietnam!")
		return
	}
	b.reply(msg.Chat.ID, "🔄 Generating A/B test variants...")

	variants, err := b.advisor.Variants(ctx, args, advisor.PlatformTelegram, 3)
	if err != nil {
		b.logger.Error("ab variants failed", zap.Error(err))
		b.reply(msg.Chat.ID, "❌ Failed to generate A/B test variants")
		return
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, formatVariants(variants))
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(variants))
	for _, v := range variants {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Use Variant "+v.Label, "use_variant_"+v.Label),
		))
	}
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(out)
}

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		b.reply(msg.Chat.ID, "⚠️ Sorry, only admins can upload documents.")
		return
	}
	b.reply(msg.Chat.ID, "Processing document...")

	url, err := b.api.GetFileDirectURL(msg.Document.FileID)
	if err != nil {
		b.logger.Error("resolve file url failed", zap.Error(err))
		b.reply(msg.Chat.ID, "❌ Failed to process the document. Please try again.")
		return
	}
	content, err := download(ctx, url)
	if err != nil {
		b.logger.Error("download document failed", zap.Error(err))
		b.reply(msg.Chat.ID, "❌ Failed to process the document. Please try again.")
		return
	}
	if err := b.ingestor.IngestUpload(ctx, msg.Document.FileName, content); err != nil {
		b.logger.Error("ingest upload failed", zap.String("file", msg.Document.FileName), zap.Error(err))
		b.reply(msg.Chat.ID, "❌ Failed to process the document. Please try again.")
		return
	}
	b.reply(msg.Chat.ID, "✅ Document successfully added to the knowledge base!")
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Always acknowledge to stop the spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack failed", zap.Error(err))
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	data := cb.Data
	switch {
	case data == "find_members":
		b.reply(chatID, "To find members, use the /find command followed by the skills you're looking for.\nExample: /find rust defi")
	case data == "ask_questions":
		b.reply(chatID, "Just type your question about Superteam Vietnam, and I'll do my best to help!")
	case data == "help":
		b.reply(chatID, helpMessage)
	case strings.HasPrefix(data, "more_members_"):
		page, skills, ok := parseMoreMembers(data)
		if !ok {
			return
		}
		b.sendMatchPage(chatID, skills, page)
	case strings.HasPrefix(data, "use_variant_"):
		variant := strings.TrimPrefix(data, "use_variant_")
		b.reply(chatID, fmt.Sprintf("Selected variant %s. Use /optimize to continue optimizing this content.", variant))
	}
}

// parseMoreMembers decodes "more_members_<page>_<skill,skill>".
func parseMoreMembers(data string) (int, []string, bool) {
	rest := strings.TrimPrefix(data, "more_members_")
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return 0, nil, false
	}
	page, err := strconv.Atoi(parts[0])
	if err != nil || page < 0 {
		return 0, nil, false
	}
	skills := strings.Split(parts[1], ",")
	return page, skills, true
}

func (b *Bot) requireAdmin(msg *tgbotapi.Message) bool {
	if b.isAdmin(msg.From.ID) {
		return true
	}
	b.reply(msg.Chat.ID, "⚠️ Sorry, this command is only available to admins.")
	return false
}

func (b *Bot) replyDraftError(chatID int64, err error) {
	if errors.Is(err, drafts.ErrNoDraft) {
		b.reply(chatID, "No draft found. Create one with /tweet <text>.")
		return
	}
	b.logger.Error("draft operation failed", zap.Error(err))
	b.reply(chatID, "❌ Something went wrong. Please try again.")
}

func userKey(msg *tgbotapi.Message) string {
	return strconv.FormatInt(msg.From.ID, 10)
}

func download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 20<<20))
}
