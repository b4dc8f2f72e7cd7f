package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/config"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/scheduler"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Queue accepts search jobs; *scheduler.Scheduler satisfies it
type Queue interface {
	Enqueue(job scheduler.Job) (int, error)
}

// Bot turns Telegram updates into queued searches
type Bot struct {
	api   scheduler.Messenger
	queue Queue
	cfg   *config.Config
}

// New creates a Bot
func New(api scheduler.Messenger, queue Queue, cfg *config.Config) *Bot {
	return &Bot{
		api:   api,
		queue: queue,
		cfg:   cfg,
	}
}

// Run handles updates until ctx is cancelled or the channel closes
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(update)
		}
	}
}

// HandleUpdate processes a single update
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	logger := log.WithFields(log.Fields{
		"chat_id": msg.Chat.ID,
		"user_id": msg.From.ID,
	})

	if !b.cfg.UserAllowed(msg.From.ID) {
		logger.Warn("Unauthorized user attempted to use bot")
		b.reply(msg.Chat.ID, unauthorizedText)
		return
	}

	if !msg.IsCommand() {
		b.search(msg, msg.Text, logger)
		return
	}

	switch msg.Command() {
	case "start":
		b.reply(msg.Chat.ID, welcomeText)
	case "help":
		b.reply(msg.Chat.ID, usage())
	case "search":
		b.search(msg, msg.CommandArguments(), logger)
	default:
		b.reply(msg.Chat.ID, "Unknown command. Use /help for available commands.")
	}
}

func (b *Bot) search(msg *tgbotapi.Message, args string, logger *log.Entry) {
	defaults := b.cfg.SearchRequest()
	defaults.Headless = true

	req, sort, err := ParseSearch(args, defaults, b.cfg.Output.Sort)
	if err != nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("⚠️ %v\n\n%s", err, usage()))
		return
	}

	sent, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID,
		fmt.Sprintf("📝 Request received: %s (up to %d leads). You'll see progress here.", req.Query(), req.Limit)))
	if err != nil {
		logger.WithError(err).Error("Failed to send acknowledgement")
		return
	}

	ahead, err := b.queue.Enqueue(scheduler.Job{
		ChatID:          msg.Chat.ID,
		UserID:          msg.From.ID,
		StatusMessageID: sent.MessageID,
		Request:         req,
		Sort:            sort,
	})
	if err != nil {
		text := "❌ Could not queue your request."
		if errors.Is(err, scheduler.ErrQueueFull) {
			text = "🚦 Too many searches are waiting. Please try again in a few minutes."
		}
		b.edit(msg.Chat.ID, sent.MessageID, text)
		logger.WithError(err).Warn("Search not queued")
		return
	}

	logger.WithFields(log.Fields{
		"query": req.Query(),
		"limit": req.Limit,
		"ahead": ahead,
	}).Info("Search queued")

	if ahead > 0 {
		b.edit(msg.Chat.ID, sent.MessageID,
			fmt.Sprintf("📝 Request queued: %s. %d search(es) ahead of yours.", req.Query(), ahead))
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Failed to send message")
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Debug("Failed to edit message")
	}
}
