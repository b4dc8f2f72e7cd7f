package scheduler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/display"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// telegramProgress edits one status message as a run advances.
// Intermediate edits are rate limited; Final always goes through.
type telegramProgress struct {
	mu        sync.Mutex
	bot       Messenger
	chatID    int64
	messageID int
	limiter   *rate.Limiter
	logger    *log.Entry
	last      string
	status    string
}

func newTelegramProgress(bot Messenger, chatID int64, messageID int, interval time.Duration, logger *log.Entry) *telegramProgress {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &telegramProgress{
		bot:       bot,
		chatID:    chatID,
		messageID: messageID,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

func (p *telegramProgress) Status(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = msg
	p.edit("⏳ "+msg, false)
}

func (p *telegramProgress) Advance(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edit(fmt.Sprintf("⏳ %s %d%%", strings.TrimSuffix(p.status, "..."), display.Percent(done, total)), false)
}

// Final replaces the status message with text
func (p *telegramProgress) Final(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edit(text, true)
}

func (p *telegramProgress) edit(text string, force bool) {
	if text == p.last {
		return
	}
	if !force && !p.limiter.Allow() {
		return
	}
	p.last = text

	if p.messageID == 0 {
		if _, err := p.bot.Send(tgbotapi.NewMessage(p.chatID, text)); err != nil {
			p.logger.WithError(err).Warn("Failed to send status message")
		}
		return
	}
	if _, err := p.bot.Send(tgbotapi.NewEditMessageText(p.chatID, p.messageID, text)); err != nil {
		p.logger.WithError(err).Debug("Failed to edit status message")
	}
}
