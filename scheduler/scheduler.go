package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/display"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/filter"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/models"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/scraper"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/sheets"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// ErrQueueFull is returned by Enqueue when no more jobs can wait
var ErrQueueFull = errors.New("queue is full")

// previewLimit caps how many leads are listed in the result message
const previewLimit = 10

// Messenger sends Telegram API requests; *tgbotapi.BotAPI satisfies it
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SheetWriter exports leads to a new spreadsheet tab
type SheetWriter interface {
	CreateSheetAndWriteLeads(ctx context.Context, sheetName, query string, leads []models.Lead) (string, int64, error)
	SheetURL(sheetID int64) string
}

// RunFunc performs one extraction, reporting to progress
type RunFunc func(ctx context.Context, req models.SearchRequest, progress scraper.Progress) ([]models.Lead, error)

// Job is one queued search from a chat
type Job struct {
	ChatID int64
	UserID int64
	// StatusMessageID is the bot message edited with progress and the result
	StatusMessageID int
	Request         models.SearchRequest
	Sort            string
}

// Options configures a Scheduler
type Options struct {
	QueueSize    int
	EditInterval time.Duration
	MinRating    float64
	FileName     string
}

// Scheduler runs queued searches one at a time so a single browser is alive at once
type Scheduler struct {
	bot     Messenger
	run     RunFunc
	writer  SheetWriter
	opts    Options
	queue   chan Job
	pending atomic.Int64
}

// NewScheduler creates a scheduler. writer may be nil to skip Google Sheets.
func NewScheduler(bot Messenger, run RunFunc, writer SheetWriter, opts Options) *Scheduler {
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.FileName == "" {
		opts.FileName = "B2B_Leads.xlsx"
	}
	return &Scheduler{
		bot:    bot,
		run:    run,
		writer: writer,
		opts:   opts,
		queue:  make(chan Job, opts.QueueSize),
	}
}

// Enqueue adds a job without blocking and returns how many jobs are ahead of it
func (s *Scheduler) Enqueue(job Job) (int, error) {
	ahead := int(s.pending.Add(1)) - 1
	select {
	case s.queue <- job:
		return ahead, nil
	default:
		s.pending.Add(-1)
		return 0, ErrQueueFull
	}
}

// Run processes jobs until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	log.WithField("queue_size", s.opts.QueueSize).Info("Scheduler started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Scheduler stopped")
			return nil
		case job := <-s.queue:
			s.process(ctx, job)
			s.pending.Add(-1)
		}
	}
}

// process runs a single job and reports the outcome to its chat
func (s *Scheduler) process(ctx context.Context, job Job) {
	logger := log.WithFields(log.Fields{
		"chat_id": job.ChatID,
		"user_id": job.UserID,
		"query":   job.Request.Query(),
	})
	logger.Info("Processing search")

	progress := newTelegramProgress(s.bot, job.ChatID, job.StatusMessageID, s.opts.EditInterval, logger)

	leads, err := s.run(ctx, job.Request, progress)
	if err != nil {
		logger.WithError(err).Error("Search failed")
		progress.Final("❌ Extraction failed. Please try again later.")
		return
	}

	found := len(leads)
	leads = filter.NewFilter(s.opts.MinRating, job.Sort).Apply(leads)

	var summary strings.Builder
	fmt.Fprintf(&summary, "✅ %d leads for %s", len(leads), job.Request.Query())
	if found != len(leads) {
		fmt.Fprintf(&summary, " (%d before filtering)", found)
	}
	summary.WriteString("\n\n")
	summary.WriteString(display.FormatText(leads, previewLimit))

	if len(leads) > 0 {
		if err := s.sendWorkbook(job, leads); err != nil {
			logger.WithError(err).Error("Failed to send workbook")
			summary.WriteString("\n⚠️ Could not attach the spreadsheet.")
		}
	}

	if s.writer != nil && len(leads) > 0 {
		sheetName := sheets.SheetName(job.Request.Query(), time.Now())
		_, sheetID, err := s.writer.CreateSheetAndWriteLeads(ctx, sheetName, job.Request.Query(), leads)
		if err != nil {
			logger.WithError(err).Error("Failed to write Google Sheets tab")
			summary.WriteString("\n⚠️ Could not update Google Sheets.")
		} else {
			fmt.Fprintf(&summary, "\nView spreadsheet: %s", s.writer.SheetURL(sheetID))
		}
	}

	progress.Final(summary.String())
	logger.WithField("leads", len(leads)).Info("Search completed")
}

func (s *Scheduler) sendWorkbook(job Job, leads []models.Lead) error {
	var buf bytes.Buffer
	if err := sheets.WriteXLSX(&buf, leads); err != nil {
		return err
	}

	doc := tgbotapi.NewDocument(job.ChatID, tgbotapi.FileBytes{
		Name:  s.opts.FileName,
		Bytes: buf.Bytes(),
	})
	doc.Caption = fmt.Sprintf("%d leads: %s", len(leads), job.Request.Query())
	if _, err := s.bot.Send(doc); err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	return nil
}
