package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/config"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/models"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/scraper"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/sheets"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) edits() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var texts []string
	for _, c := range b.sent {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			texts = append(texts, e.Text)
		}
	}
	return texts
}

func (b *fakeBot) documents() []tgbotapi.DocumentConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var docs []tgbotapi.DocumentConfig
	for _, c := range b.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			docs = append(docs, d)
		}
	}
	return docs
}

type fakeWriter struct {
	err    error
	leads  []models.Lead
	called bool
}

func (w *fakeWriter) CreateSheetAndWriteLeads(ctx context.Context, sheetName, query string, leads []models.Lead) (string, int64, error) {
	w.called = true
	w.leads = leads
	return sheetName, 7, w.err
}

func (w *fakeWriter) SheetURL(sheetID int64) string {
	return "https://sheets.example/#gid=7"
}

func testJob() Job {
	return Job{
		ChatID:          100,
		UserID:          200,
		StatusMessageID: 300,
		Request:         models.SearchRequest{Keyword: "Dentist", Location: "Berlin", Limit: 5},
		Sort:            config.SortRating,
	}
}

func fixedRun(leads []models.Lead, err error) RunFunc {
	return func(ctx context.Context, req models.SearchRequest, progress scraper.Progress) ([]models.Lead, error) {
		progress.Status("Launching engine...")
		return leads, err
	}
}

func TestProcessSuccess(t *testing.T) {
	bot := &fakeBot{}
	writer := &fakeWriter{}
	leads := []models.Lead{
		{Name: "Low", Rating: 3.1, MapLink: "https://maps.example/low"},
		{Name: "High", Rating: 4.9, MapLink: "https://maps.example/high"},
		{Name: "Mid", Rating: 4.2, MapLink: "https://maps.example/mid"},
	}
	s := NewScheduler(bot, fixedRun(leads, nil), writer, Options{QueueSize: 1, MinRating: 4.0})

	s.process(context.Background(), testJob())

	docs := bot.documents()
	if len(docs) != 1 {
		t.Fatalf("sent %d documents, want 1", len(docs))
	}
	file, ok := docs[0].File.(tgbotapi.FileBytes)
	if !ok || file.Name != "B2B_Leads.xlsx" {
		t.Fatalf("unexpected document file: %#v", docs[0].File)
	}
	got, err := sheets.ReadXLSX(strings.NewReader(string(file.Bytes)))
	if err != nil {
		t.Fatalf("ReadXLSX() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "High" || got[1].Name != "Mid" {
		t.Errorf("workbook leads = %+v", got)
	}

	if !writer.called || len(writer.leads) != 2 {
		t.Errorf("sheet writer got %d leads", len(writer.leads))
	}

	edits := bot.edits()
	final := edits[len(edits)-1]
	for _, want := range []string{"2 leads for Dentist in Berlin", "3 before filtering", "High", "#gid=7"} {
		if !strings.Contains(final, want) {
			t.Errorf("final message %q missing %q", final, want)
		}
	}
}

func TestProcessFailureShowsGenericMessage(t *testing.T) {
	bot := &fakeBot{}
	runErr := errors.Join(scraper.ErrRunFailed, errors.New("net::ERR_NAME_NOT_RESOLVED"))
	s := NewScheduler(bot, fixedRun(nil, runErr), nil, Options{QueueSize: 1})

	s.process(context.Background(), testJob())

	if len(bot.documents()) != 0 {
		t.Error("no document should be sent on failure")
	}
	edits := bot.edits()
	final := edits[len(edits)-1]
	if !strings.Contains(final, "Extraction failed") || strings.Contains(final, "ERR_NAME") {
		t.Errorf("final message = %q", final)
	}
}

func TestProcessSheetWriterFailure(t *testing.T) {
	bot := &fakeBot{}
	writer := &fakeWriter{err: errors.New("quota")}
	leads := []models.Lead{{Name: "A", Rating: 4.5}}
	s := NewScheduler(bot, fixedRun(leads, nil), writer, Options{QueueSize: 1})

	s.process(context.Background(), testJob())

	edits := bot.edits()
	if final := edits[len(edits)-1]; !strings.Contains(final, "Could not update Google Sheets") {
		t.Errorf("final message = %q", final)
	}
	if len(bot.documents()) != 1 {
		t.Error("workbook should still be sent")
	}
}

func TestProcessNoLeads(t *testing.T) {
	bot := &fakeBot{}
	writer := &fakeWriter{}
	s := NewScheduler(bot, fixedRun(nil, nil), writer, Options{QueueSize: 1})

	s.process(context.Background(), testJob())

	if len(bot.documents()) != 0 || writer.called {
		t.Error("nothing should be exported without leads")
	}
	edits := bot.edits()
	if final := edits[len(edits)-1]; !strings.Contains(final, "No leads found.") {
		t.Errorf("final message = %q", final)
	}
}

func TestEnqueueQueueFull(t *testing.T) {
	s := NewScheduler(&fakeBot{}, fixedRun(nil, nil), nil, Options{QueueSize: 2})

	for i := 0; i < 2; i++ {
		ahead, err := s.Enqueue(testJob())
		if err != nil {
			t.Fatalf("Enqueue() #%d error = %v", i, err)
		}
		if ahead != i {
			t.Errorf("Enqueue() #%d ahead = %d, want %d", i, ahead, i)
		}
	}
	if _, err := s.Enqueue(testJob()); !errors.Is(err, ErrQueueFull) {
		t.Errorf("error = %v, want ErrQueueFull", err)
	}
	if n := s.pending.Load(); n != 2 {
		t.Errorf("pending after rejected job = %d, want 2", n)
	}

	<-s.queue
	s.pending.Add(-1)
	if ahead, err := s.Enqueue(testJob()); err != nil || ahead != 1 {
		t.Errorf("Enqueue() after drain = %d, %v, want 1, nil", ahead, err)
	}
}

func TestEnqueueAheadNeverNegative(t *testing.T) {
	s := NewScheduler(&fakeBot{}, fixedRun(nil, nil), nil, Options{QueueSize: 4})

	stop := make(chan struct{})
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case <-s.queue:
				s.pending.Add(-1)
			case <-stop:
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				ahead, err := s.Enqueue(testJob())
				if err == nil && ahead < 0 {
					t.Errorf("Enqueue() ahead = %d", ahead)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(stop)
	<-drained
}

func TestRunProcessesJobsInOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
		done  = make(chan struct{}, 3)
	)
	run := func(ctx context.Context, req models.SearchRequest, progress scraper.Progress) ([]models.Lead, error) {
		mu.Lock()
		order = append(order, req.Keyword)
		mu.Unlock()
		done <- struct{}{}
		return nil, nil
	}

	s := NewScheduler(&fakeBot{}, run, nil, Options{QueueSize: 3})
	for _, kw := range []string{"a", "b", "c"} {
		job := testJob()
		job.Request.Keyword = kw
		if _, err := s.Enqueue(job); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("Run() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(order, "") != "abc" {
		t.Errorf("order = %v", order)
	}
}

func TestProgressThrottlesEdits(t *testing.T) {
	bot := &fakeBot{}
	p := newTelegramProgress(bot, 1, 2, time.Hour, log.NewEntry(log.StandardLogger()))

	p.Status("Launching engine...")
	p.Status("Scanning area & scrolling...")
	p.Advance(1, 2)
	p.Final("done")
	p.Final("done")

	edits := bot.edits()
	want := []string{"⏳ Launching engine...", "done"}
	if strings.Join(edits, "|") != strings.Join(want, "|") {
		t.Errorf("edits = %q, want %q", edits, want)
	}
}

func TestProgressAdvanceText(t *testing.T) {
	bot := &fakeBot{}
	p := newTelegramProgress(bot, 1, 2, 0, log.NewEntry(log.StandardLogger()))

	p.Status("Extracting data points...")
	p.Advance(1, 4)

	edits := bot.edits()
	if last := edits[len(edits)-1]; last != "⏳ Extracting data points 25%" {
		t.Errorf("last edit = %q", last)
	}
}

func TestProgressWithoutMessageSendsNew(t *testing.T) {
	bot := &fakeBot{}
	p := newTelegramProgress(bot, 1, 0, 0, log.NewEntry(log.StandardLogger()))

	p.Final("result")

	if len(bot.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(bot.sent))
	}
	if msg, ok := bot.sent[0].(tgbotapi.MessageConfig); !ok || msg.Text != "result" {
		t.Errorf("sent %#v", bot.sent[0])
	}
}
