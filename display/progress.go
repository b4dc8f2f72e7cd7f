package display

import (
	log "github.com/sirupsen/logrus"
)

// ConsoleProgress logs run progress to the terminal
type ConsoleProgress struct {
	logger      *log.Entry
	lastPercent int
}

// NewConsoleProgress creates a ConsoleProgress
func NewConsoleProgress(logger *log.Entry) *ConsoleProgress {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &ConsoleProgress{logger: logger, lastPercent: -1}
}

func (p *ConsoleProgress) Status(msg string) {
	p.logger.Info(msg)
}

// Advance logs the percentage of cards processed, once per whole step of ten
func (p *ConsoleProgress) Advance(done, total int) {
	percent := Percent(done, total)
	if percent/10 == p.lastPercent/10 && p.lastPercent >= 0 && percent != 100 {
		return
	}
	p.lastPercent = percent
	p.logger.WithFields(log.Fields{
		"done":  done,
		"total": total,
	}).Infof("Progress: %d%%", percent)
}

// Percent returns done as a whole percentage of total, clamped to 0..100
func Percent(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	if done >= total {
		return 100
	}
	return done * 100 / total
}
