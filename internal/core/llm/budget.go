package llm

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Budget threshold percentages.
const (
	BudgetThresholdWarning  = 0.8
	BudgetThresholdCritical = 1.0
)

// Date format for daily budget reset tracking.
const dateFormatYMD = "2006-01-02"

// BudgetAlert represents an alert triggered by budget thresholds.
type BudgetAlert struct {
	Level       string // "warning" or "critical"
	DailyTokens int64
	BudgetLimit int64
	Percentage  float64
	Timestamp   time.Time
}

// BudgetTracker tracks daily LLM token usage and triggers alerts. The daily
// counter resets lazily on the first record of a new UTC day.
type BudgetTracker struct {
	mu            sync.Mutex
	dailyTokens   int64
	dailyLimit    int64
	lastResetDate string
	warningFired  bool
	criticalFired bool
	alertCallback func(alert BudgetAlert)
	logger        *zerolog.Logger
}

// NewBudgetTracker creates a new budget tracker. A limit of 0 disables
// alerting.
func NewBudgetTracker(dailyLimit int64, logger *zerolog.Logger) *BudgetTracker {
	return &BudgetTracker{
		dailyLimit:    dailyLimit,
		lastResetDate: time.Now().UTC().Format(dateFormatYMD),
		logger:        logger,
	}
}

// SetAlertCallback sets the callback function for budget alerts.
func (bt *BudgetTracker) SetAlertCallback(callback func(alert BudgetAlert)) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.alertCallback = callback
}

// RecordTokens adds tokens to the daily count and checks budget thresholds.
func (bt *BudgetTracker) RecordTokens(tokens int) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.checkDateResetLocked()

	bt.dailyTokens += int64(tokens)

	if bt.dailyLimit <= 0 || bt.alertCallback == nil {
		return
	}

	percentage := float64(bt.dailyTokens) / float64(bt.dailyLimit)

	if !bt.criticalFired && percentage >= BudgetThresholdCritical {
		bt.criticalFired = true
		bt.fireAlertLocked("critical", percentage)

		return
	}

	if !bt.warningFired && percentage >= BudgetThresholdWarning {
		bt.warningFired = true
		bt.fireAlertLocked("warning", percentage)
	}
}

// fireAlertLocked sends an alert through the callback. Assumes lock held.
func (bt *BudgetTracker) fireAlertLocked(level string, percentage float64) {
	alert := BudgetAlert{
		Level:       level,
		DailyTokens: bt.dailyTokens,
		BudgetLimit: bt.dailyLimit,
		Percentage:  percentage,
		Timestamp:   time.Now().UTC(),
	}

	if bt.logger != nil {
		bt.logger.Warn().
			Str("level", level).
			Int64("daily_tokens", bt.dailyTokens).
			Int64("budget_limit", bt.dailyLimit).
			Float64("percentage", percentage).
			Msg("LLM budget threshold reached")
	}

	// Fire callback in goroutine to avoid blocking
	go bt.alertCallback(alert)
}

// checkDateResetLocked resets daily counters on a new day. Assumes lock held.
func (bt *BudgetTracker) checkDateResetLocked() {
	today := time.Now().UTC().Format(dateFormatYMD)
	if bt.lastResetDate != today {
		bt.dailyTokens = 0
		bt.warningFired = false
		bt.criticalFired = false
		bt.lastResetDate = today

		if bt.logger != nil {
			bt.logger.Info().
				Str("date", today).
				Msg("LLM budget tracker reset for new day")
		}
	}
}

// GetStatus returns the current budget status.
func (bt *BudgetTracker) GetStatus() (dailyTokens, dailyLimit int64, percentage float64) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.checkDateResetLocked()

	dailyTokens = bt.dailyTokens
	dailyLimit = bt.dailyLimit

	if dailyLimit > 0 {
		percentage = float64(dailyTokens) / float64(dailyLimit)
	}

	return dailyTokens, dailyLimit, percentage
}
