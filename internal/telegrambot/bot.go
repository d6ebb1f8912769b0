// Package telegrambot is the assistant's Telegram front end: the update
// loop, the command handlers, and the chat pipeline.
package telegrambot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/assistant-bot/internal/contextbuilder"
	"github.com/lueurxax/assistant-bot/internal/core/llm"
	"github.com/lueurxax/assistant-bot/internal/memory"
	"github.com/lueurxax/assistant-bot/internal/personas"
	"github.com/lueurxax/assistant-bot/internal/platform/config"
	db "github.com/lueurxax/assistant-bot/internal/storage"
)

// Telegram message size limit, with headroom for formatting.
const messageLimit = 4000

type Bot struct {
	cfg       *config.Config
	database  *db.DB
	llmClient llm.Client
	memory    *memory.Store
	personas  *personas.Manager
	assembler *contextbuilder.Assembler
	api       *tgbotapi.BotAPI
	queue     *dispatcher
	sessionID string
	logger    *zerolog.Logger
}

func New(
	cfg *config.Config,
	database *db.DB,
	llmClient llm.Client,
	mem *memory.Store,
	personaMgr *personas.Manager,
	assembler *contextbuilder.Assembler,
	logger *zerolog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		cfg:       cfg,
		database:  database,
		llmClient: llmClient,
		memory:    mem,
		personas:  personaMgr,
		assembler: assembler,
		api:       api,
		sessionID: uuid.NewString(),
		logger:    logger,
	}

	b.queue = newDispatcher(b.handleUpdate, logger)

	return b, nil
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.api.Self.UserName).Msg("assistant bot started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil || update.Message.From == nil {
				continue
			}

			if !b.isAllowed(update.Message.From.ID) {
				b.logger.Warn().
					Int64("user_id", update.Message.From.ID).
					Str("username", update.Message.From.UserName).
					Msg("unauthorized access attempt")

				continue
			}

			b.queue.dispatch(ctx, update.Message)
		}
	}
}

// handleUpdate routes one already-authorized message. It runs on the
// sender's dispatch worker, so a user's messages are handled strictly in
// order while other users proceed in parallel.
func (b *Bot) handleUpdate(msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(msg)
	} else {
		b.handleChat(msg)
	}
}

// isAllowed reports whether a user may talk to the bot. With no admins
// configured the bot is open; otherwise only listed users are served.
func (b *Bot) isAllowed(userID int64) bool {
	admins := b.getAdmins()
	if len(admins) == 0 {
		return true
	}

	for _, id := range admins {
		if id == userID {
			return true
		}
	}

	return false
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, id := range b.getAdmins() {
		if id == userID {
			return true
		}
	}

	return false
}

func (b *Bot) getAdmins() []int64 {
	admins := make([]int64, len(b.cfg.AdminIDs))
	copy(admins, b.cfg.AdminIDs)

	// Admins granted at runtime live in settings, on top of the configured ones.
	var extraAdmins []int64

	ctx := context.Background()
	if err := b.database.GetSetting(ctx, settingAdminIDs, &extraAdmins); err == nil {
		admins = append(admins, extraAdmins...)
	}

	return admins
}

// SendNotification delivers a message to every admin. Used for budget
// alerts.
func (b *Bot) SendNotification(text string) {
	for _, adminID := range b.getAdmins() {
		msg := tgbotapi.NewMessage(adminID, text)
		msg.ParseMode = tgbotapi.ModeHTML

		if _, err := b.api.Send(msg); err != nil {
			b.logger.Error().Err(err).Int64("admin_id", adminID).Msg("failed to send notification to admin")
		}
	}
}

// reply sends an HTML-formatted reply, used by command handlers.
func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeHTML

	if _, err := b.api.Send(reply); err != nil {
		b.logger.Error().Err(err).Msg("failed to send reply")
	}
}

// replyPlain sends a plain-text reply, split into parts when it exceeds the
// Telegram message limit. Used for LLM output, which is not HTML-safe.
func (b *Bot) replyPlain(msg *tgbotapi.Message, text string) {
	for _, part := range splitMessage(text, messageLimit) {
		reply := tgbotapi.NewMessage(msg.Chat.ID, part)

		if _, err := b.api.Send(reply); err != nil {
			b.logger.Error().Err(err).Msg("failed to send reply")
		}
	}
}
