package telegrambot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/assistant-bot/internal/contextbuilder"
	"github.com/lueurxax/assistant-bot/internal/core/llm"
	"github.com/lueurxax/assistant-bot/internal/personas"
	"github.com/lueurxax/assistant-bot/internal/platform/observability"
	db "github.com/lueurxax/assistant-bot/internal/storage"
)

// Fact confidence assigned to facts stated explicitly via /remember and
// /teach.
const rememberedFactConfidence = 1.0

const logKeyUserID = "user_id"

// Settings key holding admin user ids granted at runtime.
const settingAdminIDs = "admin_ids"

// Usage report windows.
const (
	usageWindowDay   = "day"
	usageWindowMonth = "month"
)

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	b.logger.Info().
		Str("command", msg.Command()).
		Int64("user_id", msg.From.ID).
		Msg("handling command")

	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	case "help":
		b.handleHelp(msg)
	case "persona":
		b.handlePersona(msg)
	case "providers":
		b.handleProviders(msg)
	case "remember":
		b.handleRemember(msg)
	case "facts":
		b.handleFacts(msg)
	case "teach":
		b.handleTeach(msg)
	case "grant":
		b.handleGrant(msg)
	case "usage":
		b.handleUsage(msg)
	default:
		b.reply(msg, "Unknown command. See /help for what I can do.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	persona := b.personaFor(context.Background(), msg.From.ID)

	b.reply(msg, fmt.Sprintf(
		"Hi, I'm <b>%s</b>, your personal assistant. Just write me a message.\n\nSee /help for commands.",
		html.EscapeString(persona.Name),
	))
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) {
	var sb strings.Builder

	sb.WriteString("<b>Commands</b>\n\n")
	sb.WriteString("/persona - show or switch my personality\n")
	sb.WriteString("/remember &lt;key&gt; &lt;value&gt; - store a fact about you\n")
	sb.WriteString("/facts - list what I remember about you\n")
	sb.WriteString("/providers - LLM provider health\n")

	if b.isAdmin(msg.From.ID) {
		sb.WriteString("/usage [month] - LLM usage and cost\n")
		sb.WriteString("/teach &lt;key&gt; &lt;value&gt; - store a fact shared by all users\n")
		sb.WriteString("/grant &lt;user_id&gt; - make a user an admin\n")
	}

	sb.WriteString("\nAnything else you send is a normal message to me.")

	b.reply(msg, sb.String())
}

func (b *Bot) handlePersona(msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	ctx := context.Background()

	if args == "" {
		current := b.personaFor(ctx, msg.From.ID)

		var sb strings.Builder

		sb.WriteString("<b>Personas</b>\n\n")

		for _, p := range b.personas.List() {
			marker := ""
			if p.ID == current.ID {
				marker = " (current)"
			}

			sb.WriteString(fmt.Sprintf("<b>%s</b>%s - %s\n", html.EscapeString(p.ID), marker, html.EscapeString(p.Description)))
		}

		sb.WriteString("\nSwitch with <code>/persona &lt;id&gt;</code>")

		b.reply(msg, sb.String())

		return
	}

	p, err := b.personas.Switch(ctx, msg.From.ID, strings.ToLower(args))
	if err != nil {
		b.reply(msg, fmt.Sprintf("I don't know the persona <code>%s</code>. Use /persona to see the options.", html.EscapeString(args)))

		return
	}

	b.reply(msg, fmt.Sprintf("Done. From now on you're talking to <b>%s</b>.", html.EscapeString(p.Name)))
}

func (b *Bot) handleProviders(msg *tgbotapi.Message) {
	statuses := b.llmClient.Statuses()

	var sb strings.Builder

	sb.WriteString("<b>LLM Providers</b>\n\n")

	for _, s := range statuses {
		state := "healthy"

		switch {
		case !s.Available:
			state = "unavailable"
		case !s.Healthy:
			state = fmt.Sprintf("unhealthy since %s", s.UnhealthySince.Format("15:04:05"))
		}

		sb.WriteString(fmt.Sprintf("• <b>%s</b> (priority %d): %s\n", html.EscapeString(string(s.Name)), s.Priority, html.EscapeString(state)))
	}

	tokens, limit, percentage := b.llmClient.GetBudgetStatus()
	if limit > 0 {
		sb.WriteString(fmt.Sprintf("\nDaily budget: <code>%d/%d</code> tokens (%.0f%%)", tokens, limit, percentage*100))
	}

	b.reply(msg, sb.String())
}

func (b *Bot) handleRemember(msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())

	key, value, found := strings.Cut(args, " ")
	if !found || strings.TrimSpace(value) == "" {
		b.reply(msg, "Usage: <code>/remember &lt;key&gt; &lt;value&gt;</code>\nExample: <code>/remember birthday March 3</code>")

		return
	}

	ctx := context.Background()

	key = strings.ToLower(key)
	value = strings.TrimSpace(value)

	existing, err := b.database.GetUserFact(ctx, msg.From.ID, key)
	if err != nil {
		b.logger.Warn().Err(err).Int64(logKeyUserID, msg.From.ID).Msg("failed to check existing fact")
	}

	if err := b.memory.UpsertUserFact(ctx, msg.From.ID, key, value, rememberedFactConfidence); err != nil {
		b.logger.Error().Err(err).Msg("failed to store fact")
		b.reply(msg, "I couldn't store that right now, please try again.")

		return
	}

	if existing != nil {
		b.reply(msg, fmt.Sprintf("Updated. <b>%s</b> was %q, now %s", html.EscapeString(key), html.EscapeString(existing.Value), html.EscapeString(value)))

		return
	}

	b.reply(msg, fmt.Sprintf("Got it. <b>%s</b> = %s", html.EscapeString(key), html.EscapeString(value)))
}

// handleTeach stores a fact visible to every user. Admin only.
func (b *Bot) handleTeach(msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		b.reply(msg, "This command is for admins only.")

		return
	}

	args := strings.TrimSpace(msg.CommandArguments())

	key, value, found := strings.Cut(args, " ")
	if !found || strings.TrimSpace(value) == "" {
		b.reply(msg, "Usage: <code>/teach &lt;key&gt; &lt;value&gt;</code>\nExample: <code>/teach office_wifi Guest-5G</code>")

		return
	}

	ctx := context.Background()

	key = strings.ToLower(key)
	value = strings.TrimSpace(value)

	existing, err := b.database.GetCoreFact(ctx, key)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to check existing core fact")
	}

	if err := b.memory.UpsertCoreFact(ctx, key, value, rememberedFactConfidence); err != nil {
		b.logger.Error().Err(err).Msg("failed to store core fact")
		b.reply(msg, "I couldn't store that right now, please try again.")

		return
	}

	if existing != nil {
		b.reply(msg, fmt.Sprintf("Updated the shared fact <b>%s</b>: %s", html.EscapeString(key), html.EscapeString(value)))

		return
	}

	b.reply(msg, fmt.Sprintf("Noted for everyone. <b>%s</b> = %s", html.EscapeString(key), html.EscapeString(value)))
}

// handleGrant adds a user to the admin list stored in settings. Admin only.
func (b *Bot) handleGrant(msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		b.reply(msg, "This command is for admins only.")

		return
	}

	userID, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil || userID <= 0 {
		b.reply(msg, "Usage: <code>/grant &lt;user_id&gt;</code>")

		return
	}

	ctx := context.Background()

	var admins []int64
	if err := b.database.GetSetting(ctx, settingAdminIDs, &admins); err != nil && !errors.Is(err, db.ErrSettingNotFound) {
		b.logger.Error().Err(err).Msg("failed to load admin list")
		b.reply(msg, "Couldn't load the admin list, please try again.")

		return
	}

	for _, id := range admins {
		if id == userID {
			b.reply(msg, fmt.Sprintf("User <code>%d</code> is already an admin.", userID))

			return
		}
	}

	admins = append(admins, userID)

	if err := b.database.SaveSetting(ctx, settingAdminIDs, admins); err != nil {
		b.logger.Error().Err(err).Msg("failed to save admin list")
		b.reply(msg, "Couldn't update the admin list, please try again.")

		return
	}

	b.reply(msg, fmt.Sprintf("User <code>%d</code> is now an admin.", userID))
}

func (b *Bot) handleFacts(msg *tgbotapi.Message) {
	ctx := context.Background()

	facts, err := b.memory.ListUserFacts(ctx, msg.From.ID)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to list facts")
		b.reply(msg, "I couldn't load your facts right now, please try again.")

		return
	}

	if len(facts) == 0 {
		b.reply(msg, "I don't know anything about you yet. Teach me with /remember.")

		return
	}

	var sb strings.Builder

	sb.WriteString("<b>What I remember about you</b>\n\n")

	for _, f := range facts {
		sb.WriteString(fmt.Sprintf("• <b>%s</b>: %s\n", html.EscapeString(f.Key), html.EscapeString(f.Value)))
	}

	b.reply(msg, sb.String())
}

func (b *Bot) handleUsage(msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		b.reply(msg, "This command is for admins only.")

		return
	}

	ctx := context.Background()
	window := usageWindow(msg.CommandArguments())

	var (
		summary *db.LLMUsageSummary
		err     error
	)

	if window == usageWindowMonth {
		summary, err = b.database.GetMonthlyLLMUsage(ctx)
	} else {
		summary, err = b.database.GetDailyLLMUsage(ctx)
	}

	if err != nil {
		b.logger.Error().Err(err).Msg("failed to load llm usage")
		b.reply(msg, "Couldn't load usage data.")

		return
	}

	var sb strings.Builder

	sb.WriteString(formatUsageReport(window, summary))

	tokens, limit, percentage := b.llmClient.GetBudgetStatus()
	if limit > 0 {
		sb.WriteString(fmt.Sprintf("\nDaily budget: <code>%d/%d</code> tokens (%.0f%%)", tokens, limit, percentage*100))
	}

	b.reply(msg, sb.String())
}

// usageWindow parses the /usage argument. Anything but "month" means today.
func usageWindow(args string) string {
	if strings.EqualFold(strings.TrimSpace(args), usageWindowMonth) {
		return usageWindowMonth
	}

	return usageWindowDay
}

// formatUsageReport renders a usage summary as HTML.
func formatUsageReport(window string, summary *db.LLMUsageSummary) string {
	var sb strings.Builder

	title := "LLM Usage Today"
	if window == usageWindowMonth {
		title = "LLM Usage This Month"
	}

	sb.WriteString(fmt.Sprintf("📊 <b>%s</b>\n\n", title))
	sb.WriteString(fmt.Sprintf("• Requests: <code>%d</code>\n", summary.TotalRequests))
	sb.WriteString(fmt.Sprintf("• Prompt tokens: <code>%d</code>\n", summary.TotalPromptTokens))
	sb.WriteString(fmt.Sprintf("• Completion tokens: <code>%d</code>\n", summary.TotalCompletionTokens))
	sb.WriteString(fmt.Sprintf("• Estimated cost: <code>$%.4f</code>\n", summary.TotalCostUSD))

	if len(summary.ByProvider) > 0 {
		sb.WriteString("\n<b>By provider</b>\n")

		for _, p := range summary.ByProvider {
			sb.WriteString(fmt.Sprintf("• %s: <code>%d</code> requests, <code>$%.4f</code>\n", html.EscapeString(p.Provider), p.RequestCount, p.CostUSD))
		}
	}

	return sb.String()
}

// handleChat runs the full message pipeline: gather context, classify,
// invoke the provider chain, reply, and persist both turns. The per-user
// dispatch queue guarantees the memory writes land before the user's next
// message is processed.
func (b *Bot) handleChat(msg *tgbotapi.Message) {
	userID := msg.From.ID

	start := time.Now()
	status := "ok"

	defer func() {
		observability.MessagesProcessed.WithLabelValues(status).Inc()
		observability.MessageHandlingDuration.Observe(time.Since(start).Seconds())
	}()

	ctx := context.Background()

	persona := b.personaFor(ctx, userID)
	assembled := b.assembler.Assemble(b.gatherContext(ctx, userID, msg.Text))
	task := llm.Classify(msg.Text, "")

	systemPrompt := persona.SystemPrompt
	if assembled.Text != "" {
		systemPrompt += "\n\n" + assembled.Text
	}

	resp, err := b.llmClient.Complete(ctx, task, llm.CompletionRequest{
		Prompt:       msg.Text,
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		status = "error"

		var exhausted *llm.AllProvidersExhaustedError
		if errors.As(err, &exhausted) {
			b.logger.Error().
				Err(err).
				Int64(logKeyUserID, userID).
				Str("task", string(task)).
				Msg("all LLM providers exhausted")
		} else {
			b.logger.Error().Err(err).Int64(logKeyUserID, userID).Msg("LLM request failed")
		}

		b.replyPlain(msg, b.personas.FailureMessage(persona.ID))

		return
	}

	b.replyPlain(msg, resp.Text)

	b.recordTurns(ctx, userID, persona.ID, msg.Text, resp.Text)

	b.logger.Info().
		Int64(logKeyUserID, userID).
		Str("task", string(task)).
		Str("provider", string(resp.Provider)).
		Int("context_tokens", assembled.Tokens).
		Dur("duration", time.Since(start)).
		Msg("handled message")
}

// personaFor resolves the active persona for a user.
func (b *Bot) personaFor(ctx context.Context, userID int64) personas.Persona {
	profile, err := b.database.GetUserProfile(ctx, userID)
	if err != nil {
		b.logger.Warn().Err(err).Int64(logKeyUserID, userID).Msg("failed to load user profile")
	}

	if profile != nil && profile.PreferredPersona != "" {
		return b.personas.Get(profile.PreferredPersona)
	}

	return b.personas.Get(b.cfg.DefaultPersona)
}

// gatherContext collects the memory layers for the assembler. Each layer is
// best-effort: a failed read degrades the context instead of failing the
// message.
func (b *Bot) gatherContext(ctx context.Context, userID int64, text string) contextbuilder.Input {
	var input contextbuilder.Input

	coreFacts, err := b.memory.ListCoreFacts(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to load core facts")
	}

	for _, f := range coreFacts {
		input.CoreFacts = append(input.CoreFacts, fmt.Sprintf("%s: %s", f.Key, f.Value))
	}

	userFacts, err := b.memory.ListUserFacts(ctx, userID)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to load user facts")
	}

	for _, f := range userFacts {
		input.UserFacts = append(input.UserFacts, fmt.Sprintf("%s: %s", f.Key, f.Value))
	}

	turns, err := b.memory.RecentTurns(ctx, userID, b.sessionID, b.cfg.ContextRecentTurns)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to load recent turns")
	}

	for _, t := range turns {
		input.RecentTurns = append(input.RecentTurns, fmt.Sprintf("%s: %s", t.Role, t.Text))
	}

	matches, err := b.memory.Search(ctx, userID, text, b.cfg.ContextSemanticTopK)
	if err != nil {
		b.logger.Warn().Err(err).Msg("memory search failed")
	}

	for _, m := range matches {
		input.SemanticMatches = append(input.SemanticMatches, m.Text)
	}

	return input
}

// recordTurns persists the user message and the assistant's answer.
func (b *Bot) recordTurns(ctx context.Context, userID int64, personaID, question, answer string) {
	turns := []db.ConversationTurn{
		{UserID: userID, SessionID: b.sessionID, Role: db.RoleUser, Text: question, PersonaID: personaID},
		{UserID: userID, SessionID: b.sessionID, Role: db.RoleAssistant, Text: answer, PersonaID: personaID},
	}

	for _, turn := range turns {
		if err := b.memory.AppendTurn(ctx, turn); err != nil {
			b.logger.Error().Err(err).Int64(logKeyUserID, userID).Msg("failed to store conversation turn")
		}
	}
}
