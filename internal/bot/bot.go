package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"optiday/internal/model"
	"optiday/internal/planner"
	"optiday/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDuration
	stagePriority
)

const (
	cbTogglePrefix = "toggle:"
	cbDeletePrefix = "delete:"
)

type conversationState struct {
	stage conversationStage
	input model.TaskInput
}

// Bot is the chat surface of the planner: every private chat is one session.
type Bot struct {
	api      *tgbotapi.BotAPI
	sessions *service.SessionService
	digest   *service.DigestService

	conversations map[int64]*conversationState
	confirmations map[int64]string // chat -> task id pending deletion
	mu            sync.Mutex
	jobs          sync.WaitGroup
}

func New(token string, sessions *service.SessionService, digest *service.DigestService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		sessions:      sessions,
		digest:        digest,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]string),
	}, nil
}

// Start polls updates until ctx is cancelled, then waits for running
// schedule generations to finish.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	b.jobs.Wait()
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	chatID := msg.Chat.ID

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(chatID)
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "⏪ Input cancelled.")
	}

	sess, err := b.sessions.Open(ctx, chatID, msg.From.FirstName, msg.From.LastName, msg.From.UserName)
	if err != nil {
		return err
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", chatID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, sess, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, sess, msg); handled {
		return err
	}

	if taskID, ok := b.getConfirmation(chatID); ok {
		return b.handleConfirmationResponse(ctx, sess, msg, taskID)
	}

	if b.hasConversation(chatID) {
		return b.handleConversation(ctx, sess, msg)
	}

	return b.sendText(chatID, "I did not get that. Send /newtask to add a task or /help for the list of commands.")
}

func (b *Bot) handleCommand(ctx context.Context, sess *service.Session, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(chatID)
	case "newtask":
		return b.startNewTaskConversation(chatID)
	case "tasks":
		return b.sendTaskList(chatID, sess)
	case "toggle":
		return b.handleToggleByPosition(ctx, sess, chatID, args)
	case "delete":
		return b.handleDeleteByPosition(ctx, sess, chatID, args)
	case "prefs":
		return b.handlePreferences(ctx, sess, chatID, args)
	case "plan":
		return b.handlePlan(ctx, sess, chatID)
	case "schedule":
		return b.sendText(chatID, formatSchedule(sess.Manager.View()))
	case "dismiss":
		sess.Manager.ClearError()
		return b.sendText(chatID, "Dismissed.")
	case "theme":
		theme := sess.Manager.ToggleTheme(ctx)
		return b.sendText(chatID, fmt.Sprintf("%s Theme switched to <b>%s</b>.", paletteFor(theme).header, theme))
	case "ask":
		return b.handleAsk(ctx, sess, chatID, args)
	case "digest":
		return b.sendText(chatID, b.digest.DailySummary(sess.Manager.View(), time.Now()))
	case "cancel":
		b.clearConversation(chatID)
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "⏪ Input cancelled.")
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I plan your day around your tasks.</b>\n\n"+
		"Add tasks with /newtask, tune /prefs, then send /plan and I will build an optimized schedule.", escape(name))
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /newtask — add a task step by step\n" +
		"• /tasks — list tasks, toggle or delete with the buttons\n" +
		"• /toggle &lt;n&gt; — mark task n done or not done\n" +
		"• /delete &lt;n&gt; — delete task n\n" +
		"• /prefs — show or change preferences\n" +
		"• /plan — build or rebuild today's schedule\n" +
		"• /schedule — show the current schedule\n" +
		"• /ask &lt;question&gt; — ask the assistant\n" +
		"• /digest — summary of pending tasks\n" +
		"• /theme — switch light/dark\n" +
		"• /dismiss — close the error message\n" +
		"• /cancel — stop the current input"
	return b.sendText(chatID, text)
}

func (b *Bot) startNewTaskConversation(chatID int64) error {
	log.Printf("[info] start new task conversation chat=%d", chatID)
	b.setConversation(chatID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(chatID, "🆕 New task.\n<b>Step 1:</b> what needs to be done?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, sess *service.Session, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	state := b.getConversation(chatID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "The title cannot be empty. What needs to be done?", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDuration
		return b.sendWithReplyMarkup(chatID, "⏱ <b>Step 2:</b> how long will it take? For example <code>45</code>, <code>90 min</code>, <code>1.5 h</code> or <code>2 days</code>.", durationKeyboard())
	case stageDuration:
		value, unit, err := parseDurationInput(text)
		if err != nil {
			return b.sendWithReplyMarkup(chatID, "I cannot read that duration. Try <code>30 min</code> or <code>2 h</code>.", durationKeyboard())
		}
		minutes, err := model.ToMinutes(value, unit)
		if err != nil || minutes <= 0 {
			return b.sendWithReplyMarkup(chatID, "The duration must be at least one minute.", durationKeyboard())
		}
		state.input.DurationValue = value
		state.input.DurationUnit = unit
		state.stage = stagePriority
		return b.sendWithReplyMarkup(chatID, "🎯 <b>Step 3:</b> priority?", priorityKeyboard())
	case stagePriority:
		priority, err := model.ParsePriority(stripIcon(text))
		if err != nil {
			return b.sendWithReplyMarkup(chatID, "Pick High, Medium or Low.", priorityKeyboard())
		}
		state.input.Priority = priority
		b.clearConversation(chatID)
		return b.finishTaskCreation(ctx, sess, chatID, state.input)
	default:
		b.clearConversation(chatID)
		return b.sendText(chatID, "Input reset. Start again with /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, sess *service.Session, chatID int64, input model.TaskInput) error {
	hadSchedule := sess.Manager.Schedule() != nil

	task, err := model.NewTask(input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not add the task: %s", escape(err.Error())))
	}
	sess.Manager.AddTask(ctx, task)
	log.Printf("[info] task added id=%s chat=%d minutes=%d", task.ID, chatID, task.Duration)

	text := fmt.Sprintf("✅ Added %s <b>%s</b> · %s", priorityIcon(task.Priority), escape(normalizeTitle(task.Title)), service.FormatMinutes(task.Duration))
	if hadSchedule {
		text += "\n<i>Your schedule is out of date; send /plan to rebuild it.</i>"
	}
	if err := b.sendText(chatID, text); err != nil {
		return err
	}
	return b.sendTaskList(chatID, sess)
}

func (b *Bot) handleToggleByPosition(ctx context.Context, sess *service.Session, chatID int64, args string) error {
	if args == "" {
		return b.sendText(chatID, "Give the task number: /toggle 2")
	}
	tasks := sess.Manager.Tasks()
	idx, err := parsePosition(args, len(tasks))
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	return b.toggleTaskAndRefresh(ctx, sess, chatID, tasks[idx].ID)
}

func (b *Bot) handleDeleteByPosition(ctx context.Context, sess *service.Session, chatID int64, args string) error {
	if args == "" {
		return b.sendText(chatID, "Give the task number: /delete 2")
	}
	tasks := sess.Manager.Tasks()
	idx, err := parsePosition(args, len(tasks))
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	return b.deleteTaskAndRefresh(ctx, sess, chatID, tasks[idx])
}

func (b *Bot) toggleTaskAndRefresh(ctx context.Context, sess *service.Session, chatID int64, taskID string) error {
	if !sess.Manager.ToggleTask(ctx, taskID) {
		return b.sendText(chatID, "That task no longer exists.")
	}
	log.Printf("[info] task toggled id=%s chat=%d", taskID, chatID)
	return b.sendTaskList(chatID, sess)
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, sess *service.Session, chatID int64, task model.Task) error {
	hadSchedule := sess.Manager.Schedule() != nil
	if !sess.Manager.DeleteTask(ctx, task.ID) {
		return b.sendTextWithRemove(chatID, "That task no longer exists.")
	}
	log.Printf("[info] task deleted id=%s chat=%d", task.ID, chatID)

	text := fmt.Sprintf("🗑 Deleted <b>%s</b>.", escape(normalizeTitle(task.Title)))
	if hadSchedule {
		text += "\n<i>Your schedule is out of date; send /plan to rebuild it.</i>"
	}
	if err := b.sendTextWithRemove(chatID, text); err != nil {
		return err
	}
	return b.sendTaskList(chatID, sess)
}

func (b *Bot) handlePreferences(ctx context.Context, sess *service.Session, chatID int64, args string) error {
	if args == "" {
		return b.sendText(chatID, formatPreferences(sess.Manager.Preferences()))
	}
	prefs, err := applyPreferenceEdit(sess.Manager.Preferences(), args)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not update preferences: %s", escape(err.Error())))
	}
	sess.Manager.UpdatePreferences(ctx, prefs)
	log.Printf("[info] preferences updated chat=%d", chatID)
	return b.sendText(chatID, formatPreferences(prefs))
}

// handlePlan starts generation off the update loop so the chat stays
// responsive; a second /plan while one is running joins it.
func (b *Bot) handlePlan(ctx context.Context, sess *service.Session, chatID int64) error {
	if len(sess.Manager.PendingTasks()) == 0 {
		_, _ = sess.Manager.GenerateSchedule(ctx)
		return b.sendText(chatID, formatSchedule(sess.Manager.View()))
	}

	if sess.Manager.Busy() {
		if err := b.sendText(chatID, "⏳ Already working on it…"); err != nil {
			return err
		}
	} else {
		if err := b.sendText(chatID, "⏳ Building your schedule…"); err != nil {
			return err
		}
	}
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.Printf("chat action: %v", err)
	}

	b.jobs.Add(1)
	go func() {
		defer b.jobs.Done()
		b.runGeneration(context.WithoutCancel(ctx), sess, chatID)
	}()
	return nil
}

func (b *Bot) runGeneration(ctx context.Context, sess *service.Session, chatID int64) {
	_, err := b.sessions.Generate(ctx, sess)
	var text string
	switch {
	case err == nil:
		text = formatSchedule(sess.Manager.View())
	case errors.Is(err, planner.ErrSuperseded):
		text = "Your tasks changed while I was planning. Send /plan again for a fresh schedule."
	default:
		log.Printf("generate schedule chat=%d: %v", chatID, err)
		text = formatSchedule(sess.Manager.View())
	}
	if err := b.sendText(chatID, text); err != nil {
		log.Printf("send schedule to %d: %v", chatID, err)
	}
}

func (b *Bot) handleAsk(ctx context.Context, sess *service.Session, chatID int64, question string) error {
	if question == "" {
		return b.sendText(chatID, "Ask me anything after the command, for example: /ask how should I split a 4 hour task?")
	}
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.Printf("chat action: %v", err)
	}
	answer, err := b.sessions.Ask(ctx, sess, question)
	if err != nil {
		log.Printf("ask chat=%d: %v", chatID, err)
		return b.sendText(chatID, "Sorry, I encountered an error. Please try again.")
	}
	return b.sendPlain(chatID, answer)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	chatID := cb.Message.Chat.ID
	sess, err := b.sessions.Open(ctx, chatID, cb.From.FirstName, cb.From.LastName, cb.From.UserName)
	if err != nil {
		return err
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		log.Printf("[info] callback toggle chat=%d task=%s", chatID, strings.TrimPrefix(data, cbTogglePrefix))
		return b.toggleTaskAndRefresh(ctx, sess, chatID, strings.TrimPrefix(data, cbTogglePrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		log.Printf("[info] callback delete request chat=%d task=%s", chatID, strings.TrimPrefix(data, cbDeletePrefix))
		return b.askDeleteConfirmation(sess, chatID, strings.TrimPrefix(data, cbDeletePrefix))
	default:
		return nil
	}
}

func (b *Bot) askDeleteConfirmation(sess *service.Session, chatID int64, taskID string) error {
	task, ok := findTask(sess.Manager.Tasks(), taskID)
	if !ok {
		return b.sendText(chatID, "That task no longer exists.")
	}
	b.setConfirmation(chatID, task.ID)
	text := fmt.Sprintf("Delete <b>%s</b>?", escape(normalizeTitle(task.Title)))
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, sess *service.Session, msg *tgbotapi.Message, taskID string) error {
	chatID := msg.Chat.ID
	switch {
	case isConfirmInput(msg.Text):
		b.clearConfirmation(chatID)
		task, ok := findTask(sess.Manager.Tasks(), taskID)
		if !ok {
			return b.sendTextWithRemove(chatID, "That task no longer exists.")
		}
		return b.deleteTaskAndRefresh(ctx, sess, chatID, task)
	case isCancelInput(msg.Text):
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "Kept.")
	default:
		return b.sendWithReplyMarkup(chatID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

// SendDigests sends the daily digest to every known chat.
func (b *Bot) SendDigests(ctx context.Context) error {
	profiles, err := b.sessions.Profiles(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, profile := range profiles {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		sess, err := b.sessions.Get(ctx, profile.TelegramID)
		if err != nil {
			log.Printf("open session for digest %d: %v", profile.TelegramID, err)
			continue
		}
		text := b.digest.DailySummary(sess.Manager.View(), now)
		if err := b.sendText(profile.TelegramID, text); err != nil {
			log.Printf("send digest to %d: %v", profile.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) handleMenuAlias(ctx context.Context, sess *service.Session, msg *tgbotapi.Message) (bool, error) {
	chatID := msg.Chat.ID
	switch strings.TrimSpace(msg.Text) {
	case menuNewTask:
		return true, b.startNewTaskConversation(chatID)
	case menuTasks:
		return true, b.sendTaskList(chatID, sess)
	case menuPlan:
		return true, b.handlePlan(ctx, sess, chatID)
	case menuSchedule:
		return true, b.sendText(chatID, formatSchedule(sess.Manager.View()))
	case menuPrefs:
		return true, b.sendText(chatID, formatPreferences(sess.Manager.Preferences()))
	case menuHelp:
		return true, b.handleHelp(chatID)
	default:
		return false, nil
	}
}

func (b *Bot) sendTaskList(chatID int64, sess *service.Session) error {
	view := sess.Manager.View()
	msg := tgbotapi.NewMessage(chatID, formatTaskList(view))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(view.Tasks) > 0 {
		msg.ReplyMarkup = taskKeyboard(view.Tasks)
	} else {
		msg.ReplyMarkup = mainMenuKeyboard()
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

// sendPlain sends model output as is, without HTML parsing.
func (b *Bot) sendPlain(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(chatID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	taskID, ok := b.confirmations[chatID]
	return taskID, ok
}

func (b *Bot) setConfirmation(chatID int64, taskID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[chatID] = taskID
}

func (b *Bot) clearConfirmation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, chatID)
}

func (b *Bot) setConversation(chatID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[chatID] = state
}

func (b *Bot) getConversation(chatID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[chatID]
}

func (b *Bot) hasConversation(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[chatID]
	return ok
}

func (b *Bot) clearConversation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, chatID)
}

func findTask(tasks []model.Task, id string) (model.Task, bool) {
	for _, task := range tasks {
		if task.ID == id {
			return task, true
		}
	}
	return model.Task{}, false
}

// stripIcon drops a leading emoji from a keyboard label such as "🔴 High".
func stripIcon(text string) string {
	if i := strings.IndexByte(text, ' '); i >= 0 && !isASCIILetter(text[0]) {
		return strings.TrimSpace(text[i+1:])
	}
	return strings.TrimSpace(text)
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "stop"
}
