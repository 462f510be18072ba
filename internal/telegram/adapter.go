package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/dustin/go-humanize"

	"github.com/user/docchat/internal/session"
	"github.com/user/docchat/internal/types"
)

const maxTelegramMessage = 4096

// Adapter bridges Telegram to the chat coordinator: plain messages become
// questions against the selected document, commands drive the registry.
type Adapter struct {
	bot         *tgbotapi.BotAPI
	coordinator *session.Coordinator
}

// New creates a Telegram adapter.
func New(token string, coordinator *session.Coordinator) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Adapter{
		bot:         bot,
		coordinator: coordinator,
	}, nil
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		a.handleCommand(ctx, msg)
		return
	}

	chatID := msg.Chat.ID
	sel := a.coordinator.SelectedDocument()
	if sel == nil {
		a.sendResponse(chatID, "No document selected. Use /docs to list documents and /select <n> to pick one.")
		return
	}

	if err := a.coordinator.Ask(ctx, msg.Text); err != nil {
		slog.Error("telegram ask failed", "error", err)
	}

	msgs, err := a.coordinator.Transcript(ctx)
	if err != nil || len(msgs) == 0 {
		a.sendResponse(chatID, "Sorry, I encountered an error answering your question.")
		return
	}

	last := msgs[len(msgs)-1]
	reply := last.Content
	if a.coordinator.SourcesVisible() && len(last.Sources) > 0 {
		var b strings.Builder
		b.WriteString(reply)
		b.WriteString("\n\nSources:")
		for _, src := range last.Sources {
			fmt.Fprintf(&b, "\n- %s (%s)", src.Source, src.Type)
		}
		reply = b.String()
	}
	a.sendResponse(chatID, reply)
}

func (a *Adapter) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		a.sendResponse(chatID, "Hello! I answer questions about your uploaded PDFs. Use /docs to see what's available.")

	case "docs":
		docs := a.coordinator.Documents()
		if len(docs) == 0 {
			a.sendResponse(chatID, "No documents uploaded yet.")
			return
		}
		var b strings.Builder
		for i, d := range docs {
			marker := " "
			if d.Selected {
				marker = "*"
			}
			fmt.Fprintf(&b, "%s %d. %s (%s, %s)\n", marker, i+1, d.Name, humanize.Bytes(uint64(d.Size)), d.UploadState)
		}
		a.sendResponse(chatID, b.String())

	case "select":
		arg := strings.TrimSpace(msg.CommandArguments())
		docs := a.coordinator.Documents()
		var target *types.Document
		for i, d := range docs {
			if arg == fmt.Sprintf("%d", i+1) || arg == d.Name {
				target = d
				break
			}
		}
		if target == nil {
			a.sendResponse(chatID, "Unknown document. Use /docs to list them.")
			return
		}
		if err := a.coordinator.Select(ctx, target.ID); err != nil {
			a.sendResponse(chatID, err.Error())
			return
		}
		a.sendResponse(chatID, fmt.Sprintf("Selected %s.", target.Name))

	case "sources":
		if a.coordinator.ToggleSources() {
			a.sendResponse(chatID, "Sources will be shown with answers.")
		} else {
			a.sendResponse(chatID, "Sources hidden.")
		}

	case "status":
		status := a.coordinator.Health()
		sel := a.coordinator.SelectedDocument()
		text := fmt.Sprintf("Service: %s", status)
		if sel != nil {
			text += fmt.Sprintf("\nSelected: %s (session %s)", sel.Name, sel.SessionID)
		}
		if summary := a.coordinator.Summary(); summary != nil {
			text += fmt.Sprintf("\nMessages: %d, index ready: %t", summary.MessageCount, summary.IndexReady)
		}
		a.sendResponse(chatID, text)

	default:
		a.sendResponse(chatID, "Unknown command. Available: /start, /docs, /select, /sources, /status")
	}
}

func (a *Adapter) sendResponse(chatID int64, text string) {
	parts := splitMessage(text)
	for _, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = "Markdown"
		if _, err := a.bot.Send(msg); err != nil {
			// Retry without markdown if it fails
			msg.ParseMode = ""
			if _, err := a.bot.Send(msg); err != nil {
				slog.Error("send message failed", "error", err)
			}
		}
	}
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := maxTelegramMessage
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
