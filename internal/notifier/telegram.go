// Package notifier delivers run summaries over the Telegram bot API.
package notifier

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/forum-autosign/internal/config"
	"github.com/yourusername/forum-autosign/internal/humanlike"
	"github.com/yourusername/forum-autosign/internal/logger"
)

// Notifier sends messages to a Telegram chat. A nil Notifier is valid and
// drops every send, so callers never branch on whether notification is
// enabled.
type Notifier struct {
	token   string
	chatID  string
	sendLog bool
	client  *http.Client
	apiBase string
}

// New builds a notifier from config, or nil when Telegram is disabled
func New(cfg config.TelegramConfig) *Notifier {
	if !cfg.Enabled {
		return nil
	}
	return &Notifier{
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		sendLog: cfg.SendLogFile,
		client:  &http.Client{Timeout: 30 * time.Second},
		apiBase: "https://api.telegram.org",
	}
}

// SendSummary reports the outcome of one activity run
func (n *Notifier) SendSummary(out humanlike.Outcome) {
	if n == nil {
		return
	}

	var b strings.Builder
	b.WriteString("📋 自动签到运行结果\n\n")
	b.WriteString(fmt.Sprintf("%s 浏览: %s\n", statusEmoji(out.BrowseSuccess), out.BrowseMessage))
	b.WriteString(fmt.Sprintf("%s 回复: %s\n", statusEmoji(out.ReplySuccess), out.ReplyMessage))
	if out.ReplyDetails != "" {
		b.WriteString(out.ReplyDetails + "\n")
	}
	b.WriteString(fmt.Sprintf("\n⏰ %s", time.Now().Format("2006-01-02 15:04:05")))

	n.sendMessage(b.String())
}

// SendError reports a fatal run failure
func (n *Notifier) SendError(message, context string) {
	if n == nil {
		return
	}
	text := fmt.Sprintf("❌ 运行失败\n\n%s", message)
	if context != "" {
		text += "\n\n" + context
	}
	n.sendMessage(text)
}

// SendLogFile uploads the run's log file when configured to do so
func (n *Notifier) SendLogFile(path string) {
	if n == nil || !n.sendLog || path == "" {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("failed to open log file for upload", "path", path, "error", err)
		return
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("chat_id", n.chatID)
	part, err := w.CreateFormFile("document", filepath.Base(path))
	if err != nil {
		logger.Warn("failed to build log upload", "error", err)
		return
	}
	if _, err := io.Copy(part, f); err != nil {
		logger.Warn("failed to read log file", "error", err)
		return
	}
	_ = w.Close()

	endpoint := fmt.Sprintf("%s/bot%s/sendDocument", n.apiBase, n.token)
	resp, err := n.client.Post(endpoint, w.FormDataContentType(), &body)
	if err != nil {
		logger.Warn("failed to upload log file", "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Warn("log upload rejected", "status", resp.StatusCode)
	}
}

func (n *Notifier) sendMessage(text string) {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	resp, err := n.client.PostForm(endpoint, url.Values{
		"chat_id": {n.chatID},
		"text":    {text},
	})
	if err != nil {
		logger.Warn("failed to send telegram message", "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Warn("telegram message rejected", "status", resp.StatusCode)
	}
}

func statusEmoji(ok bool) string {
	if ok {
		return "✅"
	}
	return "⚠️"
}
