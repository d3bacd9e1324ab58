// Package content produces reply text. Generation goes through the DeepSeek
// chat API when configured; every failure or rejected completion falls back
// to a canned message, so callers always get usable text and never an error.
package content

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/yourusername/forum-autosign/internal/config"
	"github.com/yourusername/forum-autosign/internal/logger"
)

const (
	// deepSeekBaseURL is DeepSeek's OpenAI-compatible endpoint
	deepSeekBaseURL = "https://api.deepseek.com/v1"

	// generateTimeout bounds a single completion call
	generateTimeout = 20 * time.Second

	// minReplyRunes rejects completions too short to read as a real comment
	minReplyRunes = 10

	// defaultReply is the fallback of last resort when no pool is configured
	defaultReply = "支持一下"
)

const promptTemplate = "你是一个论坛的普通用户，请基于帖子标题写一条简短自然的中文评论，" +
	"要求长度在11到20字之间，直接给结果。\n标题：%s"

// refusalMarkers flag completions where the model declined or moralized
// instead of writing a comment. Any hit discards the completion.
var refusalMarkers = []string{
	"不良内容",
	"不予置评",
	"不符合平台规范",
	"无法提供",
	"拒绝",
	"违规",
	"不支持",
	"敏感内容",
	"无法回答",
	"评论",
	"标题",
}

// Generator produces reply text for forum posts
type Generator struct {
	pool   []string
	model  string
	client *openai.Client
	rng    *rand.Rand
}

// New builds a generator from config. The API client is only created when
// DeepSeek generation is enabled and a key is present; otherwise every call
// serves from the canned pool.
func New(cfg *config.Config) *Generator {
	g := &Generator{
		pool:  cfg.Activity.ReplyMessages,
		model: cfg.Generator.Model,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if cfg.Generator.UseDeepSeek && cfg.Generator.DeepSeekAPIKey != "" {
		c := openai.NewClient(
			option.WithAPIKey(cfg.Generator.DeepSeekAPIKey),
			option.WithBaseURL(deepSeekBaseURL),
		)
		g.client = &c
		logger.Info("reply generation enabled", "model", g.model)
	} else {
		logger.Info("reply generation disabled, using canned replies")
	}
	return g
}

// GenerateReply returns reply text for the given post title. It always
// returns something postable; API errors and rejected completions degrade to
// a canned reply.
func (g *Generator) GenerateReply(ctx context.Context, title string) string {
	if g.client == nil {
		return g.canned()
	}

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(fmt.Sprintf(promptTemplate, title)),
		},
		MaxTokens:   openai.Int(60),
		Temperature: openai.Float(0.9),
	})
	if err != nil {
		logger.Warn("reply generation failed, using canned reply", "error", err)
		return g.canned()
	}
	if len(resp.Choices) == 0 {
		logger.Warn("reply generation returned no choices")
		return g.canned()
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if !acceptable(reply) {
		logger.Warn("generated reply rejected", "reply", reply)
		return g.canned()
	}

	logger.Debug("reply generated", "title", title, "reply", reply)
	return reply
}

// acceptable filters out empty, too-short and refusal-flavored completions
func acceptable(reply string) bool {
	if reply == "" || utf8.RuneCountInString(reply) < minReplyRunes {
		return false
	}
	for _, marker := range refusalMarkers {
		if strings.Contains(reply, marker) {
			return false
		}
	}
	return true
}

func (g *Generator) canned() string {
	if len(g.pool) == 0 {
		return defaultReply
	}
	return g.pool[g.rng.Intn(len(g.pool))]
}
