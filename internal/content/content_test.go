package content

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/yourusername/forum-autosign/internal/config"
)

func newAPIGenerator(t *testing.T, handler http.HandlerFunc, pool []string) *Generator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	return &Generator{
		pool:   pool,
		model:  "deepseek-chat",
		client: &c,
		rng:    rand.New(rand.NewSource(1)),
	}
}

func completionResponse(text string) string {
	return `{"id":"c1","object":"chat.completion","created":1,"model":"deepseek-chat",` +
		`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"` + text + `"}}]}`
}

func TestGenerateReplyUsesCompletion(t *testing.T) {
	g := newAPIGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse("感谢楼主的精彩分享，支持了")))
	}, nil)

	reply := g.GenerateReply(context.Background(), "测试标题")
	assert.Equal(t, "感谢楼主的精彩分享，支持了", reply)
}

func TestGenerateReplyFallsBackOnAPIError(t *testing.T) {
	g := newAPIGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
	}, []string{"感谢分享"})

	reply := g.GenerateReply(context.Background(), "测试标题")
	assert.Equal(t, "感谢分享", reply)
}

func TestGenerateReplyRejectsRefusals(t *testing.T) {
	tests := []struct {
		name       string
		completion string
	}{
		{"refusal marker", "抱歉，这涉及敏感内容，我无法帮助你"},
		{"meta commentary", "这是一条关于该标题的评论示例内容"},
		{"too short", "好帖"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newAPIGenerator(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(completionResponse(tt.completion)))
			}, []string{"学习了，感谢楼主"})

			reply := g.GenerateReply(context.Background(), "标题")
			assert.Equal(t, "学习了，感谢楼主", reply)
		})
	}
}

func TestGenerateReplyWithoutClientUsesPool(t *testing.T) {
	cfg := &config.Config{}
	cfg.Activity.ReplyMessages = []string{"谢谢分享", "支持楼主"}
	g := New(cfg)

	reply := g.GenerateReply(context.Background(), "标题")
	assert.Contains(t, cfg.Activity.ReplyMessages, reply)
}

func TestCannedFallsBackToDefaultWithEmptyPool(t *testing.T) {
	g := &Generator{rng: rand.New(rand.NewSource(1))}
	assert.Equal(t, "支持一下", g.canned())
}

func TestAcceptable(t *testing.T) {
	assert.True(t, acceptable("这部作品真的非常精彩好看"))
	assert.False(t, acceptable(""))
	assert.False(t, acceptable("太短了"))
	assert.False(t, acceptable("这个标题涉及不良内容无法处理"))
	assert.False(t, acceptable("关于这个标题我拒绝发表任何看法"))
}
