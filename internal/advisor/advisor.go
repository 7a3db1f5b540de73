// Package advisor turns the recent ledger into short coaching advice
// from a chat completion model. It never returns an error to the
// caller, every failure collapses into a human-readable message.
package advisor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"velvet/internal/cache"
	"velvet/internal/core"
)

// Fixed responses surfaced instead of errors. The wording is part of
// the product, the UI shows these verbatim.
const (
	MsgNotConfigured = "⚠️ API ключ не настроен. Пожалуйста, введите его в настройках (иконка облака), чтобы ИИ заработал."
	MsgBadKey        = "❌ Неверный API ключ. Проверьте его в настройках."
	MsgUnavailable   = "AI временно недоступен. Проверьте интернет или ключ."
	MsgEmpty         = "ИИ не смог ответить."
)

const (
	DefaultModel = openai.GPT4oMini

	// RecentWindow is how many of the newest transactions go into the
	// prompt; Advise trims anything longer as a safety net.
	RecentWindow = 20

	cacheSize = 32
	cacheTTL  = 30 * time.Minute
)

type completionFn func(ctx context.Context, model, prompt string) (string, error)

type Advisor struct {
	model    string
	logger   *slog.Logger
	cache    *cache.LRU[string]
	complete completionFn
}

// New builds an advisor backed by the OpenAI chat API. An empty apiKey
// yields an advisor that always answers MsgNotConfigured.
func New(apiKey, model string, logger *slog.Logger) *Advisor {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Advisor{
		model:  model,
		logger: logger,
		cache:  cache.NewLRU[string](cacheSize, cacheTTL),
	}

	if apiKey == "" {
		return a
	}

	client := openai.NewClient(apiKey)
	a.complete = func(ctx context.Context, model, prompt string) (string, error) {
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	}
	return a
}

// Advise analyzes the most recent transactions and returns coaching
// text. Identical ledger state within the cache TTL reuses the previous
// answer instead of calling the API again.
func (a *Advisor) Advise(ctx context.Context, txs []core.Transaction) string {
	if a.complete == nil {
		return MsgNotConfigured
	}

	if len(txs) > RecentWindow {
		txs = txs[len(txs)-RecentWindow:]
	}
	prompt := buildPrompt(txs)
	key := fingerprint(prompt)

	if cached, ok := a.cache.Get(key); ok {
		return cached
	}

	answer, err := a.complete(ctx, a.model, prompt)
	if err != nil {
		a.logger.Error("Advice request failed", "error", err, "model", a.model)
		if strings.Contains(strings.ToLower(err.Error()), "api key") ||
			strings.Contains(err.Error(), "401") {
			return MsgBadKey
		}
		return MsgUnavailable
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return MsgEmpty
	}

	a.cache.Set(key, answer)
	return answer
}

// buildPrompt summarizes spending per user and category plus the
// lifetime savings balance. Keys are sorted so equal ledgers always
// produce the same prompt.
func buildPrompt(txs []core.Transaction) string {
	sums := map[string]core.Money{}
	var savings core.Money
	for _, t := range txs {
		if t.Category == core.CategorySavings {
			if t.Type == core.Expense {
				savings = savings.Add(t.Amount)
			}
			continue
		}
		if t.Type != core.Expense {
			continue
		}
		key := string(t.User) + "-" + string(t.Category)
		sums[key] = sums[key].Add(t.Amount)
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Ты - мудрый финансовый коуч. Проанализируй данные Марии и Виктории.\n")
	b.WriteString("Все суммы в кронах (kr).\n\n")
	b.WriteString("РАСХОДЫ (пользователь-категория: сумма):\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, sums[k])
	}
	fmt.Fprintf(&b, "\nНАКОПЛЕНИЯ (Wise): %s kr\n\n", savings)
	b.WriteString("ЗАДАЧА:\n")
	b.WriteString("1. Похвали за дисциплину.\n")
	b.WriteString("2. Найди 2 области для экономии.\n")
	b.WriteString("3. Дай 3 совета на русском языке. Будь кратким.\n")
	return b.String()
}

func fingerprint(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
