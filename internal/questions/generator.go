package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-live/internal/game"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

const (
	generatorSystemPrompt = "You are an expert at writing educational and entertaining trivia questions. Always answer with valid JSON."
	generatorTimeout      = 60 * time.Second
)

type GeneratorConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Generator asks an OpenAI-compatible chat model for questions. It never
// falls back to local questions: a short or unparsable answer is an error.
type Generator struct {
	client openai.Client
	model  string
}

func NewGenerator(cfg GeneratorConfig, opts ...option.RequestOption) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("OpenAI API key is not configured")
	}
	requestOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithRequestTimeout(generatorTimeout),
	}
	if cfg.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.BaseURL))
	}
	requestOpts = append(requestOpts, opts...)
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Generator{
		client: openai.NewClient(requestOpts...),
		model:  model,
	}, nil
}

func (g *Generator) Name() string {
	return "openai"
}

func (g *Generator) Fetch(ctx context.Context, topic, difficulty string, count int) ([]game.Question, error) {
	if difficulty == "" {
		difficulty = "medium"
	}
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(generatorSystemPrompt),
			openai.UserMessage(buildPrompt(topic, difficulty, count)),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(2000),
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("generate questions: %w: model returned no choices", game.ErrInsufficientQuestions)
	}
	generated, err := parseGenerated(completion.Choices[0].Message.Content, topic, difficulty)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Str("difficulty", difficulty).Msg("question generation unparsable")
		return nil, fmt.Errorf("generate questions: %w: %v", game.ErrInsufficientQuestions, err)
	}
	if len(generated) < count {
		return nil, fmt.Errorf("generate questions: %w: model produced %d unique questions, need %d", game.ErrInsufficientQuestions, len(generated), count)
	}
	return generated[:count], nil
}

func buildPrompt(topic, difficulty string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d trivia questions about %q with %s difficulty.\n\n", count, topic, difficulty)
	b.WriteString("Required format (valid JSON):\n")
	b.WriteString(`{"questions": [{"id": "unique_id", "text": "Question here", "options": ["A", "B", "C", "D"], "correctAnswerIndex": 0, `)
	fmt.Fprintf(&b, `"category": %q, "difficulty": %q, "explanation": "Why the answer is correct"}]}`, topic, difficulty)
	b.WriteString("\n\nRequirements:\n- Interesting, educational questions\n- Exactly 4 answer options\n- A clear explanation of the correct answer\n")
	fmt.Fprintf(&b, "- Difficulty appropriate for %s\n- Topic: %s\n\nAnswer with the JSON only, no extra text.", difficulty, topic)
	return b.String()
}

type generatedQuestion struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Category           string   `json:"category"`
	Difficulty         string   `json:"difficulty"`
	Explanation        string   `json:"explanation"`
}

// parseGenerated decodes the model output and drops invalid questions and
// repeats of the same text.
func parseGenerated(content, topic, difficulty string) ([]game.Question, error) {
	raw, ok := extractJSON(content)
	if !ok {
		return nil, errors.New("no JSON object in model output")
	}
	var payload struct {
		Questions []generatedQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	seen := make(map[string]struct{}, len(payload.Questions))
	out := make([]game.Question, 0, len(payload.Questions))
	for _, item := range payload.Questions {
		key := strings.ToLower(strings.TrimSpace(item.Text))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		q := game.Question{
			Prompt:             strings.TrimSpace(item.Text),
			Options:            item.Options,
			CorrectOptionIndex: item.CorrectAnswerIndex,
			Explanation:        strings.TrimSpace(item.Explanation),
			Topic:              topic,
			Difficulty:         difficulty,
		}
		if !q.Valid() {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out, nil
}

// extractJSON strips markdown fences and surrounding chatter from a model reply.
func extractJSON(content string) (string, bool) {
	cleaned := strings.TrimSpace(content)
	if cleaned == "" {
		return "", false
	}
	lower := strings.ToLower(cleaned)
	switch {
	case strings.HasPrefix(lower, "```json"):
		cleaned = cleaned[len("```json"):]
	case strings.HasPrefix(cleaned, "```"):
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(cleaned), "```"))
	if !(strings.HasPrefix(cleaned, "{") && strings.HasSuffix(cleaned, "}")) {
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start == -1 || end <= start {
			return "", false
		}
		cleaned = cleaned[start : end+1]
	}
	return cleaned, true
}
