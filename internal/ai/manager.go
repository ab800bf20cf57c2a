package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/recapd/recapd/internal/model"
)

type ManagerConfig struct {
	Timeout time.Duration
}

// Manager owns the generation side of the pipeline: it renders the QA
// prompt around the formatted meeting context and decodes the model's
// reply into the tagged answer variant.
type Manager struct {
	answerer IGenerator
	cfg      ManagerConfig
}

func NewManager(answerer IGenerator, cfg ManagerConfig) *Manager {
	return &Manager{answerer: answerer, cfg: cfg}
}

func (m *Manager) Answer(ctx context.Context, question string, meetingContext string) (model.Answer, error) {
	if m.answerer == nil {
		return model.Answer{}, fmt.Errorf("generator not configured")
	}
	prompt := fmt.Sprintf(`You are an assistant answering questions about meeting transcripts.
Use ONLY the meeting content below. If the content does not contain the answer, say so.
Respond with a single JSON object and nothing else:
{"answer": "...", "confidence": "high|medium|low", "sources_used": ["..."], "follow_up_questions": ["..."]}

MEETING CONTENT:
%s

QUESTION:
%s`, meetingContext, question)

	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}
	resp, err := m.answerer.Generate(ctx, prompt)
	if err != nil {
		return model.Answer{}, err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return model.Answer{}, fmt.Errorf("empty ai response")
	}
	return ParseAnswer(text), nil
}

// ParseAnswer attempts the structured shape first and degrades to a plain
// text answer when the reply is not the expected JSON object.
func ParseAnswer(raw string) model.Answer {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start >= 0 && end > start {
		var structured model.StructuredAnswer
		if err := json.Unmarshal([]byte(clean[start:end+1]), &structured); err == nil && structured.Answer != "" {
			switch structured.Confidence {
			case model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow:
			default:
				structured.Confidence = model.ConfidenceLow
			}
			return model.Answer{Text: structured.Answer, Structured: &structured}
		}
	}
	return model.PlainAnswer(raw)
}
