package brain

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ent0n29/gemchat/internal/chat"
)

// GeminiAdapter talks to the Gemini API through the Google Gen AI SDK.
type GeminiAdapter struct {
	client            *genai.Client
	model             string
	systemInstruction string
}

const defaultModel = "gemini-2.5-flash"

func NewGeminiAdapter(ctx context.Context, apiKey, model, systemInstruction string) (*GeminiAdapter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &GeminiAdapter{
		client:            client,
		model:             model,
		systemInstruction: systemInstruction,
	}, nil
}

func (a *GeminiAdapter) StreamMessage(ctx context.Context, history []chat.Message, parts []Part, onDelta DeltaHandler) (Reply, error) {
	contents := buildContents(history, parts)

	config := &genai.GenerateContentConfig{}
	if a.systemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: a.systemInstruction}},
		}
	}

	var out strings.Builder
	for resp, err := range a.client.Models.GenerateContentStream(ctx, a.model, contents, config) {
		if err != nil {
			return Reply{}, fmt.Errorf("gemini stream: %w", err)
		}
		delta := chunkText(resp)
		if delta == "" {
			continue
		}
		out.WriteString(delta)
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return Reply{}, err
			}
		}
	}

	return Reply{Text: out.String()}, nil
}

// buildContents replays the session history and appends the new turn. Roles
// map user->user and assistant->model.
func buildContents(history []chat.Message, parts []Part) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.RoleUser
		if m.Role == chat.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	turn := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if len(p.Data) > 0 {
			turn = append(turn, &genai.Part{
				InlineData: &genai.Blob{MIMEType: p.MIMEType, Data: p.Data},
			})
			continue
		}
		turn = append(turn, &genai.Part{Text: p.Text})
	}
	contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: turn})
	return contents
}

func chunkText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.Text != "" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
