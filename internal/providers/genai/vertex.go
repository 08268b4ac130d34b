package genai

import (
	"context"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
)

// VertexGemini implements Backend on top of Vertex AI Gemini.
type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, E(KindNotReady, "vertex client init failed", err)
	}

	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	return &VertexGemini{client: c, model: c.GenerativeModel(modelName)}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

type vertexChat struct {
	cs *vertexgenai.ChatSession
}

// StartChat seeds the chat history with the system instruction as the first
// user turn and the scenario greeting as the first model turn.
func (v *VertexGemini) StartChat(system, greeting string) (Chat, error) {
	cs := v.model.StartChat()
	cs.History = []*vertexgenai.Content{
		{
			Role:  "user",
			Parts: []vertexgenai.Part{vertexgenai.Text(system + "\n\nPlease start the conversation with a greeting.")},
		},
		{
			Role:  "model",
			Parts: []vertexgenai.Part{vertexgenai.Text(greeting)},
		},
	}
	return &vertexChat{cs: cs}, nil
}

func (c *vertexChat) Send(ctx context.Context, text string) (string, error) {
	resp, err := c.cs.SendMessage(ctx, vertexgenai.Text(text))
	if err != nil {
		return "", Classify(err)
	}
	out := responseText(resp)
	if out == "" {
		return "", E(KindUnknown, "empty response", nil)
	}
	return out, nil
}

func (v *VertexGemini) GenerateOnce(ctx context.Context, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return "", Classify(err)
	}
	out := responseText(resp)
	if out == "" {
		return "", E(KindUnknown, "empty response", nil)
	}
	return out, nil
}

func responseText(resp *vertexgenai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(b.String())
}
