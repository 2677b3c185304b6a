package ai

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkordes/trip-planner/internal/httpclient"
	"github.com/pkordes/trip-planner/internal/prompt"
)

var errEmptyAnswer = errors.New("empty answer")

func baseURL(override, def string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	return def
}

// ---- Gemini ----------------------------------------------------------------

type gemini struct {
	client   *httpclient.Client
	baseURL  string
	apiKey   string
	model    string
	template string
}

func newGemini(cfg Config, tmpl string, c *httpclient.Client) *gemini {
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &gemini{client: c, baseURL: baseURL(cfg.BaseURL, "https://generativelanguage.googleapis.com"), apiKey: cfg.APIKey, model: model, template: tmpl}
}

func (g *gemini) Name() string { return ProviderGemini }

func (g *gemini) Prepare(c prompt.Context) (string, error) {
	return prompt.Build(g.template, c), nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiRequest struct {
	Contents []struct {
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *gemini) Ask(ctx context.Context, p string) (string, error) {
	var req geminiRequest
	req.Contents = make([]struct {
		Parts []geminiPart `json:"parts"`
	}, 1)
	req.Contents[0].Parts = []geminiPart{{Text: p}}

	endpoint := g.baseURL + "/v1beta/models/" + url.PathEscape(g.model) + ":generateContent?key=" + url.QueryEscape(g.apiKey)
	var res geminiResponse
	if err := g.client.PostJSON(ctx, endpoint, nil, req, &res); err != nil {
		return "", providerErr("gemini.Ask", err)
	}
	var b strings.Builder
	if len(res.Candidates) > 0 {
		for _, part := range res.Candidates[0].Content.Parts {
			b.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", providerErr("gemini.Ask", errEmptyAnswer)
	}
	return b.String(), nil
}

// ---- OpenAI ----------------------------------------------------------------

type openAI struct {
	client   *httpclient.Client
	baseURL  string
	apiKey   string
	model    string
	template string
}

func newOpenAI(cfg Config, tmpl string, c *httpclient.Client) *openAI {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &openAI{client: c, baseURL: baseURL(cfg.BaseURL, "https://api.openai.com"), apiKey: cfg.APIKey, model: model, template: tmpl}
}

func (o *openAI) Name() string { return ProviderOpenAI }

func (o *openAI) Prepare(c prompt.Context) (string, error) {
	return prompt.Build(o.template, c), nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (o *openAI) Ask(ctx context.Context, p string) (string, error) {
	req := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You plan trips and answer only with JSON."},
			{Role: "user", Content: p},
		},
	}
	header := http.Header{"Authorization": {"Bearer " + o.apiKey}}
	var res chatResponse
	if err := o.client.PostJSON(ctx, o.baseURL+"/v1/chat/completions", header, req, &res); err != nil {
		return "", providerErr("openai.Ask", err)
	}
	if len(res.Choices) == 0 || strings.TrimSpace(res.Choices[0].Message.Content) == "" {
		return "", providerErr("openai.Ask", errEmptyAnswer)
	}
	return res.Choices[0].Message.Content, nil
}

// ---- Hugging Face ----------------------------------------------------------

type huggingFace struct {
	client   *httpclient.Client
	baseURL  string
	apiKey   string
	model    string
	template string
}

func newHuggingFace(cfg Config, tmpl string, c *httpclient.Client) *huggingFace {
	model := cfg.Model
	if model == "" {
		model = "mistralai/Mistral-7B-Instruct-v0.3"
	}
	return &huggingFace{client: c, baseURL: baseURL(cfg.BaseURL, "https://api-inference.huggingface.co"), apiKey: cfg.APIKey, model: model, template: tmpl}
}

func (h *huggingFace) Name() string { return ProviderHuggingFace }

// Prepare wraps the prompt in the instruction markers instruct models expect.
func (h *huggingFace) Prepare(c prompt.Context) (string, error) {
	return "[INST] " + strings.TrimSpace(prompt.Build(h.template, c)) + " [/INST]", nil
}

type hfRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		MaxNewTokens   int  `json:"max_new_tokens"`
		ReturnFullText bool `json:"return_full_text"`
	} `json:"parameters"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

func (h *huggingFace) Ask(ctx context.Context, p string) (string, error) {
	var req hfRequest
	req.Inputs = p
	req.Parameters.MaxNewTokens = 2048

	header := http.Header{"Authorization": {"Bearer " + h.apiKey}}
	var res []hfGeneration
	if err := h.client.PostJSON(ctx, h.baseURL+"/models/"+h.model, header, req, &res); err != nil {
		return "", providerErr("huggingface.Ask", err)
	}
	if len(res) == 0 || strings.TrimSpace(res[0].GeneratedText) == "" {
		return "", providerErr("huggingface.Ask", errEmptyAnswer)
	}
	return res[0].GeneratedText, nil
}
