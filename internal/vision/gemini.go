package vision

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/mj1618/focusorder/internal/protocol"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

const systemInstruction = "You return strict JSON describing focus order. You never invent node ids."

// GeminiConfig configures a GeminiModel.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	// RPS limits outbound calls; zero disables the limiter.
	RPS   float64
	Burst int
}

// GeminiModel is a Model backed by the Gemini API.
type GeminiModel struct {
	client      *genai.Client
	model       string
	temperature float32
	limiter     *rate.Limiter
	logger      *zap.Logger
}

var _ Model = (*GeminiModel)(nil)

// NewGemini creates a Gemini client. It returns ErrNoCredential when
// cfg.APIKey is empty.
func NewGemini(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiModel, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoCredential
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g := &GeminiModel{
		client:      cli,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.Named("gemini"),
	}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return g, nil
}

func (g *GeminiModel) Name() string { return "gemini:" + g.model }

// Annotate sends the rendered prompt, and the image when present, and
// parses the JSON reply.
func (g *GeminiModel) Annotate(ctx context.Context, in Input) (protocol.ModelOutput, error) {
	prompt, err := RenderPrompt(in)
	if err != nil {
		return protocol.ModelOutput{}, err
	}
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if in.Image != nil && len(in.Image.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(in.Image.Data, in.Image.MIME))
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return protocol.ModelOutput{}, fmt.Errorf("wait for model rate limit: %w", err)
		}
	}

	temp := g.temperature
	g.logger.Debug("model request",
		zap.String("model", g.model),
		zap.Int("prompt_bytes", len(prompt)),
		zap.Bool("image", len(parts) > 1),
	)
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType:  "application/json",
			Temperature:       &temp,
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		},
	)
	if err != nil {
		return protocol.ModelOutput{}, fmt.Errorf("generate content: %w", err)
	}
	return ParseOutput(resp.Text())
}
