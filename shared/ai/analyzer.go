package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"video-annotator/internal/models"
	"video-annotator/shared/config"

	"google.golang.org/genai"
)

// ErrEmptyResponse means the model returned no text, which usually points
// to content filtering or an inaccessible video.
var ErrEmptyResponse = errors.New("empty analysis response")

// Request asks the analysis service to watch a video and answer a prompt.
// A nil Schema requests free text.
type Request struct {
	Video  *models.Video
	Prompt string
	Schema *genai.Schema
}

// Response carries the raw model output. Data may be JSON or prose.
type Response struct {
	Data string
}

type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Response, error)
}

type GeminiAnalyzer struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiAnalyzer(cfg *config.Config) (*GeminiAnalyzer, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.AI.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiAnalyzer{
		client:      client,
		model:       cfg.AI.Model,
		temperature: cfg.AI.Temperature,
	}, nil
}

func (a *GeminiAnalyzer) Analyze(ctx context.Context, req Request) (*Response, error) {
	if req.Video == nil {
		return nil, fmt.Errorf("video cannot be nil")
	}
	if req.Video.URL == "" {
		return nil, fmt.Errorf("video URL is required")
	}

	parts := []*genai.Part{
		genai.NewPartFromText(req.Prompt),
		genai.NewPartFromURI(req.Video.URL, "video/mp4"),
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(a.temperature),
	}
	if req.Schema != nil {
		genConfig.ResponseMIMEType = "application/json"
		genConfig.ResponseSchema = req.Schema
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model, contents, genConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze video %s: %w", req.Video.Key(), err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("video %s: %w", req.Video.Key(), ErrEmptyResponse)
	}

	return &Response{Data: text}, nil
}
