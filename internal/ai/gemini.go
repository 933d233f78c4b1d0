package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/omniflow/omniflow-backend/internal/logger"
	"github.com/omniflow/omniflow-backend/internal/utils"
)

type geminiInvoker struct {
	log        *logger.Logger
	client     *genai.Client
	model      string
	embedModel string
	recorder   Recorder
	timeout    time.Duration
	maxRetries int
}

// NewGeminiInvoker builds the production ModelInvoker on the Gemini API.
// The per-call deadline is enforced here so that no orchestrator can hang
// on an unbounded provider.
func NewGeminiInvoker(log *logger.Logger, recorder Recorder) (ModelInvoker, error) {
	invokerLog := log.With("service", "GeminiInvoker")
	apiKey := utils.GetEnv("GEMINI_API_KEY", "", log)
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	model := utils.GetEnv("GEMINI_MODEL", "gemini-2.0-flash", log)
	embedModel := utils.GetEnv("GEMINI_EMBED_MODEL", "gemini-embedding-001", log)
	timeoutSec := utils.GetEnvAsInt("MODEL_TIMEOUT_SECONDS", 30, log)
	maxRetries := utils.GetEnvAsInt("MODEL_MAX_RETRIES", 2, log)

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiInvoker{
		log:        invokerLog,
		client:     client,
		model:      model,
		embedModel: embedModel,
		recorder:   recorder,
		timeout:    time.Duration(timeoutSec) * time.Second,
		maxRetries: maxRetries,
	}, nil
}

func (g *geminiInvoker) GenerateJSON(ctx context.Context, req JSONRequest) (map[string]any, error) {
	if req.Schema == nil {
		return nil, fmt.Errorf("schema required for task %q", req.Task)
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(req.Schema),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	text, err := g.generate(ctx, req.Task, req.Prompt, contents, cfg)
	if err != nil {
		return nil, err
	}

	var obj map[string]any
	if uErr := json.Unmarshal([]byte(text), &obj); uErr != nil {
		g.record(ctx, req.Task, req.Prompt, text, false, "undecodable JSON")
		return nil, fmt.Errorf("%w: task %s: %v", ErrModelInvalid, req.Task, uErr)
	}
	if vErr := req.Schema.Validate(obj); vErr != nil {
		g.record(ctx, req.Task, req.Prompt, text, false, vErr.Error())
		return nil, fmt.Errorf("%w: task %s: %v", ErrModelInvalid, req.Task, vErr)
	}

	g.record(ctx, req.Task, req.Prompt, text, true, "")
	return obj, nil
}

func (g *geminiInvoker) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	contents := make([]*genai.Content, 0, len(req.Turns)+1)
	for _, turn := range req.Turns {
		role := genai.Role(genai.RoleUser)
		if turn.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}
	contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	text, err := g.generate(ctx, req.Task, req.Prompt, contents, cfg)
	if err != nil {
		return "", err
	}
	g.record(ctx, req.Task, req.Prompt, text, true, "")
	return text, nil
}

func (g *geminiInvoker) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := make([]*genai.Content, len(inputs))
	for i, text := range inputs {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}
	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, contents, &genai.EmbedContentConfig{
		TaskType: "RETRIEVAL_DOCUMENT",
	})
	if err != nil {
		return nil, g.classify(err)
	}
	if len(result.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrModelInvalid, len(inputs), len(result.Embeddings))
	}
	out := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}

func (g *geminiInvoker) generate(ctx context.Context, task, prompt string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var lastErr error
	backoff := time.Second
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if ctx.Err() != nil {
			break
		}
		resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
		if err != nil {
			lastErr = err
			if !isRetryable(err) {
				break
			}
			g.log.Warn("Gemini request retrying",
				"task", task,
				"attempt", attempt+1,
				"max_retries", g.maxRetries,
				"error", err.Error(),
			)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}
		text := strings.TrimSpace(resp.Text())
		if text == "" {
			g.record(ctx, task, prompt, "", false, "empty output")
			return "", fmt.Errorf("%w: task %s", ErrModelRefused, task)
		}
		return text, nil
	}

	classified := g.classify(lastErr)
	g.record(ctx, task, prompt, "", false, classified.Error())
	return "", classified
}

func (g *geminiInvoker) classify(err error) error {
	switch {
	case err == nil:
		return fmt.Errorf("%w: no response", ErrModelUnavailable)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrModelTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
}

func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "500") || strings.Contains(msg, "503")
}

func (g *geminiInvoker) record(ctx context.Context, task, prompt, response string, success bool, errMsg string) {
	if g.recorder == nil {
		return
	}
	g.recorder.RecordCall(ctx, CallRecord{
		Task:     task,
		Model:    g.model,
		Prompt:   prompt,
		Response: response,
		Success:  success,
		Error:    errMsg,
	})
}

func toGenaiSchema(s *Schema) *genai.Schema {
	out := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(s.Fields)),
	}
	for _, f := range s.Fields {
		out.Properties[f.Name] = toGenaiField(&f)
		if !f.Optional {
			out.Required = append(out.Required, f.Name)
		}
	}
	return out
}

func toGenaiField(f *Field) *genai.Schema {
	fs := &genai.Schema{Description: f.Description}
	switch f.Type {
	case TypeString:
		fs.Type = genai.TypeString
		fs.Enum = f.Enum
	case TypeNumber:
		fs.Type = genai.TypeNumber
		fs.Minimum = f.Min
		fs.Maximum = f.Max
	case TypeInteger:
		fs.Type = genai.TypeInteger
		fs.Minimum = f.Min
		fs.Maximum = f.Max
	case TypeBool:
		fs.Type = genai.TypeBoolean
	case TypeStringArray:
		fs.Type = genai.TypeArray
		fs.Items = &genai.Schema{Type: genai.TypeString}
	case TypeObjectArray:
		fs.Type = genai.TypeArray
		if f.Items != nil {
			fs.Items = toGenaiSchema(f.Items)
		}
	}
	return fs
}
