package ai

import (
	"context"
)

// ImagePart is an optional inline image payload for vision-grounded calls.
type ImagePart struct {
	MIMEType string
	Data     []byte
}

type Turn struct {
	Role string // "user" or "model"
	Text string
}

// JSONRequest asks for a structured response satisfying Schema. Task names
// the call site for the audit log.
type JSONRequest struct {
	Task   string
	System string
	Prompt string
	Image  *ImagePart
	Schema *Schema
}

// TextRequest asks for free text, optionally continuing prior turns the
// caller supplies explicitly (orchestrators carry no session of their own).
type TextRequest struct {
	Task   string
	System string
	Turns  []Turn
	Prompt string
	Image  *ImagePart
}

// ModelInvoker is the schema-constrained boundary to the generative model.
// GenerateJSON returns an object already validated against req.Schema or an
// error wrapping ErrModel; it never returns a partial object. Every call is
// subject to the invoker's deadline.
type ModelInvoker interface {
	GenerateJSON(ctx context.Context, req JSONRequest) (map[string]any, error)
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// CallRecord is the audit entry appended for every model invocation.
type CallRecord struct {
	Task     string
	Model    string
	Prompt   string
	Response string
	Success  bool
	Error    string
}

// Recorder persists call records. Recording is best effort; failures must
// not affect the invocation result.
type Recorder interface {
	RecordCall(ctx context.Context, rec CallRecord)
}
