package llm

import (
	"context"

	"github.com/fyrsmithlabs/orchestrd/internal/conversation"
	"github.com/fyrsmithlabs/orchestrd/internal/logging"
)

// Client is what the supervisor and the tool-calling loop hold: it resolves
// the model for the calling role and routes every request through the
// retry wrapper.
type Client struct {
	backend Backend
	retryer *Retryer
	models  ModelSelector
	logger  *logging.Logger
}

// NewClient assembles a client from a backend, a retry policy and a model
// selector.
func NewClient(backend Backend, retryer *Retryer, models ModelSelector, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		backend: backend,
		retryer: retryer,
		models:  models,
		logger:  logger,
	}
}

// Complete resolves the model for role and performs a retried completion.
func (c *Client) Complete(ctx context.Context, role string, temperature float64, messages []conversation.Message, tools []ToolSpec) (*Response, error) {
	model, _ := c.models.Resolve(role)
	return c.retryer.Complete(ctx, c.backend, Request{
		Model:       model,
		Temperature: temperature,
		Messages:    messages,
		Tools:       tools,
	})
}

// Models exposes the selector, e.g. for the CLI model table.
func (c *Client) Models() ModelSelector { return c.models }
