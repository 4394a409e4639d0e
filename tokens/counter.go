package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/teilomillet/promptopt/utils"
)

const fallbackEncodingModel = "gpt-4o"

// Counter counts tokens with the tiktoken encoding for a model.
// Encodings are loaded lazily; if none can be loaded, Count uses Estimate.
type Counter struct {
	model    string
	logger   utils.Logger
	once     sync.Once
	encoding *tiktoken.Tiktoken
}

// NewCounter returns a counter for model. The encoding is resolved on first use.
func NewCounter(model string, logger utils.Logger) *Counter {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Counter{model: model, logger: logger}
}

func (c *Counter) load() {
	encoding, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		c.logger.Warn("Failed to get encoding for model, defaulting to gpt-4o", "model", c.model, "error", err)
		encoding, err = tiktoken.EncodingForModel(fallbackEncodingModel)
		if err != nil {
			c.logger.Warn("No tiktoken encoding available, using heuristic estimate", "error", err)
			return
		}
	}
	c.encoding = encoding
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	c.once.Do(c.load)
	if c.encoding == nil {
		return Estimate(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// Exact reports whether Count uses a real encoding rather than the heuristic.
func (c *Counter) Exact() bool {
	c.once.Do(c.load)
	return c.encoding != nil
}
