package onnx

import (
	"context"
	"fmt"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// CrossEncoder scores (query, passage) pairs with an ms-marco style model
// that emits a single relevance logit. Scores are squashed with a sigmoid.
type CrossEncoder struct {
	mu sync.Mutex

	cfg    Config
	sess   *session
	output *ort.Tensor[float32]
	inited bool
}

// NewCrossEncoder creates a reranker that loads the model on first use.
func NewCrossEncoder(cfg Config) *CrossEncoder {
	return &CrossEncoder{cfg: cfg}
}

func (c *CrossEncoder) initOnce() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inited {
		return nil
	}
	sess, err := openSession(c.cfg)
	if err != nil {
		return err
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		_ = sess.close()
		return fmt.Errorf("onnx new output tensor: %w", err)
	}
	c.sess = sess
	c.output = output
	c.inited = true
	return nil
}

func (c *CrossEncoder) Score(_ context.Context, query, candidate string) (float32, error) {
	if err := c.initOnce(); err != nil {
		return 0, err
	}

	enc, err := c.sess.tk.EncodePair(query, candidate, true)
	if err != nil {
		return 0, fmt.Errorf("tokenize pair: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sess.run(enc, c.output); err != nil {
		return 0, err
	}
	logits := c.output.GetData()
	if len(logits) == 0 {
		return 0, fmt.Errorf("onnx empty logits")
	}
	return sigmoid(logits[0]), nil
}

func (c *CrossEncoder) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.output != nil {
		_ = c.output.Destroy()
		c.output = nil
	}
	err := c.sess.close()
	c.sess = nil
	c.inited = false
	return err
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}
