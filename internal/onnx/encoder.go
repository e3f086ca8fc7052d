package onnx

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// SentenceEncoder embeds text with a MiniLM-style bi-encoder: mean pooling
// over the attention mask followed by L2 normalisation.
type SentenceEncoder struct {
	mu sync.Mutex

	cfg       Config
	dimension int

	sess   *session
	inited bool
}

// NewSentenceEncoder creates an encoder that loads the model on first use.
func NewSentenceEncoder(cfg Config, dimension int) *SentenceEncoder {
	if cfg.ModelID == "" {
		cfg.ModelID = filepath.Base(filepath.Dir(cfg.ModelPath))
	}
	return &SentenceEncoder{cfg: cfg, dimension: dimension}
}

func (e *SentenceEncoder) initOnce() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inited {
		return nil
	}
	if e.dimension <= 0 {
		return fmt.Errorf("sentence encoder dimension must be positive")
	}
	sess, err := openSession(e.cfg)
	if err != nil {
		return err
	}
	e.sess = sess
	e.inited = true
	return nil
}

func (e *SentenceEncoder) Embed(_ context.Context, text string) ([]float32, error) {
	if err := e.initOnce(); err != nil {
		return nil, err
	}

	enc, err := e.sess.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	n := len(enc.Ids)

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(n), int64(e.dimension)))
	if err != nil {
		return nil, fmt.Errorf("onnx new output tensor: %w", err)
	}
	defer output.Destroy()

	e.mu.Lock()
	err = e.sess.run(enc, output)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	vec := meanPool(output.GetData(), enc.AttentionMask, n, e.dimension)
	l2Normalize(vec)
	return vec, nil
}

func (e *SentenceEncoder) ModelID() string {
	return e.cfg.ModelID
}

func (e *SentenceEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.sess.close()
	e.sess = nil
	e.inited = false
	return err
}

// meanPool averages token vectors of a [1, n, dim] hidden state, counting
// only positions whose mask is non-zero.
func meanPool(hidden []float32, mask []int, n, dim int) []float32 {
	out := make([]float32, dim)
	var count float32
	for t := 0; t < n; t++ {
		if t < len(mask) && mask[t] == 0 {
			continue
		}
		row := hidden[t*dim : (t+1)*dim]
		for i, v := range row {
			out[i] += v
		}
		count++
	}
	if count == 0 {
		return out
	}
	for i := range out {
		out[i] /= count
	}
	return out
}

func l2Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
