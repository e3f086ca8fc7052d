// Package onnx runs sentence-transformer style models locally through ONNX
// Runtime: a bi-encoder for embeddings and a cross-encoder for reranking.
package onnx

import (
	"fmt"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// Config locates a model exported to ONNX together with its tokenizer.json.
type Config struct {
	ModelID       string
	ModelPath     string
	TokenizerPath string
	SharedLibPath string
	MaxSeqLen     int
}

var envMu sync.Mutex

// ensureEnvironment initialises the process-wide ORT environment once.
func ensureEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("onnx init environment: %w", err)
	}
	return nil
}

// Shutdown releases the ORT environment. Models must be closed first.
func Shutdown() error {
	envMu.Lock()
	defer envMu.Unlock()
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

type session struct {
	ort        *ort.DynamicAdvancedSession
	tk         *tokenizer.Tokenizer
	inputNames []string
}

func openSession(cfg Config) (*session, error) {
	if err := ensureEnvironment(cfg.SharedLibPath); err != nil {
		return nil, err
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	if cfg.MaxSeqLen > 0 {
		tk.WithTruncation(&tokenizer.TruncationParams{
			MaxLength: cfg.MaxSeqLen,
			Strategy:  tokenizer.LongestFirst,
			Stride:    0,
		})
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx get input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("onnx model has no inputs or outputs")
	}
	inputNames := make([]string, len(inputs))
	for i := range inputs {
		inputNames[i] = inputs[i].Name
	}

	s, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, []string{outputs[0].Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("onnx new session: %w", err)
	}
	return &session{ort: s, tk: tk, inputNames: inputNames}, nil
}

// run feeds one tokenized sequence to the model and writes into output.
func (s *session) run(enc *tokenizer.Encoding, output ort.Value) error {
	n := len(enc.Ids)
	if n == 0 {
		return fmt.Errorf("onnx empty token sequence")
	}
	shape := ort.NewShape(1, int64(n))

	inputs := make([]ort.Value, 0, len(s.inputNames))
	defer func() {
		for _, v := range inputs {
			_ = v.Destroy()
		}
	}()
	for _, name := range s.inputNames {
		var data []int64
		switch name {
		case "input_ids":
			data = toInt64(enc.Ids, n)
		case "attention_mask":
			data = toInt64(enc.AttentionMask, n)
		case "token_type_ids":
			data = toInt64(enc.TypeIds, n)
		default:
			return fmt.Errorf("onnx unsupported model input %q", name)
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return fmt.Errorf("onnx new input tensor %s: %w", name, err)
		}
		inputs = append(inputs, t)
	}

	if err := s.ort.Run(inputs, []ort.Value{output}); err != nil {
		return fmt.Errorf("onnx run: %w", err)
	}
	return nil
}

func (s *session) close() error {
	if s == nil || s.ort == nil {
		return nil
	}
	return s.ort.Destroy()
}

// toInt64 widens ids to int64, zero-filling to n when src is short.
func toInt64(src []int, n int) []int64 {
	out := make([]int64, n)
	for i := 0; i < n && i < len(src); i++ {
		out[i] = int64(src[i])
	}
	return out
}
