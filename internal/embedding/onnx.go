//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/hybridvdb/pkg/utils"
)

// Tensor names of a BERT-style sentence-embedding export.
var (
	onnxInputNames = []string{"input_ids", "attention_mask", "token_type_ids"}
	onnxOutputName = "output"
)

// ONNXEmbedder runs a sentence-embedding model with ONNX Runtime. It needs
// CGO and the onnxruntime shared library. Runs are serialized since the
// bound tensors are reused.
type ONNXEmbedder struct {
	mu         sync.Mutex
	session    *ort.AdvancedSession
	inputs     []*ort.Tensor[int64]
	output     *ort.Tensor[float32]
	tokenizer  Tokenizer
	dimensions int
	maxTokens  int
}

// NewONNXEmbedder loads modelPath and binds fixed-shape input and output
// tensors of maxTokens and dimensions.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens int) (*ONNXEmbedder, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("onnx: dimensions must be positive, got %d", dimensions)
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if modelPath == "" {
		return nil, fmt.Errorf("onnx: model path is required")
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("onnx model: %w", err)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("onnx runtime init: %w", err)
		}
	}

	e := &ONNXEmbedder{
		tokenizer:  &SimpleTokenizer{},
		dimensions: dimensions,
		maxTokens:  maxTokens,
	}
	if err := e.bind(modelPath); err != nil {
		e.release()
		return nil, err
	}
	return e, nil
}

func (e *ONNXEmbedder) bind(modelPath string) error {
	shape := ort.NewShape(1, int64(e.maxTokens))
	bound := make([]ort.ArbitraryTensor, 0, len(onnxInputNames))
	for _, name := range onnxInputNames {
		t, err := ort.NewEmptyTensor[int64](shape)
		if err != nil {
			return fmt.Errorf("onnx tensor %s: %w", name, err)
		}
		e.inputs = append(e.inputs, t)
		bound = append(bound, t)
	}

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(e.dimensions)))
	if err != nil {
		return fmt.Errorf("onnx tensor %s: %w", onnxOutputName, err)
	}
	e.output = out

	session, err := ort.NewAdvancedSession(modelPath,
		onnxInputNames, []string{onnxOutputName},
		bound, []ort.ArbitraryTensor{out}, nil)
	if err != nil {
		return fmt.Errorf("onnx session %s: %w", modelPath, err)
	}
	e.session = session
	return nil
}

// Embed tokenizes text, runs the model and returns the unit-length output.
// An output that is not finite or not the configured width is an error.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, errEmbedderClosed
	}

	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)
	for i, data := range [][]int64{ids, mask, types} {
		copy(e.inputs[i].GetData(), data)
	}
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}

	vec := utils.CloneVector(e.output.GetData())
	if err := checkEmbedding(vec, e.dimensions); err != nil {
		return nil, err
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch embeds each text in turn.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

func (e *ONNXEmbedder) Dimensions() int { return e.dimensions }

// Close destroys the session and every bound tensor. It is safe to call twice.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.release()
}

func (e *ONNXEmbedder) release() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	for _, t := range e.inputs {
		_ = t.Destroy()
	}
	e.inputs = nil
	if e.output != nil {
		_ = e.output.Destroy()
		e.output = nil
	}
	return err
}
