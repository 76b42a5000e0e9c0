// Package inference runs token-classification ONNX models through ONNX
// Runtime.
package inference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("inference: pool closed")

	// ErrSessionClosed is returned by Infer after Close.
	ErrSessionClosed = errors.New("inference: session closed")
)

var (
	ortEnvOnce sync.Once
	ortEnvErr  error
)

func initORT() error {
	ortEnvOnce.Do(func() {
		ortEnvErr = ort.InitializeEnvironment()
	})
	return ortEnvErr
}

// Spec names a model's graph inputs and its logits output. Inputs must be
// the token ids followed by the attention mask.
type Spec struct {
	Inputs []string
	Output string
}

// SaTSpec returns the graph names of wtpsplit/SaT sentence models.
func SaTSpec() Spec {
	return Spec{
		Inputs: []string{"input_ids", "attention_mask"},
		Output: "logits",
	}
}

// Session wraps one ONNX Runtime session. Infer calls are serialized.
type Session struct {
	session *ort.DynamicAdvancedSession
	mu      sync.Mutex
	closed  bool
}

// NewSession opens the model at modelPath.
func NewSession(modelPath string, spec Spec) (*Session, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}
	if len(spec.Inputs) != 2 || spec.Output == "" {
		return nil, fmt.Errorf("inference: spec needs two inputs and one output, got %d/%q", len(spec.Inputs), spec.Output)
	}

	if err := initORT(); err != nil {
		return nil, fmt.Errorf("initializing ONNX runtime: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer func() { _ = options.Destroy() }()

	session, err := ort.NewDynamicAdvancedSession(modelPath, spec.Inputs, []string{spec.Output}, options)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &Session{session: session}, nil
}

// Infer runs the model on one sequence and returns a logit per token.
func (s *Session) Infer(ctx context.Context, inputIDs, attentionMask []int64) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(inputIDs) != len(attentionMask) {
		return nil, fmt.Errorf("inference: %d ids but %d mask values", len(inputIDs), len(attentionMask))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.session == nil {
		return nil, ErrSessionClosed
	}

	seqLen := int64(len(inputIDs))
	shape := ort.NewShape(1, seqLen)

	ids, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("creating input_ids tensor: %w", err)
	}
	defer func() { _ = ids.Destroy() }()

	mask, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("creating attention_mask tensor: %w", err)
	}
	defer func() { _ = mask.Destroy() }()

	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{ids, mask}, outputs); err != nil {
		return nil, fmt.Errorf("running inference: %w", err)
	}
	if outputs[0] == nil {
		return nil, errors.New("inference: no output produced")
	}
	defer func() { _ = outputs[0].Destroy() }()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("inference: unexpected output type %T", outputs[0])
	}
	data := tensor.GetData()
	if int64(len(data)) < seqLen {
		return nil, fmt.Errorf("inference: %d logits for %d tokens", len(data), seqLen)
	}

	logits := make([]float32, seqLen)
	copy(logits, data[:seqLen])
	return logits, nil
}

// Close releases the ONNX session. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.session != nil {
		return s.session.Destroy()
	}
	return nil
}
