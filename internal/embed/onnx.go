package embed

import (
	"context"
	"fmt"

	tokenizer "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"

	"clipindex/internal/acquire"
)

// ONNXConfig configures the local embedding provider.
type ONNXConfig struct {
	ModelPath      string // path to model.onnx
	TokenizerPath  string // path to tokenizer.json
	LibraryPath    string // onnxruntime shared library, empty for default
	Dimension      int
	MaxBatchTokens int // total token budget per inference batch
}

// ONNXModel embeds text with a local transformer through ONNX Runtime.
// CLS-token pooling over the last hidden state.
type ONNXModel struct {
	cfg     ONNXConfig
	tok     *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession
}

// NewONNXModel loads the tokenizer and model and opens a session.
func NewONNXModel(cfg ONNXConfig) (*ONNXModel, error) {
	if cfg.MaxBatchTokens <= 0 {
		cfg.MaxBatchTokens = 6000
	}

	tok, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer opts.Destroy()
	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("set graph optimization: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNXModel{cfg: cfg, tok: tok, session: session}, nil
}

// Dimension implements Client.
func (m *ONNXModel) Dimension() int { return m.cfg.Dimension }

// Tokenizer exposes the loaded tokenizer for token counting.
func (m *ONNXModel) Tokenizer() *tokenizer.Tokenizer { return m.tok }

// Embed implements Client, packing texts into batches under the token budget.
func (m *ONNXModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	counts := make([]int, len(texts))
	for i, t := range texts {
		counts[i] = CountTokens(m.tok, t)
	}

	out := make([][]float32, 0, len(texts))
	i := 0
	for i < len(texts) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Padded batch cost is batchSize * longest sequence; grow the batch
		// while that stays under budget.
		batchStart := i
		maxSeqLen := 0
		for i < len(texts) {
			seqLen := maxSeqLen
			if counts[i] > seqLen {
				seqLen = counts[i]
			}
			if i > batchStart && (i-batchStart+1)*seqLen > m.cfg.MaxBatchTokens {
				break
			}
			maxSeqLen = seqLen
			i++
		}

		vectors, err := m.embedBatch(texts[batchStart:i])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}

	if err := checkDimensions(out, m.cfg.Dimension); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *ONNXModel) embedBatch(texts []string) ([][]float32, error) {
	inputs := make([]tokenizer.EncodeInput, len(texts))
	for i, t := range texts {
		inputs[i] = tokenizer.NewSingleEncodeInput(tokenizer.NewInputSequence(t))
	}

	encodings, err := m.tok.EncodeBatch(inputs, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize batch: %w", err)
	}

	maxLen := 0
	for _, enc := range encodings {
		if l := len(enc.GetIds()); l > maxLen {
			maxLen = l
		}
	}
	batchSize := len(encodings)

	inputIDs := make([]int64, batchSize*maxLen)
	attentionMask := make([]int64, batchSize*maxLen)
	tokenTypeIDs := make([]int64, batchSize*maxLen)
	for i, enc := range encodings {
		ids := enc.GetIds()
		mask := enc.GetAttentionMask()
		offset := i * maxLen
		for j := 0; j < len(ids) && j < maxLen; j++ {
			inputIDs[offset+j] = int64(ids[j])
			attentionMask[offset+j] = int64(mask[j])
		}
	}

	shape := ort.NewShape(int64(batchSize), int64(maxLen))
	idsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()
	typeTensor, err := ort.NewTensor(shape, tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("create token_type_ids tensor: %w", err)
	}
	defer typeTensor.Destroy()

	outputs := make([]ort.Value, 1)
	if err := m.session.Run([]ort.Value{idsTensor, maskTensor, typeTensor}, outputs); err != nil {
		return nil, fmt.Errorf("run inference: %w", err)
	}
	defer outputs[0].Destroy()

	outTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("model output is not a float32 tensor")
	}

	outShape := outTensor.GetShape()
	if len(outShape) != 3 {
		return nil, fmt.Errorf("unexpected output rank %d", len(outShape))
	}
	seqLen := outShape[1]
	hiddenDim := outShape[2]
	data := outTensor.GetData()

	// CLS pooling: first token of each sequence. Copy out before the tensor
	// is destroyed.
	vectors := make([][]float32, outShape[0])
	for i := range vectors {
		start := int64(i) * seqLen * hiddenDim
		vectors[i] = make([]float32, hiddenDim)
		copy(vectors[i], data[start:start+hiddenDim])
	}

	if int64(m.cfg.Dimension) != hiddenDim {
		return nil, acquire.NewError(acquire.KindDimensionMismatch,
			fmt.Sprintf("model produces %d-dimensional vectors, configured dimension is %d",
				hiddenDim, m.cfg.Dimension))
	}
	return vectors, nil
}

// Close releases the session and runtime environment.
func (m *ONNXModel) Close() error {
	if m.session != nil {
		m.session.Destroy()
	}
	ort.DestroyEnvironment()
	return nil
}
