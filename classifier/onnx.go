package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/safetyserv/safetyserv/metrics"
	ort "github.com/yalue/onnxruntime_go"
	"gopkg.in/yaml.v3"
)

const OnnxBackendName = "onnx"

const defaultSeqLen = 512

// BundleMeta - the contents of a bundle's labels.yaml.
type BundleMeta struct {
	Labels       []string `yaml:"labels"`
	SeqLen       int      `yaml:"seq_len"`
	InputIDsName string   `yaml:"input_ids_name"`
	MaskName     string   `yaml:"attention_mask_name"`
	OutputName   string   `yaml:"output_name"`
}

// OnnxBackend - a local sequence classifier exported to ONNX. A bundle directory contains:
//
//	model.onnx
//	labels.yaml
//	tokenizer/vocab.txt
type OnnxBackend struct {
	session   *ort.AdvancedSession
	tokenizer *WordPieceTokenizer
	meta      *BundleMeta

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	output        *ort.Tensor[float32]

	mu sync.Mutex
}

// LoadOnnxBackend - validates the bundle, initializes the onnxruntime environment and creates a session.
// libraryPath may be empty, in which case the ONNXRUNTIME_SHARED_LIBRARY_PATH environment variable and a
// few well-known locations are probed.
func LoadOnnxBackend(bundleDir string, libraryPath string) (*OnnxBackend, error) {
	if strings.TrimSpace(bundleDir) == "" {
		return nil, errors.New("bundle dir is empty")
	}

	modelPath := filepath.Join(bundleDir, "model.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}
	meta, err := LoadBundleMeta(filepath.Join(bundleDir, "labels.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	tokenizer, err := LoadWordPieceTokenizer(filepath.Join(bundleDir, "tokenizer", "vocab.txt"))
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	if libraryPath == "" {
		libraryPath = resolveSharedLibraryPath(bundleDir)
	}
	if libraryPath == "" {
		return nil, errors.New("onnxruntime shared library not found; set SS_ONNX_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libraryPath)
	if !ort.IsInitialized() {
		if err = ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	inputShape := ort.NewShape(1, int64(meta.SeqLen))
	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	attnMask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		_ = inputIDs.Destroy()
		return nil, fmt.Errorf("allocate attention_mask tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(meta.Labels))))
	if err != nil {
		_ = inputIDs.Destroy()
		_ = attnMask.Destroy()
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{meta.InputIDsName, meta.MaskName},
		[]string{meta.OutputName},
		[]ort.Value{inputIDs, attnMask},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		_ = inputIDs.Destroy()
		_ = attnMask.Destroy()
		_ = output.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &OnnxBackend{
		session:       session,
		tokenizer:     tokenizer,
		meta:          meta,
		inputIDs:      inputIDs,
		attentionMask: attnMask,
		output:        output,
	}, nil
}

func (b *OnnxBackend) Name() string {
	return OnnxBackendName
}

func (b *OnnxBackend) Classify(ctx context.Context, text string, maxLength int) ([]float64, error) {
	if b == nil || b.session == nil {
		return nil, errors.New("onnx backend not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := metrics.StartBackendTimer(OnnxBackendName)
	defer t.ObserveDuration()

	ids, attn := b.tokenizer.Encode(text, maxLength, b.meta.SeqLen)

	// The tensors are shared, so only one inference runs at a time.
	b.mu.Lock()
	defer b.mu.Unlock()

	copy(b.inputIDs.GetData(), ids)
	copy(b.attentionMask.GetData(), attn)
	if err := b.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}
	return Softmax(b.output.GetData()), nil
}

func (b *OnnxBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return errors.Join(
		b.session.Destroy(),
		b.inputIDs.Destroy(),
		b.attentionMask.Destroy(),
		b.output.Destroy(),
	)
}

// Softmax - numerically stable softmax over raw logits.
func Softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := float64(logits[0])
	for _, l := range logits[1:] {
		maxLogit = math.Max(maxLogit, float64(l))
	}
	out := make([]float64, len(logits))
	sum := 0.0
	for i, l := range logits {
		out[i] = math.Exp(float64(l) - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func LoadBundleMeta(path string) (*BundleMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	meta := &BundleMeta{}
	if err = yaml.Unmarshal(data, meta); err != nil {
		return nil, err
	}
	if len(meta.Labels) < 2 {
		return nil, fmt.Errorf("expected at least 2 labels, got %d", len(meta.Labels))
	}
	if meta.SeqLen <= 0 {
		meta.SeqLen = defaultSeqLen
	}
	if meta.InputIDsName == "" {
		meta.InputIDsName = "input_ids"
	}
	if meta.MaskName == "" {
		meta.MaskName = "attention_mask"
	}
	if meta.OutputName == "" {
		meta.OutputName = "logits"
	}
	return meta, nil
}

// resolveSharedLibraryPath - ONNXRUNTIME_SHARED_LIBRARY_PATH wins; otherwise common names are probed in
// the bundle directory and the usual system library directories.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.so",
		"libonnxruntime.dylib",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		"/usr/local/lib",
		"/usr/lib",
		"/opt/homebrew/lib",
	}
	for _, dir := range dirs {
		for _, name := range names {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}
