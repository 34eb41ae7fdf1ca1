// model.go: optional TensorFlow Lite embedding backend
//
// The deterministic encoder is the default; the model backend exists for
// experiments with learned embeddings. It is an explicitly owned singleton
// behind the Encoder interface: the first caller loads the interpreter and
// concurrent load requests are coalesced into that single load.
package extractor

import (
	"context"
	"fmt"
	"image"
	"os"
	"runtime"
	"sync"
	"time"

	tflite "github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates/xnnpack"
	"golang.org/x/sync/singleflight"

	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/errors"
)

// Model wraps a TFLite embedding interpreter. Invocations are serialized;
// the interpreter is not safe for concurrent Invoke calls.
type Model struct {
	interpreter *tflite.Interpreter
	model       *tflite.Model
	modelPath   string
	inputSize   int
	mu          sync.Mutex
}

var (
	modelInstance *Model
	loadGroup     singleflight.Group
)

// LoadModel returns the shared model instance, loading it on first use.
// Concurrent callers share a single in-flight load. Callers that need a
// private instance with different settings use NewModel directly.
func LoadModel(settings *conf.ModelSettings) (*Model, error) {
	v, err, _ := loadGroup.Do("embedding-model", func() (any, error) {
		if modelInstance != nil {
			return modelInstance, nil
		}
		m, err := NewModel(settings)
		if err != nil {
			return nil, err
		}
		modelInstance = m
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

// NewModel loads a fresh interpreter instance from the configured model file.
func NewModel(settings *conf.ModelSettings) (*Model, error) {
	start := time.Now()

	modelData, err := os.ReadFile(settings.ModelPath)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to read model file: %w", err)).
			Component("extractor").
			Category(errors.CategoryModelLoad).
			Context("model_path", settings.ModelPath).
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return nil, errors.Newf("cannot load TensorFlow Lite model from %s", settings.ModelPath).
			Component("extractor").
			Category(errors.CategoryModelInit).
			Context("model_size_mb", len(modelData)/1024/1024).
			Build()
	}

	threads := settings.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	options := tflite.NewInterpreterOptions()
	defer options.Delete()

	if settings.UseXNNPACK {
		delegate := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))})
		if delegate == nil {
			getLogger().Warn("failed to create XNNPACK delegate, falling back to default CPU")
			options.SetNumThread(threads)
		} else {
			options.AddDelegate(delegate)
			options.SetNumThread(1)
		}
	} else {
		options.SetNumThread(threads)
	}

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		model.Delete()
		return nil, errors.Newf("cannot create TensorFlow Lite interpreter").
			Component("extractor").
			Category(errors.CategoryModelInit).
			Build()
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		model.Delete()
		return nil, errors.Newf("tensor allocation failed").
			Component("extractor").
			Category(errors.CategoryModelInit).
			Build()
	}

	input := interpreter.GetInputTensor(0)
	dims := input.NumDims()
	inputSize := 224
	if dims >= 3 {
		inputSize = input.Dim(1)
	}

	getLogger().Info("embedding model loaded",
		"model_path", settings.ModelPath,
		"input_size", inputSize,
		"threads", threads,
		"duration_ms", time.Since(start).Milliseconds())

	return &Model{
		interpreter: interpreter,
		model:       model,
		modelPath:   settings.ModelPath,
		inputSize:   inputSize,
	}, nil
}

// ID identifies the encoder for cache keys and diagnostics.
func (m *Model) ID() string {
	return "tflite:" + m.modelPath
}

// Embed runs the model on a canonical image and returns the L2-normalized
// output vector, truncated or zero-padded to Dim values.
func (m *Model) Embed(ctx context.Context, img *image.RGBA) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.New(err).
			Component("extractor").
			Category(errors.CategoryCancellation).
			Build()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w != m.inputSize || h != m.inputSize {
		return nil, errors.Newf("model expects %dx%d input, got %dx%d", m.inputSize, m.inputSize, w, h).
			Component("extractor").
			Category(errors.CategoryExtraction).
			Build()
	}

	input := m.interpreter.GetInputTensor(0).Float32s()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			o := (y*w + x) * 3
			input[o] = float32(img.Pix[i]) / 255
			input[o+1] = float32(img.Pix[i+1]) / 255
			input[o+2] = float32(img.Pix[i+2]) / 255
		}
	}

	if status := m.interpreter.Invoke(); status != tflite.OK {
		return nil, errors.Newf("model invoke failed").
			Component("extractor").
			Category(errors.CategoryExtraction).
			Build()
	}

	output := m.interpreter.GetOutputTensor(0).Float32s()
	vec := make([]float32, Dim)
	copy(vec, output)
	return Normalize(vec), nil
}

// Close releases the interpreter and model resources.
func (m *Model) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.interpreter != nil {
		m.interpreter.Delete()
		m.interpreter = nil
	}
	if m.model != nil {
		m.model.Delete()
		m.model = nil
	}
}
