package scorer

import (
	"fmt"
	"path/filepath"
	"sync"

	"fortio.org/safecast"
	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// onnxSession wraps a DynamicAdvancedSession for classification models with
// a single tensor input and a [batch, numClasses] logits output.
type onnxSession struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	sampleDims []int64 // input dims without the batch dimension
	sampleSize int     // product of sampleDims
	numClasses int
}

// newONNXSession loads the ONNX model and creates an inference session.
// It validates the model's input/output tensor shapes.
func newONNXSession(modelPath string) (*onnxSession, error) {
	// Resolve the ONNX Runtime shared library path. We ship it alongside
	// the model file in the models/ directory.
	modelDir := filepath.Dir(modelPath)
	libPath := filepath.Join(modelDir, "libonnxruntime.so")

	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	// Inspect the model to discover tensor names and shapes.
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}

	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: expected a single input tensor, model has %d", len(inputs))
	}
	inDims := inputs[0].Dimensions
	if len(inDims) < 2 {
		return nil, fmt.Errorf("onnx: expected input of shape [batch, ...], got %v", inDims)
	}

	// Leading dimension is the batch; the rest must be concrete.
	sampleDims := make([]int64, len(inDims)-1)
	copy(sampleDims, inDims[1:])
	sampleSize := 1
	for _, d := range sampleDims {
		if d <= 0 {
			return nil, fmt.Errorf("onnx: dynamic non-batch input dimension in %v", inDims)
		}
		n, err := safecast.Conv[int](d)
		if err != nil {
			return nil, fmt.Errorf("onnx: input dimension %d: %w", d, err)
		}
		sampleSize *= n
	}

	// Validate output — a single [batch, numClasses] logits tensor.
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has no outputs")
	}
	outDims := outputs[0].Dimensions
	if len(outDims) != 2 {
		return nil, fmt.Errorf("onnx: expected 2D logits output, got %v", outDims)
	}
	if outDims[1] <= 0 {
		return nil, fmt.Errorf("onnx: dynamic class dimension in output %v", outDims)
	}
	numClasses, err := safecast.Conv[int](outDims[1])
	if err != nil {
		return nil, fmt.Errorf("onnx: class count %d: %w", outDims[1], err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &onnxSession{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		sampleDims: sampleDims,
		sampleSize: sampleSize,
		numClasses: numClasses,
	}, nil
}

// infer runs a single inference call. input is a flat
// [batchSize * sampleSize] slice. Returns the raw logits as a flat
// [batchSize * numClasses] float32 slice.
func (s *onnxSession) infer(input []float32, batchSize int64) ([]float32, error) {
	inShape := ort.NewShape(append([]int64{batchSize}, s.sampleDims...)...)
	tIn, err := ort.NewTensor(inShape, input)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer tIn.Destroy()

	nClasses, err := safecast.Conv[int64](s.numClasses)
	if err != nil {
		return nil, fmt.Errorf("onnx: class count: %w", err)
	}
	outShape := ort.NewShape(batchSize, nClasses)
	tOut, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	err = s.session.Run(
		[]ort.Value{tIn},
		[]ort.Value{tOut},
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	// Copy data out before the tensor is destroyed.
	src := tOut.GetData()
	result := make([]float32, len(src))
	copy(result, src)
	return result, nil
}

// close releases the ONNX session resources.
func (s *onnxSession) close() error {
	return s.session.Destroy()
}
