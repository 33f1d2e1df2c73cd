// Package inference - ONNX Runtime backed object detection.
package inference

import (
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// ExecutionProvider selects the ONNX Runtime execution provider.
type ExecutionProvider string

const (
	ProviderCPU      ExecutionProvider = "cpu"
	ProviderCoreML   ExecutionProvider = "coreml"
	ProviderOpenVINO ExecutionProvider = "openvino"
	ProviderCUDA     ExecutionProvider = "cuda"
)

// runner executes the model on one prepared input.
type runner interface {
	// Input returns the input tensor data to fill before Run.
	Input() []float32
	// Run executes the model and returns the output tensor data.
	Run() ([]float32, error)
	Close() error
}

// SessionConfig describes the model and runtime to load.
type SessionConfig struct {
	ModelPath     string
	SharedLibrary string
	Provider      ExecutionProvider
	InputSize     int
	Classes       int
}

var envOnce sync.Once
var envErr error

// initEnvironment initializes the ONNX Runtime environment once per process.
func initEnvironment(libPath string) error {
	envOnce.Do(func() {
		if libPath != "" {
			if _, err := os.Stat(libPath); err != nil {
				envErr = errors.Wrapf(err, "ONNX Runtime library not found at %s", libPath)
				return
			}
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = errors.Wrap(err, "error initializing ORT environment")
		}
	})
	return envErr
}

// Session is a model session from the onnxruntime with preallocated tensors.
type Session struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewSession creates an ONNX Runtime session for a YOLOv8 style model with a
// single "images" input and a single "output0" output.
//
// Arguments:
//   - cfg: The model, runtime library and tensor sizes.
//
// Returns:
//   - *Session: The session, owning its tensors.
//   - error: An error if the runtime or the model cannot be loaded.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := initEnvironment(cfg.SharedLibrary); err != nil {
		return nil, err
	}

	size := int64(cfg.InputSize)
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}

	outputTensor, err := ort.NewEmptyTensor[float32](
		ort.NewShape(1, int64(4+cfg.Classes), int64(AnchorCount(cfg.InputSize))),
	)
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.Wrap(err, "error creating output tensor")
	}

	options, err := sessionOptions(cfg.Provider)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrap(err, "error creating ORT session")
	}

	return &Session{session: session, input: inputTensor, output: outputTensor}, nil
}

func sessionOptions(provider ExecutionProvider) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "error creating ORT session options")
	}

	// Zero lets the runtime pick thread counts.
	_ = options.SetIntraOpNumThreads(0)
	_ = options.SetInterOpNumThreads(0)
	_ = options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	switch ExecutionProvider(strings.ToLower(string(provider))) {
	case "", ProviderCPU:
	case ProviderCoreML:
		err = options.AppendExecutionProviderCoreML(0)
	case ProviderOpenVINO:
		err = options.AppendExecutionProviderOpenVINO(map[string]string{
			"device_type": "CPU",
			"precision":   "FP32",
		})
	case ProviderCUDA:
		var cuda *ort.CUDAProviderOptions
		cuda, err = ort.NewCUDAProviderOptions()
		if err == nil {
			defer cuda.Destroy()
			err = options.AppendExecutionProviderCUDA(cuda)
		}
	default:
		err = errors.Errorf("unknown execution provider %q", provider)
	}
	if err != nil {
		options.Destroy()
		return nil, errors.Wrapf(err, "error enabling %s", provider)
	}
	return options, nil
}

// Input implements runner.
func (s *Session) Input() []float32 {
	return s.input.GetData()
}

// Run implements runner.
func (s *Session) Run() ([]float32, error) {
	if err := s.session.Run(); err != nil {
		return nil, errors.Wrap(err, "failed to run inference")
	}
	return s.output.GetData(), nil
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	var err error
	if s.session != nil {
		err = s.session.Destroy()
		s.session = nil
	}
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	return err
}
