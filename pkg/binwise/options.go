package binwise

type options struct {
	modelPath string
	bins      int
	batchSize int
	workers   int
}

// Option configures a Binwise instance.
type Option func(*options)

// WithModelPath sets the ONNX classifier used by Fit. Not needed when
// fitting from pre-computed scores or loading a saved table.
func WithModelPath(path string) Option {
	return func(o *options) {
		o.modelPath = path
	}
}

// WithBins sets the number of confidence bins. More bins resolve the mapping
// more finely but leave fewer validation samples per bin. Default: 15.
func WithBins(n int) Option {
	return func(o *options) {
		o.bins = n
	}
}

// WithBatchSize sets how many samples go to the scorer per inference call.
// Default: 256.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithWorkers caps the goroutines calibrating batches during evaluation.
// Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func defaultOptions() options {
	return options{
		bins:      15,
		batchSize: 256,
	}
}
