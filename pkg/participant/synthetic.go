package participant

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/roundconfig"
)

var _ Client = (*SyntheticClient)(nil)

type SyntheticConfig struct {
	Features        int     `toml:"features"`
	Samples         int     `toml:"samples"`
	ValidationSplit float64 `toml:"validation_split"`
	Noise           float64 `toml:"noise"`
	LearningRate    float64 `toml:"learning_rate"`
	// TaskSeed fixes the ground truth shared by every participant of a run;
	// DataSeed fixes this participant's private samples.
	TaskSeed uint64 `toml:"task_seed"`
	DataSeed uint64 `toml:"data_seed"`
}

func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Features:        4,
		Samples:         256,
		ValidationSplit: 0.2,
		Noise:           0.1,
		LearningRate:    0.05,
		TaskSeed:        10,
		DataSeed:        1,
	}
}

type sample struct {
	x []float64
	y float64
}

// SyntheticClient learns a linear regression over seeded private data. The
// model is a weight vector of shape [features] followed by a bias of shape [1].
type SyntheticClient struct {
	cfg   SyntheticConfig
	train []sample
	val   []sample
}

func NewSyntheticClient(cfg SyntheticConfig) (*SyntheticClient, error) {
	switch {
	case cfg.Features < 1:
		return nil, fmt.Errorf("%w: features must be positive", fl.ErrConfiguration)
	case cfg.Samples < 2:
		return nil, fmt.Errorf("%w: at least two samples are required", fl.ErrConfiguration)
	case cfg.ValidationSplit <= 0 || cfg.ValidationSplit >= 1:
		return nil, fmt.Errorf("%w: validation split must be in (0, 1)", fl.ErrConfiguration)
	case cfg.LearningRate <= 0:
		return nil, fmt.Errorf("%w: learning rate must be positive", fl.ErrConfiguration)
	}

	task := rand.New(rand.NewPCG(cfg.TaskSeed, 0))
	weights := make([]float64, cfg.Features)
	for i := range weights {
		weights[i] = task.NormFloat64()
	}
	bias := task.NormFloat64()

	rng := rand.New(rand.NewPCG(cfg.TaskSeed, cfg.DataSeed))
	samples := make([]sample, cfg.Samples)
	for i := range samples {
		x := make([]float64, cfg.Features)
		y := bias
		for j := range x {
			x[j] = rng.Float64()*2 - 1
			y += weights[j] * x[j]
		}
		samples[i] = sample{x: x, y: y + rng.NormFloat64()*cfg.Noise}
	}

	nVal := max(1, int(math.Round(float64(cfg.Samples)*cfg.ValidationSplit)))
	nVal = min(nVal, cfg.Samples-1)

	return &SyntheticClient{
		cfg:   cfg,
		train: samples[nVal:],
		val:   samples[:nVal],
	}, nil
}

// InitialParameters returns the zero model matching the client's shape.
func (c *SyntheticClient) InitialParameters() fl.Parameters {
	return SyntheticParameters(c.cfg.Features)
}

func SyntheticParameters(features int) fl.Parameters {
	return fl.Zeros([]int{features}, []int{1})
}

func (c *SyntheticClient) Fit(ctx context.Context, ins FitIns) (fl.FitResult, error) {
	if err := ins.Config.Validate(); err != nil {
		return fl.FitResult{}, err
	}
	w, b, err := c.unpack(ins.Parameters)
	if err != nil {
		return fl.FitResult{}, err
	}

	cfg := ins.Config
	best := math.Inf(1)
	if cfg.Mode == roundconfig.ModeMax {
		best = math.Inf(-1)
	}
	bestW, bestB := append([]float64(nil), w...), b
	stale := 0

	var trainLoss float64
	for range cfg.MaxEpochs {
		if err := ctx.Err(); err != nil {
			return fl.FitResult{}, err
		}

		trainLoss = c.epoch(w, &b, cfg.TrainBatchSize)
		valLoss, mae := c.score(c.val, w, b)
		metrics := map[string]float64{"train_loss": trainLoss, "val_loss": valLoss, "mae": mae}

		current, ok := metrics[cfg.Monitor]
		if !ok {
			return fl.FitResult{}, fmt.Errorf("%w: unknown monitor %q", fl.ErrConfiguration, cfg.Monitor)
		}
		if improved(current, best, cfg.Mode) {
			best = current
			bestW, bestB = append([]float64(nil), w...), b
			stale = 0

			continue
		}
		stale++
		if stale > cfg.Patience {
			break
		}
	}

	valLoss, mae := c.score(c.val, bestW, bestB)

	return fl.FitResult{
		Parameters:  pack(bestW, bestB),
		NumExamples: len(c.train),
		Metrics: map[string]float64{
			"train_loss": trainLoss,
			"val_loss":   valLoss,
			"mae":        mae,
		},
	}, nil
}

func (c *SyntheticClient) Evaluate(ctx context.Context, ins EvaluateIns) (fl.EvaluateResult, error) {
	if err := ins.Config.Validate(); err != nil {
		return fl.EvaluateResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return fl.EvaluateResult{}, err
	}
	w, b, err := c.unpack(ins.Parameters)
	if err != nil {
		return fl.EvaluateResult{}, err
	}

	loss, mae := c.score(c.val, w, b)

	return fl.EvaluateResult{
		Loss:        loss,
		NumExamples: len(c.val),
		Metrics:     map[string]float64{"val_loss": loss, "mae": mae},
	}, nil
}

// epoch runs one pass of mini-batch gradient descent over the training set
// in place and returns the mean squared error before each update.
func (c *SyntheticClient) epoch(w []float64, b *float64, batchSize int) float64 {
	grad := make([]float64, len(w))
	var loss float64
	for start := 0; start < len(c.train); start += batchSize {
		batch := c.train[start:min(start+batchSize, len(c.train))]
		clear(grad)
		var gradB float64
		for _, s := range batch {
			diff := predict(w, *b, s.x) - s.y
			loss += diff * diff
			for j, x := range s.x {
				grad[j] += diff * x
			}
			gradB += diff
		}
		scale := 2 * c.cfg.LearningRate / float64(len(batch))
		for j := range w {
			w[j] -= scale * grad[j]
		}
		*b -= scale * gradB
	}

	return loss / float64(len(c.train))
}

func (c *SyntheticClient) score(set []sample, w []float64, b float64) (mse, mae float64) {
	for _, s := range set {
		diff := predict(w, b, s.x) - s.y
		mse += diff * diff
		mae += math.Abs(diff)
	}
	n := float64(len(set))

	return mse / n, mae / n
}

func (c *SyntheticClient) unpack(params fl.Parameters) ([]float64, float64, error) {
	if !params.SameShape(c.InitialParameters()) {
		return nil, 0, fmt.Errorf("%w: expected [%d] weights and [1] bias", fl.ErrShapeMismatch, c.cfg.Features)
	}

	return append([]float64(nil), params[0].Data...), params[1].Data[0], nil
}

func pack(w []float64, b float64) fl.Parameters {
	return fl.Parameters{
		{Shape: []int{len(w)}, Data: append([]float64(nil), w...)},
		{Shape: []int{1}, Data: []float64{b}},
	}
}

func predict(w []float64, b float64, x []float64) float64 {
	y := b
	for j := range w {
		y += w[j] * x[j]
	}

	return y
}

func improved(current, best float64, mode roundconfig.Mode) bool {
	if mode == roundconfig.ModeMax {
		return current > best
	}

	return current < best
}
