package roundconfig

// Options are the round-independent values copied into every payload.
type Options struct {
	MaxEpochs      int    `toml:"max_epochs"`
	Patience       int    `toml:"patience"`
	Monitor        string `toml:"monitor"`
	Mode           Mode   `toml:"mode"`
	ShareBatchNorm bool   `toml:"share_batch_norm"`
	Clients        int    `toml:"clients"`
	TrainBatchSize int    `toml:"train_batch_size"`
	LogNSteps      int    `toml:"log_n_steps"`

	EvalMaxEpochs int `toml:"eval_max_epochs"`
	EvalBatchSize int `toml:"eval_batch_size"`
	EvalMaxRound  int `toml:"eval_max_round"`
}

func DefaultOptions() Options {
	return Options{
		MaxEpochs:      10,
		Patience:       20,
		Monitor:        "val_loss",
		Mode:           ModeMin,
		ShareBatchNorm: true,
		Clients:        3,
		TrainBatchSize: 64,
		LogNSteps:      1,
		EvalMaxEpochs:  10,
		EvalBatchSize:  1,
		EvalMaxRound:   1,
	}
}

// Generator maps a round index to its fit and evaluate payloads. It holds no
// mutable state, so the same round always yields the same payload.
type Generator struct {
	opts Options
}

func NewGenerator(opts Options) Generator {
	return Generator{opts: opts}
}

func (g Generator) Options() Options {
	return g.opts
}

func (g Generator) Fit(round int) FitConfig {
	return FitConfig{
		CurrentRound:   round,
		MaxEpochs:      g.opts.MaxEpochs,
		Patience:       g.opts.Patience,
		Monitor:        g.opts.Monitor,
		Mode:           g.opts.Mode,
		ShareBatchNorm: g.opts.ShareBatchNorm,
		Clients:        g.opts.Clients,
		TrainBatchSize: g.opts.TrainBatchSize,
		LogNSteps:      g.opts.LogNSteps,
	}
}

func (g Generator) Evaluate(round int) EvaluateConfig {
	return EvaluateConfig{
		MaxEpochs:      g.opts.EvalMaxEpochs,
		BatchSize:      g.opts.EvalBatchSize,
		CurrentRound:   round,
		MaxRound:       g.opts.EvalMaxRound,
		Clients:        g.opts.Clients,
		TrainBatchSize: g.opts.TrainBatchSize,
	}
}
