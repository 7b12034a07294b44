package keygen

import (
	"context"
	"fmt"

	"github.com/streamsim/dataflow-sim/pkg/model"
)

const TypeGenerated SourceType = "generated"

func init() {
	Register(TypeGenerated, func(cfg *SourceConfig) (BatchSource, error) {
		keygenCfg, ok := cfg.Options["config"].(model.KeygenConfig)
		if !ok {
			return nil, fmt.Errorf("generated source %q: options[\"config\"] must be a model.KeygenConfig", cfg.Name)
		}
		seed := int64(cfg.GetInt("seed", 1))

		gen, err := NewGenerator(keygenCfg, seed)
		if err != nil {
			return nil, fmt.Errorf("generated source %q: %w", cfg.Name, err)
		}
		return &generatedSource{name: cfg.Name, gen: gen, steps: keygenCfg.Steps}, nil
	})
}

// generatedSource wraps a Generator as a BatchSource, producing exactly
// Steps batches before exhausting.
type generatedSource struct {
	name  string
	gen   *Generator
	steps int
	step  int
}

func (s *generatedSource) Name() string { return s.name }

func (s *generatedSource) Next(ctx context.Context) ([]string, bool, error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	default:
	}
	if s.step >= s.steps {
		return nil, false, nil
	}
	s.step++
	return s.gen.Step(), true, nil
}

func (s *generatedSource) Close() error { return nil }
