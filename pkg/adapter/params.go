package adapter

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeParams decodes backend-specific params into out.
// Scalars are converted loosely so values read from YAML or the
// environment decode into typed fields.
func DecodeParams(params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("failed to decode params: %w", err)
	}
	return nil
}

// ParallelismSetter is implemented by adapters whose parallel context can
// be capped.
type ParallelismSetter interface {
	SetParallelism(n int)
}

// SetParallelism caps concurrent statements in a parallel context.
func (b *SQLAdapter) SetParallelism(n int) {
	b.Parallelism = n
}
