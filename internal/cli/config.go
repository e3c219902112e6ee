package cli

import (
	"github.com/aretw0/bustub-shell/internal/config"
)

// PrintConfig writes the effective configuration, after file, environment and
// flag overrides, as YAML.
func PrintConfig(opts Options) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	return config.Encode(opts.stdout(), cfg)
}
