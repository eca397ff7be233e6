package main

import (
	"go.uber.org/zap"

	"github.com/zlabs/elu_browser/pack"
)

// parseCheck decodes every model and reports failures and warnings.
// Returns the number of models that failed to decode.
func parseCheck(p *pack.Pack, log *zap.Logger) int {
	files, err := p.List()
	if err != nil {
		log.Fatal("Cannot list models", zap.Error(err))
	}

	var failed, warned int
	for _, fname := range files {
		inst, err := p.Instance(fname)
		if err != nil {
			failed++
			log.Error("Decode failed", zap.String("file", fname), zap.Error(err))
			continue
		}
		for _, w := range inst.Scene.Warnings {
			log.Warn(w.Message,
				zap.String("file", fname),
				zap.Stringer("kind", w.Kind),
				zap.Int("mesh", w.Mesh),
				zap.Int("offset", w.Offset))
		}
		if len(inst.Scene.Warnings) != 0 {
			warned++
		}
		// scenes are not needed after the check
		p.Invalidate(fname)
	}

	log.Info("Check finished",
		zap.Int("models", len(files)),
		zap.Int("failed", failed),
		zap.Int("with_warnings", warned))
	return failed
}
