package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCoversAllTiers(t *testing.T) {
	cfg := DefaultConfig

	assert.Equal(t, StandardShort, cfg.Classify(100, 2*time.Hour))
	assert.Equal(t, StandardLong, cfg.Classify(100, 72*time.Hour))
	assert.Equal(t, HighMemShort, cfg.Classify(600, 2*time.Hour))
	assert.Equal(t, HighMemLong, cfg.Classify(600, 72*time.Hour))
}

func TestClassifyBoundaries(t *testing.T) {
	cfg := DefaultConfig

	// Exactly at the boundary stays in the cheaper tier.
	assert.Equal(t, StandardShort, cfg.Classify(cfg.HighMemCutoffGB, cfg.LongBoundary))
	assert.Equal(t, HighMemShort, cfg.Classify(cfg.HighMemCutoffGB+0.1, cfg.LongBoundary))
	assert.Equal(t, StandardLong, cfg.Classify(cfg.HighMemCutoffGB, cfg.LongBoundary+time.Second))
}

func TestClassifyCutoffIsConfiguration(t *testing.T) {
	// Deployments have run 450, 500 and 735 GB cutoffs; the classifier must
	// follow whatever it's given.
	for _, cutoff := range []float64{450, 500, 735} {
		cfg := Config{HighMemCutoffGB: cutoff, LongBoundary: 48 * time.Hour}
		assert.Equal(t, StandardShort, cfg.Classify(cutoff-1, time.Hour), "cutoff %v", cutoff)
		assert.Equal(t, HighMemShort, cfg.Classify(cutoff+1, time.Hour), "cutoff %v", cutoff)
	}
}
