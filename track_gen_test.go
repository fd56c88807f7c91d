package hoverrace

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackGenConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultTrackGenConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*TrackGenConfig)
	}{
		{"few segments", func(c *TrackGenConfig) { c.Segments = 4 }},
		{"one checkpoint", func(c *TrackGenConfig) { c.Checkpoints = 1 }},
		{"more checkpoints than segments", func(c *TrackGenConfig) { c.Checkpoints = c.Segments + 1 }},
		{"too wide", func(c *TrackGenConfig) { c.Width = c.RadiusZ }},
		{"all bumpy", func(c *TrackGenConfig) { c.BumpyFraction = 1 }},
		{"negative tolerance", func(c *TrackGenConfig) { c.SkipTolerance = -1 }},
		{"flat gate", func(c *TrackGenConfig) { c.GateHeight = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTrackGenConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())

			_, err := GenerateLoopTrack(cfg)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestGenerateLoopTrack_Layout(t *testing.T) {
	cfg := DefaultTrackGenConfig()
	gt, err := GenerateLoopTrack(cfg)
	require.NoError(t, err)

	require.Equal(t, cfg.Checkpoints, gt.Track.Len())
	require.Len(t, gt.Colliders, 2)
	require.NotNil(t, gt.Bumpy)
	bumpySegments := int(math.Ceil(float64(cfg.BumpyFraction) * float64(cfg.Segments)))
	assert.Equal(t, 2*bumpySegments, gt.Bumpy.TriangleCount())
	assert.Equal(t, 2*(cfg.Segments-bumpySegments), gt.Smooth.TriangleCount())

	for _, cp := range gt.Track.Checkpoints {
		assert.True(t, cp.Volume.Contains(cp.Position), "checkpoint %d inside its gate", cp.Index)
		assert.Equal(t, cfg.SkipTolerance, cp.SkipTolerance)
	}
	last := gt.Track.Checkpoints[cfg.Checkpoints-1]
	assert.True(t, gt.Track.FinishLine.Contains(last.Position))
	assert.False(t, gt.Track.FinishLine.Contains(gt.Track.Checkpoints[0].Position))
}

func TestGenerateLoopTrack_SurfaceUnderRibbon(t *testing.T) {
	cfg := DefaultTrackGenConfig()
	gt, err := GenerateLoopTrack(cfg)
	require.NoError(t, err)
	sampler := NewGeometrySampler(gt.World)
	bumpyFrom := cfg.Segments - int(math.Ceil(float64(cfg.BumpyFraction)*float64(cfg.Segments)))

	for i := 0; i < cfg.Segments; i++ {
		f := cfg.frameAt(2 * math.Pi * (float64(i) + 0.5) / float64(cfg.Segments))
		origin := f.center.Add(f.normal.Mul(cfg.HoverHeight))

		s, ok := sampler.Sample(origin, f.normal.Mul(-1), 10, AllLayers)
		require.True(t, ok, "segment %d", i)
		assert.InDelta(t, cfg.HoverHeight, s.Distance, 0.2, "segment %d", i)
		assert.Greater(t, s.Normal.Dot(f.normal), float32(0.99))
		assert.Equal(t, "Track", s.Tag)
		if i >= bumpyFrom {
			assert.Equal(t, LayerTrackBumpy, s.Layer, "segment %d", i)
		} else {
			assert.Equal(t, LayerTrackSmooth, s.Layer, "segment %d", i)
		}

		// Rays from below pass through the one-sided ribbon.
		_, ok = sampler.Sample(f.center.Sub(f.normal.Mul(2)), f.normal, 10, AllLayers)
		assert.False(t, ok)
	}
}

func TestGenerateLoopTrack_BanksOuterEdgeUp(t *testing.T) {
	cfg := DefaultTrackGenConfig()
	f := cfg.frameAt(0)
	// The loop turns left, so the right edge is the outer one.
	assert.Greater(t, f.right.Y(), float32(0))
	assert.Greater(t, f.normal.Y(), float32(0.9))
}

func TestGenerateLoopTrack_NoBumpySection(t *testing.T) {
	cfg := DefaultTrackGenConfig()
	cfg.BumpyFraction = 0
	gt, err := GenerateLoopTrack(cfg)
	require.NoError(t, err)
	assert.Nil(t, gt.Bumpy)
	assert.Len(t, gt.Colliders, 1)
	assert.Equal(t, 2*cfg.Segments, gt.Smooth.TriangleCount())
}

func TestGeneratedTrack_SpawnPoints(t *testing.T) {
	gt, err := GenerateLoopTrack(DefaultTrackGenConfig())
	require.NoError(t, err)
	sampler := NewGeometrySampler(gt.World)
	cp0 := gt.Track.Checkpoints[0]

	spawns := gt.SpawnPoints(5)
	require.Len(t, spawns, 5)
	seen := map[[3]float32]bool{}
	for i, tr := range spawns {
		key := [3]float32{tr.Position.X(), tr.Position.Y(), tr.Position.Z()}
		assert.False(t, seen[key], "spawn %d overlaps another", i)
		seen[key] = true

		assert.False(t, gt.Track.FinishLine.Contains(tr.Position), "spawn %d on the line", i)
		assert.False(t, cp0.Volume.Contains(tr.Position), "spawn %d in checkpoint 0", i)
		assert.Greater(t, tr.Forward().Dot(SafeNormalize(cp0.Position.Sub(tr.Position))), float32(0.5), "spawn %d faces checkpoint 0", i)

		s, ok := sampler.Sample(tr.Position, tr.Up().Mul(-1), 10, AllLayers)
		require.True(t, ok, "spawn %d above the track", i)
		assert.InDelta(t, 3, s.Distance, 0.2)
	}
	// Rows of two side by side.
	assert.InDelta(t, gt.Config.Width/2, spawns[0].Position.Sub(spawns[1].Position).Len(), 1e-3)
}
