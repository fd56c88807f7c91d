package hoverrace

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// TrackGenConfig shapes a closed elliptical ribbon. Angles are in degrees.
type TrackGenConfig struct {
	RadiusX       float32 `mapstructure:"radiusX"`
	RadiusZ       float32 `mapstructure:"radiusZ"`
	Width         float32 `mapstructure:"width"`
	Segments      int     `mapstructure:"segments"`
	Checkpoints   int     `mapstructure:"checkpoints"`
	HillHeight    float32 `mapstructure:"hillHeight"`
	Hills         int     `mapstructure:"hills"`
	BankAngle     float32 `mapstructure:"bankAngle"`
	BumpyFraction float32 `mapstructure:"bumpyFraction"`
	SkipTolerance int     `mapstructure:"skipTolerance"`
	GateHeight    float32 `mapstructure:"gateHeight"`
	GateDepth     float32 `mapstructure:"gateDepth"`
	HoverHeight   float32 `mapstructure:"hoverHeight"`
}

func DefaultTrackGenConfig() TrackGenConfig {
	return DefaultConfig().Track
}

func (c TrackGenConfig) Validate() error {
	var errs []error
	if c.Segments < 8 {
		errs = append(errs, fmt.Errorf("track.segments must be >= 8, got %d", c.Segments))
	}
	if c.Checkpoints < 2 || c.Checkpoints > c.Segments {
		errs = append(errs, fmt.Errorf("track.checkpoints must be in [2, segments], got %d", c.Checkpoints))
	}
	if c.Width <= 0 || c.RadiusX <= c.Width || c.RadiusZ <= c.Width {
		errs = append(errs, errors.New("track radii must exceed a positive width"))
	}
	if c.BumpyFraction < 0 || c.BumpyFraction >= 1 {
		errs = append(errs, fmt.Errorf("track.bumpyFraction must be in [0, 1), got %v", c.BumpyFraction))
	}
	if c.SkipTolerance < 0 {
		errs = append(errs, fmt.Errorf("track.skipTolerance must be >= 0, got %d", c.SkipTolerance))
	}
	if c.GateHeight <= 0 || c.GateDepth <= 0 {
		errs = append(errs, errors.New("track gates need a positive height and depth"))
	}
	return errors.Join(errs...)
}

// GeneratedTrack is a ready to race loop: collision meshes, the checkpoint
// layout and a starting grid.
type GeneratedTrack struct {
	Config    TrackGenConfig
	Smooth    *TriangleMesh
	Bumpy     *TriangleMesh
	Colliders []*MeshCollider
	World     *MeshWorld
	Track     *Track
}

// ribbonFrame is the centerline point and banked frame at one angle.
type ribbonFrame struct {
	center  mgl32.Vec3
	tangent mgl32.Vec3
	right   mgl32.Vec3
	normal  mgl32.Vec3
}

func (c TrackGenConfig) frameAt(theta float64) ribbonFrame {
	s, co := math.Sincos(theta)
	hs, hc := math.Sincos(float64(c.Hills) * theta)
	center := mgl32.Vec3{
		c.RadiusX * float32(co),
		c.HillHeight * float32(hs),
		c.RadiusZ * float32(s),
	}
	tangent := SafeNormalize(mgl32.Vec3{
		-c.RadiusX * float32(s),
		c.HillHeight * float32(c.Hills) * float32(hc),
		c.RadiusZ * float32(co),
	})
	right := SafeNormalize(WorldUp.Cross(tangent))
	// The loop turns left; raise the outer edge.
	bank := mgl32.QuatRotate(mgl32.DegToRad(c.BankAngle), tangent)
	right = SafeNormalize(bank.Rotate(right))
	normal := SafeNormalize(tangent.Cross(right))
	return ribbonFrame{center: center, tangent: tangent, right: right, normal: normal}
}

// GenerateLoopTrack builds a closed ribbon track. Checkpoint k sits at
// angle 2π(k+1)/K, so the last checkpoint coincides with the start/finish
// line at angle 0 and racers begin just past it expecting checkpoint 0.
func GenerateLoopTrack(cfg TrackGenConfig) (*GeneratedTrack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	bumpyFrom := cfg.Segments
	if cfg.BumpyFraction > 0 {
		bumpyFrom = cfg.Segments - int(math.Ceil(float64(cfg.BumpyFraction)*float64(cfg.Segments)))
	}

	smooth := &TriangleMesh{}
	bumpy := &TriangleMesh{}
	half := cfg.Width / 2
	for i := 0; i < cfg.Segments; i++ {
		f0 := cfg.frameAt(2 * math.Pi * float64(i) / float64(cfg.Segments))
		f1 := cfg.frameAt(2 * math.Pi * float64(i+1) / float64(cfg.Segments))
		mesh := smooth
		if i >= bumpyFrom {
			mesh = bumpy
		}
		appendQuad(mesh, f0, f1, half)
	}

	gt := &GeneratedTrack{Config: cfg, Smooth: smooth, World: NewMeshWorld()}
	smoothCol, err := NewMeshCollider(smooth, NewTransform(mgl32.Vec3{}, mgl32.QuatIdent()), LayerTrackSmooth, "Track")
	if err != nil {
		return nil, fmt.Errorf("smooth section: %w", err)
	}
	gt.Colliders = append(gt.Colliders, smoothCol)
	if len(bumpy.Triangles) > 0 {
		bumpyCol, err := NewMeshCollider(bumpy, NewTransform(mgl32.Vec3{}, mgl32.QuatIdent()), LayerTrackBumpy, "Track")
		if err != nil {
			return nil, fmt.Errorf("bumpy section: %w", err)
		}
		gt.Bumpy = bumpy
		gt.Colliders = append(gt.Colliders, bumpyCol)
	}
	for _, c := range gt.Colliders {
		gt.World.Add(c)
	}

	checkpoints := make([]Checkpoint, cfg.Checkpoints)
	for k := range checkpoints {
		f := cfg.frameAt(2 * math.Pi * float64(k+1) / float64(cfg.Checkpoints))
		checkpoints[k] = Checkpoint{
			Index:         k,
			Position:      f.center.Add(f.normal.Mul(cfg.HoverHeight)),
			Volume:        cfg.gate(f),
			SkipTolerance: cfg.SkipTolerance,
		}
	}
	track, err := NewTrack(checkpoints, checkpoints[len(checkpoints)-1].Volume)
	if err != nil {
		return nil, err
	}
	gt.Track = track
	return gt, nil
}

func (c TrackGenConfig) gate(f ribbonFrame) TriggerVolume {
	return BoxTrigger(
		f.center.Add(f.normal.Mul(c.GateHeight/2)),
		mgl32.Vec3{c.Width/2 + 1, c.GateHeight / 2, c.GateDepth / 2},
		LookRotation(f.tangent, f.normal),
	)
}

// appendQuad adds two upward facing triangles spanning f0..f1.
func appendQuad(m *TriangleMesh, f0, f1 ribbonFrame, half float32) {
	base := len(m.Vertices)
	l0 := f0.center.Sub(f0.right.Mul(half))
	r0 := f0.center.Add(f0.right.Mul(half))
	l1 := f1.center.Sub(f1.right.Mul(half))
	r1 := f1.center.Add(f1.right.Mul(half))
	m.Vertices = append(m.Vertices, l0, r0, l1, r1)
	m.Normals = append(m.Normals, f0.normal, f0.normal, f1.normal, f1.normal)
	m.Triangles = append(m.Triangles,
		base, base+2, base+1,
		base+1, base+2, base+3,
	)
}

// SpawnPoints lays out n starting poses in rows of two just past the
// start/finish line, short of checkpoint 0.
func (g *GeneratedTrack) SpawnPoints(n int) []TransformComponent {
	cfg := g.Config
	rows := (n + 1) / 2
	avgRadius := float64(cfg.RadiusX+cfg.RadiusZ) / 2
	firstGap := 2 * math.Pi / float64(cfg.Checkpoints)
	spacing := math.Min(6/avgRadius, firstGap/float64(rows+1))

	res := make([]TransformComponent, 0, n)
	for i := 0; i < n; i++ {
		row := i / 2
		lateral := cfg.Width / 4
		if i%2 == 0 {
			lateral = -lateral
		}
		f := cfg.frameAt(spacing * float64(rows-row))
		pos := f.center.Add(f.normal.Mul(cfg.HoverHeight)).Add(f.right.Mul(lateral))
		res = append(res, NewTransform(pos, LookRotation(f.tangent, f.normal)))
	}
	return res
}
