package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/san-kum/caustics/internal/lens"
	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/source"
	"github.com/san-kum/caustics/internal/tensor"
)

var lensingRender = param.Declare("Lensing.Render", "z_s")

// Lensing renders a lensed source on a square pixel grid centred on the
// optical axis.
type Lensing struct {
	*param.Module
	lens   lens.Lens
	source source.Source
	cfg    Config
	thx    *tensor.Tensor
	thy    *tensor.Tensor
}

// NewLensing owns l under "lens" and src under "source". A nil zs makes the
// source redshift dynamic.
func NewLensing(name string, l lens.Lens, src source.Source, zs *tensor.Tensor, cfg Config) (*Lensing, error) {
	grid, err := NewGrid(cfg)
	if err != nil {
		return nil, err
	}
	s := &Lensing{Module: param.NewModule(name), lens: l, source: src, cfg: cfg, thx: grid.X, thy: grid.Y}
	if err := s.AddParam("z_s", zs, nil); err != nil {
		return nil, err
	}
	if err := s.AddModule("lens", l); err != nil {
		return nil, err
	}
	if err := s.AddModule("source", src); err != nil {
		return nil, err
	}

	s.OnTo(func(device tensor.Device, dtype tensor.DType) {
		s.thx = s.thx.To(device, dtype)
		s.thy = s.thy.To(device, dtype)
	})

	logrus.WithFields(logrus.Fields{
		"name":    s.Name(),
		"npix":    cfg.NPix,
		"fov":     cfg.FOV,
		"dynamic": s.DynamicSize(),
	}).Debug("lensing simulator ready")
	return s, nil
}

func (s *Lensing) Lens() lens.Lens             { return s.lens }
func (s *Lensing) Source() source.Source       { return s.source }
func (s *Lensing) Config() Config              { return s.cfg }
func (s *Lensing) Grid() (x, y *tensor.Tensor) { return s.thx, s.thy }

// Render ray-traces every pixel to the source plane and returns the
// brightness there as an [npix, npix] image.
func (s *Lensing) Render(params *param.Packed) (*tensor.Tensor, error) {
	return s.RenderWith(params, nil)
}

// RenderWith is Render with overrides for the simulator's own params.
func (s *Lensing) RenderWith(params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	v, err := lensingRender.Resolve(s, params, ov)
	if err != nil {
		return nil, err
	}
	bx, by, err := lens.RayTrace(s.lens, s.thx, s.thy, v.Get("z_s"), params)
	if err != nil {
		return nil, err
	}
	return s.source.Brightness(bx, by, params, nil)
}

// RenderFlat packs flat against the tree and renders it.
func (s *Lensing) RenderFlat(flat []float64) (*tensor.Tensor, error) {
	p, err := s.Pack(flat)
	if err != nil {
		return nil, err
	}
	return s.Render(p)
}

// ConvergenceMap evaluates the lens convergence on the pixel grid.
func (s *Lensing) ConvergenceMap(params *param.Packed) (*tensor.Tensor, error) {
	v, err := lensingRender.Resolve(s, params, nil)
	if err != nil {
		return nil, err
	}
	return s.lens.Convergence(s.thx, s.thy, v.Get("z_s"), params, nil)
}
