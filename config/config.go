// Package config loads registration parameters from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/seqsense/pcreg/pcd"
	"github.com/seqsense/pcreg/pcd/features/fpfh"
	"github.com/seqsense/pcreg/pcd/features/normal"
	"github.com/seqsense/pcreg/pcd/registration"
	"github.com/seqsense/pcreg/pcd/search"
)

type Config struct {
	Search    Search    `yaml:"search"`
	Normals   Normals   `yaml:"normals"`
	Features  Features  `yaml:"features"`
	Rejection Rejection `yaml:"rejection"`
	ICP       ICP       `yaml:"icp"`
}

type Search struct {
	CellSize float32 `yaml:"cell_size"`
}

// Normals configures the normal estimator.
// Exactly one of Radius and K must be set. Viewpoint is empty or has 3 elements.
type Normals struct {
	Radius    float32   `yaml:"radius"`
	K         int       `yaml:"k"`
	Viewpoint []float32 `yaml:"viewpoint"`
	Threads   int       `yaml:"threads"`
}

// Features configures the FPFH estimator.
// Exactly one of Radius and K must be set.
type Features struct {
	Radius  float32 `yaml:"radius"`
	K       int     `yaml:"k"`
	Bins    []int   `yaml:"bins"`
	Threads int     `yaml:"threads"`
}

// Rejection enables the rejectors with non-zero parameters,
// applied in the order of the fields.
type Rejection struct {
	MaxDistance        float32 `yaml:"max_distance"`
	OneToOne           bool    `yaml:"one_to_one"`
	MaxAngleDeg        float32 `yaml:"max_angle_deg"`
	MedianFactor       float32 `yaml:"median_factor"`
	TrimRatio          float32 `yaml:"trim_ratio"`
	MinCorrespondences int     `yaml:"min_correspondences"`
	RANSACThreshold    float32 `yaml:"ransac_threshold"`
	RANSACIterations   int     `yaml:"ransac_iterations"`
	Seed               int64   `yaml:"seed"`
}

// ICP configures the alignment loop.
// Index selects the target index for nearest point queries: "voxel" or "kdtree".
// Empty means "voxel".
type ICP struct {
	Index                     string  `yaml:"index"`
	MaxCorrespondenceDistance float32 `yaml:"max_correspondence_distance"`
	MaxIterations             int     `yaml:"max_iterations"`
	TransformEpsilon          float32 `yaml:"transform_epsilon"`
}

func Default() *Config {
	return &Config{
		Search: Search{
			CellSize: 0.25,
		},
		Normals: Normals{
			K: normal.DefaultK,
		},
		Features: Features{
			Radius: 0.25,
			Bins:   []int{fpfh.DefaultBins, fpfh.DefaultBins, fpfh.DefaultBins},
		},
		Rejection: Rejection{
			OneToOne:     true,
			MedianFactor: 3,
		},
		ICP: ICP{
			MaxCorrespondenceDistance: 0.5,
			MaxIterations:             30,
			TransformEpsilon:          1e-6,
		},
	}
}

// Load reads the YAML configuration from r on top of Default.
// Unknown keys are rejected. Empty input gives the default configuration.
func Load(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (c *Config) Validate() error {
	if c.Search.CellSize <= 0 {
		return fmt.Errorf("%w: search.cell_size must be >0", pcd.ErrInvalidInput)
	}
	if err := c.normalParams().Validate(); err != nil {
		return fmt.Errorf("normals: %w", err)
	}
	if n := len(c.Normals.Viewpoint); n != 0 && n != 3 {
		return fmt.Errorf("%w: normals.viewpoint must have 3 elements, got %d", pcd.ErrInvalidInput, n)
	}
	if c.Normals.Threads < 0 {
		return fmt.Errorf("%w: normals.threads must be >=0", pcd.ErrInvalidInput)
	}
	if err := c.searchParams().Validate(); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	if n := len(c.Features.Bins); n != 0 && n != 3 {
		return fmt.Errorf("%w: features.bins must have 3 elements, got %d", pcd.ErrInvalidInput, n)
	}
	for i, b := range c.Features.Bins {
		if b <= 0 {
			return fmt.Errorf("%w: features.bins[%d] must be >0", pcd.ErrInvalidInput, i)
		}
	}
	if c.Features.Threads < 0 {
		return fmt.Errorf("%w: features.threads must be >=0", pcd.ErrInvalidInput)
	}

	r := c.Rejection
	switch {
	case r.MaxDistance < 0:
		return fmt.Errorf("%w: rejection.max_distance must be >=0", pcd.ErrInvalidInput)
	case r.MaxAngleDeg < 0 || r.MaxAngleDeg > 180:
		return fmt.Errorf("%w: rejection.max_angle_deg must be in [0, 180]", pcd.ErrInvalidInput)
	case r.MedianFactor < 0:
		return fmt.Errorf("%w: rejection.median_factor must be >=0", pcd.ErrInvalidInput)
	case r.TrimRatio < 0 || r.TrimRatio > 1:
		return fmt.Errorf("%w: rejection.trim_ratio must be in [0, 1]", pcd.ErrInvalidInput)
	case r.MinCorrespondences < 0:
		return fmt.Errorf("%w: rejection.min_correspondences must be >=0", pcd.ErrInvalidInput)
	case r.RANSACIterations < 0:
		return fmt.Errorf("%w: rejection.ransac_iterations must be >=0", pcd.ErrInvalidInput)
	case r.RANSACIterations > 0 && r.RANSACThreshold <= 0:
		return fmt.Errorf("%w: rejection.ransac_threshold must be >0", pcd.ErrInvalidInput)
	}

	switch c.ICP.Index {
	case "", indexVoxel, indexKDTree:
	default:
		return fmt.Errorf("%w: unknown icp.index %q", pcd.ErrInvalidInput, c.ICP.Index)
	}
	if c.ICP.MaxCorrespondenceDistance <= 0 {
		return fmt.Errorf("%w: icp.max_correspondence_distance must be >0", pcd.ErrInvalidInput)
	}
	if c.ICP.MaxIterations <= 0 {
		return fmt.Errorf("%w: icp.max_iterations must be >0", pcd.ErrInvalidInput)
	}
	if c.ICP.TransformEpsilon < 0 {
		return fmt.Errorf("%w: icp.transform_epsilon must be >=0", pcd.ErrInvalidInput)
	}
	return nil
}

func (c *Config) normalParams() search.Params {
	return search.Params{K: c.Normals.K, Radius: c.Normals.Radius}
}

func (c *Config) NormalEstimator() *normal.Estimator {
	e := &normal.Estimator{
		Search:  c.normalParams(),
		Threads: c.Normals.Threads,
	}
	copy(e.Viewpoint[:], c.Normals.Viewpoint)
	return e
}

func (c *Config) searchParams() search.Params {
	return search.Params{K: c.Features.K, Radius: c.Features.Radius}
}

// NewSearcher indexes ra for neighbor and nearest point queries.
func (c *Config) NewSearcher(ra pcd.Vec3RandomAccessor) (*search.VoxelGrid, error) {
	return search.NewVoxelGrid(ra, c.Search.CellSize)
}

const (
	indexVoxel  = "voxel"
	indexKDTree = "kdtree"
)

// NewNearestSearcher indexes the ICP target.
func (c *Config) NewNearestSearcher(ra pcd.Vec3RandomAccessor) (search.NearestSearcher, error) {
	if c.ICP.Index == indexKDTree {
		return search.NewKDTree(ra), nil
	}
	return c.NewSearcher(ra)
}

func (c *Config) FeatureEstimator() *fpfh.Estimator {
	e := &fpfh.Estimator{
		Search:  c.searchParams(),
		Threads: c.Features.Threads,
	}
	copy(e.Bins[:], c.Features.Bins)
	return e
}

// Clouds supplies the data needed by the rejectors using point positions or normals.
type Clouds struct {
	Source, Target               pcd.Vec3RandomAccessor
	SourceNormals, TargetNormals pcd.Vec3RandomAccessor
}

// Rejector builds the chain of enabled rejectors.
// Rejectors lacking their input clouds are skipped.
func (c *Config) Rejector(clouds Clouds) registration.Rejector {
	r := c.Rejection
	var rs []registration.Rejector
	if r.MaxDistance > 0 {
		rs = append(rs, registration.DistanceRejector{MaxDistance: r.MaxDistance})
	}
	if r.OneToOne {
		rs = append(rs, registration.OneToOneRejector{})
	}
	if r.MaxAngleDeg > 0 && clouds.SourceNormals != nil && clouds.TargetNormals != nil {
		rs = append(rs, registration.SurfaceNormalRejector{
			SourceNormals: clouds.SourceNormals,
			TargetNormals: clouds.TargetNormals,
			MaxAngle:      r.MaxAngleDeg * math.Pi / 180,
		})
	}
	if r.MedianFactor > 0 {
		rs = append(rs, registration.MedianDistanceRejector{Factor: r.MedianFactor})
	}
	if r.TrimRatio > 0 {
		rs = append(rs, registration.TrimmedRejector{Ratio: r.TrimRatio, MinCorrespondences: r.MinCorrespondences})
	}
	if r.RANSACIterations > 0 && clouds.Source != nil && clouds.Target != nil {
		rs = append(rs, registration.SampleConsensusRejector{
			Source:          clouds.Source,
			Target:          clouds.Target,
			InlierThreshold: r.RANSACThreshold,
			MaxIterations:   r.RANSACIterations,
			Seed:            r.Seed,
		})
	}
	return registration.Chain(rs...)
}

func (c *Config) NewICP(rejector registration.Rejector) *registration.ICP {
	return &registration.ICP{
		MaxCorrespondenceDistance: c.ICP.MaxCorrespondenceDistance,
		MaxIterations:             c.ICP.MaxIterations,
		TransformEpsilon:          c.ICP.TransformEpsilon,
		Rejector:                  rejector,
	}
}
