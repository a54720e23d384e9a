package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqsense/pcreg/mat"
	"github.com/seqsense/pcreg/pcd"
	"github.com/seqsense/pcreg/pcd/registration"
	"github.com/seqsense/pcreg/pcd/search"
)

func TestDefault(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	testCases := map[string]struct {
		yaml     string
		expected func() *Config
	}{
		"Empty": {
			yaml:     "",
			expected: Default,
		},
		"Partial": {
			yaml: `
features:
  radius: 0
  k: 16
  bins: [5, 6, 7]
  threads: 2
rejection:
  max_distance: 0.8
`,
			expected: func() *Config {
				c := Default()
				c.Features = Features{K: 16, Bins: []int{5, 6, 7}, Threads: 2}
				c.Rejection.MaxDistance = 0.8
				return c
			},
		},
		"Full": {
			yaml: `
search:
  cell_size: 0.5
normals:
  k: 0
  radius: 0.2
  viewpoint: [0, 0, 5]
  threads: 3
features:
  radius: 0.3
rejection:
  max_distance: 1
  one_to_one: false
  max_angle_deg: 30
  median_factor: 0
  trim_ratio: 0.8
  min_correspondences: 10
  ransac_threshold: 0.05
  ransac_iterations: 1000
  seed: 42
icp:
  index: kdtree
  max_correspondence_distance: 2
  max_iterations: 10
  transform_epsilon: 0.001
`,
			expected: func() *Config {
				return &Config{
					Search:   Search{CellSize: 0.5},
					Normals:  Normals{Radius: 0.2, Viewpoint: []float32{0, 0, 5}, Threads: 3},
					Features: Features{Radius: 0.3, Bins: []int{11, 11, 11}},
					Rejection: Rejection{
						MaxDistance:        1,
						MaxAngleDeg:        30,
						TrimRatio:          0.8,
						MinCorrespondences: 10,
						RANSACThreshold:    0.05,
						RANSACIterations:   1000,
						Seed:               42,
					},
					ICP: ICP{
						Index:                     "kdtree",
						MaxCorrespondenceDistance: 2,
						MaxIterations:             10,
						TransformEpsilon:          0.001,
					},
				}
			},
		},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			c, err := Load(strings.NewReader(tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, tt.expected(), c)
		})
	}
}

func TestLoad_Error(t *testing.T) {
	testCases := map[string]struct {
		yaml    string
		invalid bool
	}{
		"Syntax":       {yaml: "features: [1"},
		"UnknownField": {yaml: "features:\n  radious: 0.1\n"},
		"BothKRadius":  {yaml: "features:\n  k: 10\n", invalid: true},
		"NormalsK":     {yaml: "normals:\n  radius: 0.1\n", invalid: true},
		"Viewpoint":    {yaml: "normals:\n  viewpoint: [1, 2]\n", invalid: true},
		"NoKRadius":    {yaml: "features:\n  radius: 0\n", invalid: true},
		"Bins":         {yaml: "features:\n  bins: [1, 2]\n", invalid: true},
		"ZeroBin":      {yaml: "features:\n  bins: [1, 0, 2]\n", invalid: true},
		"CellSize":     {yaml: "search:\n  cell_size: 0\n", invalid: true},
		"TrimRatio":    {yaml: "rejection:\n  trim_ratio: 1.5\n", invalid: true},
		"MaxAngle":     {yaml: "rejection:\n  max_angle_deg: 200\n", invalid: true},
		"RANSAC":       {yaml: "rejection:\n  ransac_iterations: 10\n", invalid: true},
		"ICP":          {yaml: "icp:\n  max_iterations: 0\n", invalid: true},
		"ICPIndex":     {yaml: "icp:\n  index: octree\n", invalid: true},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			c, err := Load(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Nil(t, c)
			assert.Equal(t, tt.invalid, errors.Is(err, pcd.ErrInvalidInput), "unexpected error: %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("icp:\n  max_iterations: 5\n"), 0644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, c.ICP.MaxIterations)

	_, err = LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "expected ErrNotExist, got %v", err)
}

func TestConfig_FeatureEstimator(t *testing.T) {
	c := Default()
	c.Features = Features{K: 8, Bins: []int{3, 4, 5}, Threads: 2}
	e := c.FeatureEstimator()
	assert.Equal(t, search.Params{K: 8}, e.Search)
	assert.Equal(t, [3]int{3, 4, 5}, e.Bins)
	assert.Equal(t, 2, e.Threads)

	c.Features.Bins = nil
	assert.Equal(t, [3]int{}, c.FeatureEstimator().Bins)
}

func TestConfig_NormalEstimator(t *testing.T) {
	c := Default()
	e := c.NormalEstimator()
	assert.Equal(t, search.Params{K: 20}, e.Search)
	assert.Equal(t, mat.Vec3{}, e.Viewpoint)

	c.Normals = Normals{Radius: 0.3, Viewpoint: []float32{1, 2, 3}, Threads: 2}
	e = c.NormalEstimator()
	assert.Equal(t, search.Params{Radius: 0.3}, e.Search)
	assert.Equal(t, mat.Vec3{1, 2, 3}, e.Viewpoint)
	assert.Equal(t, 2, e.Threads)
}

// Normals estimated from points feed the feature estimator.
func TestConfig_NormalsToFeatures(t *testing.T) {
	points := make(pcd.Vec3Slice, 0, 100)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			points = append(points, mat.Vec3{float32(x) * 0.1, float32(y) * 0.1, 0.005 * float32(x*x)})
		}
	}
	c := Default()
	c.Normals.Viewpoint = []float32{0, 0, 10}
	c.Features = Features{K: 8}
	s, err := c.NewSearcher(points)
	require.NoError(t, err)

	pc, err := pcd.NewPointNormal(points, make(pcd.Vec3Slice, len(points)))
	require.NoError(t, err)
	res, err := c.NormalEstimator().ComputeCloud(pc, s)
	require.NoError(t, err)
	assert.Zero(t, res.Invalid)

	h, err := c.FeatureEstimator().ComputeCloud(pc, s, nil)
	require.NoError(t, err)
	assert.Equal(t, len(points), h.Len())
}

func TestConfig_Rejector(t *testing.T) {
	c := Default()
	c.Rejection = Rejection{
		MaxDistance:        1,
		OneToOne:           true,
		MaxAngleDeg:        45,
		MedianFactor:       2,
		TrimRatio:          0.9,
		MinCorrespondences: 1,
		RANSACThreshold:    0.1,
		RANSACIterations:   10,
	}
	clouds := Clouds{
		Source:        pcd.Vec3Slice{},
		Target:        pcd.Vec3Slice{},
		SourceNormals: pcd.Vec3Slice{},
		TargetNormals: pcd.Vec3Slice{},
	}
	assert.Equal(t,
		"chain(distance,one_to_one,surface_normal,median_distance,trimmed,sample_consensus)",
		c.Rejector(clouds).Name(),
	)
	assert.Equal(t,
		"chain(distance,one_to_one,median_distance,trimmed)",
		c.Rejector(Clouds{}).Name(),
	)

	out := c.Rejector(Clouds{}).RemainingCorrespondences(registration.Correspondences{
		{Query: 0, Match: 0, Distance: 0.1},
		{Query: 1, Match: 0, Distance: 0.2},
		{Query: 2, Match: 1, Distance: 5},
	})
	assert.Equal(t, registration.Correspondences{{Query: 0, Match: 0, Distance: 0.1}}, out)
}

func TestConfig_NewICP(t *testing.T) {
	c := Default()
	icp := c.NewICP(nil)
	assert.Equal(t, c.ICP.MaxIterations, icp.MaxIterations)
	assert.Equal(t, c.ICP.MaxCorrespondenceDistance, icp.MaxCorrespondenceDistance)
	assert.Equal(t, c.ICP.TransformEpsilon, icp.TransformEpsilon)

	s, err := c.NewSearcher(pcd.Vec3Slice{{0, 0, 0}, {1, 1, 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestConfig_NewNearestSearcher(t *testing.T) {
	ra := pcd.Vec3Slice{{0, 0, 0}, {1, 1, 1}}
	testCases := map[string]struct {
		index    string
		expected interface{}
	}{
		"Default": {index: "", expected: &search.VoxelGrid{}},
		"Voxel":   {index: "voxel", expected: &search.VoxelGrid{}},
		"KDTree":  {index: "kdtree", expected: &search.KDTree{}},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			c := Default()
			c.ICP.Index = tt.index
			s, err := c.NewNearestSearcher(ra)
			require.NoError(t, err)
			assert.IsType(t, tt.expected, s)

			n, ok := s.Nearest(mat.Vec3{0.9, 1, 1}, 0.5)
			require.True(t, ok)
			assert.Equal(t, 1, n.Index)
			assert.InDelta(t, 0.1, n.Dist, 1e-6)
		})
	}
}
