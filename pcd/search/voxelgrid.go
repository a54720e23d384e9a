package search

import (
	"fmt"

	"github.com/seqsense/pcreg/mat"
	"github.com/seqsense/pcreg/pcd"
	"github.com/seqsense/pcreg/pcd/storage/voxelgrid"
)

const maxVoxels = 1 << 26

// VoxelGrid is a Searcher bucketing the points into a regular grid.
// It is read-only after construction.
type VoxelGrid struct {
	ra pcd.Vec3RandomAccessor
	vg *voxelgrid.VoxelGrid
}

// NewVoxelGrid indexes all points of ra into voxels of cellSize.
// cellSize around the typical search radius gives the best performance.
func NewVoxelGrid(ra pcd.Vec3RandomAccessor, cellSize float32) (*VoxelGrid, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("%w: cell size must be >0", pcd.ErrInvalidInput)
	}
	min, max, err := pcd.MinMaxVec3(ra)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pcd.ErrInvalidInput, err)
	}
	size := voxelgrid.SizeFor(cellSize, min, max)
	n := int64(1)
	for _, s := range size {
		if s <= 0 {
			return nil, fmt.Errorf("%w: points are not finite", pcd.ErrInvalidInput)
		}
		if n *= int64(s); n > maxVoxels {
			return nil, fmt.Errorf("%w: too many voxels (%v) required, increase cell size", pcd.ErrInvalidInput, size)
		}
	}
	vg := voxelgrid.New(cellSize, size, min)
	for i := 0; i < ra.Len(); i++ {
		if !vg.Add(ra.Vec3At(i), i) {
			return nil, fmt.Errorf("%w: point %d is not finite", pcd.ErrInvalidInput, i)
		}
	}
	return &VoxelGrid{ra: ra, vg: vg}, nil
}

func (s *VoxelGrid) Len() int {
	return s.ra.Len()
}

func (s *VoxelGrid) Radius(p mat.Vec3, r float32) []Neighbor {
	lo := s.vg.PosIntClamped(p.Sub(mat.Vec3{r, r, r}))
	hi := s.vg.PosIntClamped(p.Add(mat.Vec3{r, r, r}))
	var out []Neighbor
	for z := lo[2]; z <= hi[2]; z++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for x := lo[0]; x <= hi[0]; x++ {
				addr, _ := s.vg.AddrByPosInt([3]int{x, y, z})
				for _, i := range s.vg.GetByAddr(addr) {
					if d := s.ra.Vec3At(i).Sub(p).Norm(); d <= r {
						out = append(out, Neighbor{Index: i, Dist: d})
					}
				}
			}
		}
	}
	sortNeighbors(out)
	return out
}

func (s *VoxelGrid) KNearest(p mat.Vec3, k int) []Neighbor {
	if k <= 0 {
		return nil
	}
	size := s.vg.Size()
	maxShell := size[0]
	if size[1] > maxShell {
		maxShell = size[1]
	}
	if size[2] > maxShell {
		maxShell = size[2]
	}
	c := s.vg.PosIntClamped(p)
	res := s.vg.Resolution()

	var out []Neighbor
	for shell := 0; shell <= maxShell; shell++ {
		s.visitShell(c, shell, func(i int) {
			out = append(out, Neighbor{Index: i, Dist: s.ra.Vec3At(i).Sub(p).Norm()})
		})
		if len(out) < k {
			continue
		}
		sortNeighbors(out)
		// Points in the outer shells are at least shell*res away.
		if out[k-1].Dist < float32(shell)*res {
			break
		}
	}
	sortNeighbors(out)
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// visitShell calls fn for each point in the voxels at Chebyshev distance shell from c.
func (s *VoxelGrid) visitShell(c [3]int, shell int, fn func(int)) {
	for z := c[2] - shell; z <= c[2]+shell; z++ {
		for y := c[1] - shell; y <= c[1]+shell; y++ {
			onFace := z == c[2]-shell || z == c[2]+shell || y == c[1]-shell || y == c[1]+shell
			step := 1
			if !onFace && shell > 0 {
				step = 2 * shell
			}
			for x := c[0] - shell; x <= c[0]+shell; x += step {
				addr, ok := s.vg.AddrByPosInt([3]int{x, y, z})
				if !ok {
					continue
				}
				for _, i := range s.vg.GetByAddr(addr) {
					fn(i)
				}
			}
		}
	}
}

func (s *VoxelGrid) Nearest(p mat.Vec3, maxRange float32) (Neighbor, bool) {
	ns := s.KNearest(p, 1)
	if len(ns) == 0 || ns[0].Dist > maxRange {
		return Neighbor{Index: -1}, false
	}
	return ns[0], true
}
