package voxelgrid

import (
	"github.com/seqsense/pcreg/mat"
)

type VoxelGrid struct {
	voxel         [][]int
	size          [3]int
	origin        mat.Vec3
	resolution    float32
	resolutionInv float32
}

func New(resolution float32, size [3]int, origin mat.Vec3) *VoxelGrid {
	return &VoxelGrid{
		voxel:         make([][]int, size[0]*size[1]*size[2]),
		size:          size,
		origin:        origin,
		resolution:    resolution,
		resolutionInv: 1 / resolution,
	}
}

// SizeFor returns the number of voxels per axis required to store
// all points in the bounding box [min, max].
func SizeFor(resolution float32, min, max mat.Vec3) [3]int {
	inv := 1 / resolution
	span := max.Sub(min)
	return [3]int{
		int(span[0]*inv) + 1,
		int(span[1]*inv) + 1,
		int(span[2]*inv) + 1,
	}
}

func (v *VoxelGrid) Add(p mat.Vec3, index int) bool {
	addr, ok := v.Addr(p)
	if !ok {
		return false
	}
	ptr := &v.voxel[addr]
	*ptr = append(*ptr, index)
	return true
}

func (v *VoxelGrid) Get(p mat.Vec3) []int {
	addr, ok := v.Addr(p)
	if !ok {
		return nil
	}
	return v.voxel[addr]
}

func (v *VoxelGrid) GetByAddr(a int) []int {
	return v.voxel[a]
}

func (v *VoxelGrid) Addr(p mat.Vec3) (int, bool) {
	pos, ok := v.PosInt(p)
	if !ok {
		return 0, false
	}
	return pos[0] + (pos[1]+pos[2]*v.size[1])*v.size[0], true
}

func (v *VoxelGrid) AddrByPosInt(p [3]int) (int, bool) {
	x, y, z := p[0], p[1], p[2]
	if x < 0 || y < 0 || z < 0 || x >= v.size[0] || y >= v.size[1] || z >= v.size[2] {
		return 0, false
	}
	return x + (y+z*v.size[1])*v.size[0], true
}

func (v *VoxelGrid) PosInt(p mat.Vec3) ([3]int, bool) {
	pos := p.Sub(v.origin)
	if pos[0] < 0 || pos[1] < 0 || pos[2] < 0 {
		return [3]int{}, false
	}
	x := int(pos[0] * v.resolutionInv)
	y := int(pos[1] * v.resolutionInv)
	z := int(pos[2] * v.resolutionInv)
	if x < 0 || y < 0 || z < 0 || x >= v.size[0] || y >= v.size[1] || z >= v.size[2] {
		// NaN
		return [3]int{}, false
	}
	return [3]int{x, y, z}, true
}

// PosIntClamped returns the voxel position of p clamped into the grid.
func (v *VoxelGrid) PosIntClamped(p mat.Vec3) [3]int {
	pos := p.Sub(v.origin)
	var out [3]int
	for i := range out {
		f := pos[i] * v.resolutionInv
		switch {
		case f < 0 || f != f:
			out[i] = 0
		case f >= float32(v.size[i]):
			out[i] = v.size[i] - 1
		default:
			out[i] = int(f)
		}
	}
	return out
}

func (v *VoxelGrid) Size() [3]int {
	return v.size
}

func (v *VoxelGrid) Resolution() float32 {
	return v.resolution
}

func (v *VoxelGrid) Len() int {
	return v.size[0] * v.size[1] * v.size[2]
}
