package pcd

import (
	"errors"
	"fmt"

	"github.com/seqsense/pcreg/pcd/internal/float"
)

type PointCloudHeader struct {
	Version   float32
	Fields    []string
	Size      []int
	Type      []string
	Count     []int
	Width     int
	Height    int
	Viewpoint []float32
}

func (h *PointCloudHeader) Stride() int {
	var stride int
	for i := range h.Fields {
		stride += h.Count[i] * h.Size[i]
	}
	return stride
}

type PointCloud struct {
	PointCloudHeader
	Points int

	Data      []byte
	dataFloat []float32
}

// New allocates an unorganized cloud of n points with the given float32 fields.
func New(n int, fields ...string) *PointCloud {
	h := PointCloudHeader{
		Version: 0.7,
		Fields:  fields,
		Size:    make([]int, len(fields)),
		Type:    make([]string, len(fields)),
		Count:   make([]int, len(fields)),
		Width:   n,
		Height:  1,
	}
	for i := range fields {
		h.Size[i], h.Type[i], h.Count[i] = 4, "F", 1
	}
	return &PointCloud{
		PointCloudHeader: h,
		Points:           n,
		Data:             make([]byte, n*h.Stride()),
	}
}

// NewPointNormal builds a cloud with x, y, z and normal_x, normal_y, normal_z fields.
// normals may be nil.
func NewPointNormal(points, normals Vec3RandomAccessor) (*PointCloud, error) {
	fields := []string{"x", "y", "z"}
	if normals != nil {
		if normals.Len() != points.Len() {
			return nil, fmt.Errorf("%w: %d points but %d normals", ErrInvalidInput, points.Len(), normals.Len())
		}
		fields = append(fields, "normal_x", "normal_y", "normal_z")
	}
	pc := New(points.Len(), fields...)
	it, err := pc.Vec3Iterator()
	if err != nil {
		return nil, err
	}
	for i := 0; i < points.Len(); i++ {
		it.SetVec3(points.Vec3At(i))
		it.Incr()
	}
	if normals == nil {
		return pc, nil
	}
	nt, err := pc.NormalIterator()
	if err != nil {
		return nil, err
	}
	for i := 0; i < normals.Len(); i++ {
		nt.SetVec3(normals.Vec3At(i))
		nt.Incr()
	}
	return pc, nil
}

func (pc *PointCloud) HasField(name string) bool {
	for _, fn := range pc.Fields {
		if fn == name {
			return true
		}
	}
	return false
}

func (pc *PointCloud) Float32Iterator(name string) (Float32Iterator, error) {
	offset := 0
	for i, fn := range pc.Fields {
		if fn == name {
			if pc.Stride()&3 == 0 && offset&3 == 0 {
				// Aligned
				if pc.dataFloat == nil {
					pc.dataFloat = float.ByteSliceAsFloat32Slice(pc.Data)
				}
				return &float32Iterator{
					data:   pc.dataFloat,
					pos:    offset / 4,
					start:  offset / 4,
					stride: pc.Stride() / 4,
				}, nil
			}
			return &binaryFloat32Iterator{
				binaryIterator: binaryIterator{
					data:   pc.Data,
					pos:    offset,
					start:  offset,
					stride: pc.Stride(),
				},
			}, nil
		}
		offset += pc.Size[i] * pc.Count[i]
	}
	return nil, errors.New("invalid field name")
}

func (pc *PointCloud) Float32Iterators(names ...string) ([]Float32Iterator, error) {
	var its []Float32Iterator
	for _, name := range names {
		it, err := pc.Float32Iterator(name)
		if err != nil {
			return nil, err
		}
		its = append(its, it)
	}
	return its, nil
}

func (pc *PointCloud) Vec3Iterator() (Vec3Iterator, error) {
	return pc.vec3Iterator("x", "y", "z")
}

// NormalIterator iterates over normal_x, normal_y and normal_z fields.
func (pc *PointCloud) NormalIterator() (Vec3Iterator, error) {
	return pc.vec3Iterator("normal_x", "normal_y", "normal_z")
}

func (pc *PointCloud) vec3Iterator(x, y, z string) (Vec3Iterator, error) {
	var xyz int
	for _, name := range pc.Fields {
		if name == x && xyz == 0 {
			xyz = 1
		} else if name == y && xyz == 1 {
			xyz = 2
		} else if name == z && xyz == 2 {
			xyz = 3
		} else if xyz > 0 && xyz < 3 {
			xyz = -1
		}
	}
	if xyz != 3 {
		return pc.naiveVec3Iterator(x, y, z)
	}
	it, err := pc.Float32Iterator(x)
	if err != nil {
		return nil, err
	}
	vit, ok := it.(*float32Iterator)
	if !ok {
		return pc.naiveVec3Iterator(x, y, z)
	}
	return vit, nil
}

func (pc *PointCloud) naiveVec3Iterator(x, y, z string) (Vec3Iterator, error) {
	its, err := pc.Float32Iterators(x, y, z)
	if err != nil {
		return nil, err
	}
	return naiveVec3Iterator{its[0], its[1], its[2]}, nil
}
