package engine

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"simplerenderer/internal/noise"
)

// BuiltinPrefix selects a generated mesh instead of a file.
const BuiltinPrefix = "builtin:"

// Terrain generation parameters.
const (
	TerrainSize   = 32
	TerrainSeed   = 1337
	terrainScale  = 0.15
	terrainHeight = 0.35
	terrainOctave = 4
)

var builtins = map[string]func() *Mesh{
	"cube":    cubeMesh,
	"plane":   planeMesh,
	"tetra":   tetraMesh,
	"terrain": func() *Mesh { return TerrainMesh(TerrainSize, TerrainSeed) },
}

// BuiltinNames lists the generated meshes in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin generates the named mesh. All builtins fit in a unit cube centred
// on the origin and wind counter-clockwise seen from outside.
func Builtin(name string) (*Mesh, error) {
	gen, ok := builtins[name]
	if !ok {
		return nil, errors.Errorf("unknown builtin mesh %q", name)
	}
	return gen(), nil
}

// quad appends the two triangles of the square centred at n spanned by u and
// v. u x v must point along n.
func quad(tris []Triangle, n, u, v mgl32.Vec3) []Triangle {
	p00 := n.Sub(u).Sub(v)
	p10 := n.Add(u).Sub(v)
	p11 := n.Add(u).Add(v)
	p01 := n.Sub(u).Add(v)
	return append(tris, Tri(p00, p10, p11), Tri(p00, p11, p01))
}

func cubeMesh() *Mesh {
	x := mgl32.Vec3{0.5, 0, 0}
	y := mgl32.Vec3{0, 0.5, 0}
	z := mgl32.Vec3{0, 0, 0.5}

	var tris []Triangle
	tris = quad(tris, x, y, z)
	tris = quad(tris, x.Mul(-1), z, y)
	tris = quad(tris, y, z, x)
	tris = quad(tris, y.Mul(-1), x, z)
	tris = quad(tris, z, x, y)
	tris = quad(tris, z.Mul(-1), y, x)
	return &Mesh{Name: "cube", Triangles: tris}
}

func planeMesh() *Mesh {
	return &Mesh{Name: "plane", Triangles: quad(nil, mgl32.Vec3{}, mgl32.Vec3{0, 0, 0.5}, mgl32.Vec3{0.5, 0, 0})}
}

func tetraMesh() *Mesh {
	v := [4]mgl32.Vec3{
		{0.5, 0.5, 0.5},
		{0.5, -0.5, -0.5},
		{-0.5, 0.5, -0.5},
		{-0.5, -0.5, 0.5},
	}
	faces := [4][3]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}}

	tris := make([]Triangle, 0, len(faces))
	for _, f := range faces {
		t := Tri(v[f[0]], v[f[1]], v[f[2]])
		if t.Normal().Dot(t.Centroid()) < 0 {
			t = Tri(v[f[0]], v[f[2]], v[f[1]])
		}
		tris = append(tris, t)
	}
	return &Mesh{Name: "tetra", Triangles: tris}
}

// TerrainMesh builds a size x size cell heightfield over the unit square in
// XZ with heights from fractal noise.
func TerrainMesh(size int, seed int64) *Mesh {
	if size < 1 {
		size = 1
	}
	gen := noise.NewGenerator(seed)
	step := 1 / float32(size)

	point := func(i, j int) mgl32.Vec3 {
		x := float32(i)*step - 0.5
		z := float32(j)*step - 0.5
		h := gen.FBM2D(float32(i)*terrainScale, float32(j)*terrainScale, terrainOctave, 2, 0.5)
		return mgl32.Vec3{x, h * terrainHeight, z}
	}

	tris := make([]Triangle, 0, 2*size*size)
	for j := 0; j < size; j++ {
		for i := 0; i < size; i++ {
			p00, p10 := point(i, j), point(i+1, j)
			p01, p11 := point(i, j+1), point(i+1, j+1)
			tris = append(tris, Tri(p00, p01, p10), Tri(p10, p01, p11))
		}
	}
	return &Mesh{Name: "terrain", Triangles: tris}
}
