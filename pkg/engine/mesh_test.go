package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"simplerenderer/internal/logger"
)

const quadOBJ = `# unit quad
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`

func TestBuiltinsWindOutward(t *testing.T) {
	for _, name := range []string{"cube", "tetra"} {
		mesh, err := Builtin(name)
		if err != nil {
			t.Fatal(err)
		}
		for i, tri := range mesh.Triangles {
			if tri.Normal().Dot(tri.Centroid()) <= 0 {
				t.Errorf("%s triangle %d faces inward", name, i)
			}
		}
	}

	cube, _ := Builtin("cube")
	if len(cube.Triangles) != 12 {
		t.Errorf("cube has %d triangles, want 12", len(cube.Triangles))
	}
	plane, _ := Builtin("plane")
	for _, tri := range plane.Triangles {
		if tri.Normal()[1] <= 0 {
			t.Error("plane does not face +Y")
		}
	}
}

func TestTerrainMesh(t *testing.T) {
	mesh, err := Builtin("terrain")
	if err != nil {
		t.Fatal(err)
	}
	if want := 2 * TerrainSize * TerrainSize; len(mesh.Triangles) != want {
		t.Errorf("terrain has %d triangles, want %d", len(mesh.Triangles), want)
	}
	for i, tri := range mesh.Triangles {
		if tri.Normal()[1] <= 0 {
			t.Fatalf("terrain triangle %d faces down", i)
		}
	}

	a, b := TerrainMesh(8, 5), TerrainMesh(8, 5)
	for i := range a.Triangles {
		if a.Triangles[i] != b.Triangles[i] {
			t.Fatal("terrain is not deterministic for a seed")
		}
	}
}

func TestBuiltinNames(t *testing.T) {
	if got := strings.Join(BuiltinNames(), ","); got != "cube,plane,terrain,tetra" {
		t.Errorf("BuiltinNames() = %s", got)
	}
	if _, err := Builtin("sphere"); err == nil {
		t.Error("unknown builtin accepted")
	}
}

func TestLoadOBJTriangulates(t *testing.T) {
	mesh, err := LoadOBJ(strings.NewReader(quadOBJ), "quad")
	if err != nil {
		t.Fatal(err)
	}
	if len(mesh.Triangles) != 2 {
		t.Fatalf("quad decoded into %d triangles, want 2", len(mesh.Triangles))
	}
	for i, tri := range mesh.Triangles {
		if tri.Normal()[2] <= 0 {
			t.Errorf("triangle %d normal = %v, want +Z", i, tri.Normal())
		}
		if tri.V[0] != mesh.Triangles[0].V[0] {
			t.Errorf("triangle %d does not share the fan origin", i)
		}
	}
}

func TestLoadOBJErrors(t *testing.T) {
	tests := map[string]string{
		"no faces":  "o empty\nv 0 0 0\nv 1 0 0\nv 0 1 0\n",
		"bad index": "o broken\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n",
	}
	for name, src := range tests {
		if _, err := LoadOBJ(strings.NewReader(src), name); err == nil {
			t.Errorf("%s: LoadOBJ succeeded", name)
		}
	}
}

func TestLoadMeshFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(path, []byte(quadOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	mesh, err := LoadMesh(path)
	if err != nil {
		t.Fatal(err)
	}
	if mesh.Name != "quad" {
		t.Errorf("Name = %q, want quad", mesh.Name)
	}

	for _, bad := range []string{filepath.Join(t.TempDir(), "missing.obj"), "model.fbx"} {
		if _, err := LoadMesh(bad); err == nil {
			t.Errorf("LoadMesh(%q) succeeded", bad)
		}
	}
}

func TestRegistryDeduplicates(t *testing.T) {
	reg := NewMeshRegistry(logger.Discard())

	a, err := reg.Register("builtin:cube")
	if err != nil || !a.Valid() {
		t.Fatalf("Register = %v, %v", a, err)
	}
	b, _ := reg.Register("builtin:cube")
	if a != b || reg.Len() != 1 {
		t.Errorf("second Register = %v (first %v), %d meshes", b, a, reg.Len())
	}

	h, err := reg.Register("builtin:nothing")
	if err == nil || h != InvalidMesh {
		t.Errorf("Register(unknown) = %v, %v", h, err)
	}
	if _, ok := reg.Get(InvalidMesh); ok {
		t.Error("Get(InvalidMesh) succeeded")
	}
	if _, ok := reg.Get(MeshHandle(99)); ok {
		t.Error("Get(99) succeeded")
	}

	added := reg.Add(&Mesh{Name: "custom"})
	if m, ok := reg.Get(added); !ok || m.Name != "custom" {
		t.Errorf("Get(%d) = %v, %v", added, m, ok)
	}
}
