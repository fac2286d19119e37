package engine

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"simplerenderer/internal/logger"
	"simplerenderer/internal/util"
)

// MeshHandle identifies a registered mesh. The zero value is InvalidMesh.
type MeshHandle uint32

// InvalidMesh is returned when registration fails. Drawing it is a no-op.
const InvalidMesh MeshHandle = 0

// Valid reports whether h refers to a mesh.
func (h MeshHandle) Valid() bool { return h != InvalidMesh }

// Mesh is an immutable ordered list of triangles.
type Mesh struct {
	Name      string
	Triangles []Triangle
}

// MeshRegistry owns every loaded mesh. Meshes are loaded once per source and
// never change after registration.
type MeshRegistry struct {
	mutex  sync.RWMutex
	meshes []*Mesh
	byPath map[string]MeshHandle
	log    *logger.Logger
}

// NewMeshRegistry creates an empty registry.
func NewMeshRegistry(log *logger.Logger) *MeshRegistry {
	return &MeshRegistry{byPath: make(map[string]MeshHandle), log: log}
}

// Register loads source, either a builtin name ("builtin:cube") or an OBJ
// file path, and returns its handle. A source that was already registered
// returns the existing handle. On failure the handle is InvalidMesh.
func (r *MeshRegistry) Register(source string) (MeshHandle, error) {
	r.mutex.RLock()
	h, ok := r.byPath[source]
	r.mutex.RUnlock()
	if ok {
		return h, nil
	}

	mesh, err := LoadMesh(source)
	if err != nil {
		r.log.Warnf("mesh %q not registered: %v", source, err)
		return InvalidMesh, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if h, ok := r.byPath[source]; ok {
		return h, nil
	}
	h = r.add(mesh)
	r.byPath[source] = h
	r.log.Debugf("registered mesh %q (%d triangles) as %d", source, len(mesh.Triangles), h)
	return h, nil
}

// Add registers an in-memory mesh. It is not deduplicated.
func (r *MeshRegistry) Add(mesh *Mesh) MeshHandle {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.add(mesh)
}

func (r *MeshRegistry) add(mesh *Mesh) MeshHandle {
	r.meshes = append(r.meshes, mesh)
	return MeshHandle(len(r.meshes))
}

// Get returns the mesh for h.
func (r *MeshRegistry) Get(h MeshHandle) (*Mesh, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if !h.Valid() || int(h) > len(r.meshes) {
		return nil, false
	}
	return r.meshes[h-1], true
}

// Len returns the number of registered meshes.
func (r *MeshRegistry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.meshes)
}

// LoadMesh loads a builtin or OBJ mesh without registering it.
func LoadMesh(source string) (*Mesh, error) {
	if name, ok := strings.CutPrefix(source, BuiltinPrefix); ok {
		return Builtin(name)
	}
	if !strings.EqualFold(filepath.Ext(source), ".obj") {
		return nil, errors.Errorf("unsupported mesh format %q", filepath.Ext(source))
	}
	if !util.FileExists(source) {
		return nil, errors.Errorf("mesh file %s not found", source)
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open mesh")
	}
	defer f.Close()

	return LoadOBJ(f, util.GetFileNameWithoutExt(source))
}

// LoadOBJ decodes Wavefront OBJ geometry. Polygons are fan-triangulated;
// materials, normals and texture coordinates are ignored.
func LoadOBJ(r io.Reader, name string) (*Mesh, error) {
	dec, err := obj.DecodeReader(r, bytes.NewReader(nil))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", name)
	}

	nverts := len(dec.Vertices) / 3
	vertex := func(idx int) (mgl32.Vec3, error) {
		if idx < 0 || idx >= nverts {
			return mgl32.Vec3{}, errors.Errorf("face references vertex %d of %d", idx, nverts)
		}
		return mgl32.Vec3{dec.Vertices[3*idx], dec.Vertices[3*idx+1], dec.Vertices[3*idx+2]}, nil
	}

	mesh := &Mesh{Name: name}
	for _, o := range dec.Objects {
		for _, face := range o.Faces {
			if len(face.Vertices) < 3 {
				continue
			}
			first, err := vertex(face.Vertices[0])
			if err != nil {
				return nil, errors.Wrapf(err, "object %s", o.Name)
			}
			for i := 1; i+1 < len(face.Vertices); i++ {
				b, err := vertex(face.Vertices[i])
				if err != nil {
					return nil, errors.Wrapf(err, "object %s", o.Name)
				}
				c, err := vertex(face.Vertices[i+1])
				if err != nil {
					return nil, errors.Wrapf(err, "object %s", o.Name)
				}
				mesh.Triangles = append(mesh.Triangles, Tri(first, b, c))
			}
		}
	}
	if len(mesh.Triangles) == 0 {
		return nil, errors.Errorf("%s contains no faces", name)
	}
	return mesh, nil
}
