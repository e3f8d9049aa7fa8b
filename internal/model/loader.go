package model

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
)

// Loader produces the compiled tables of a module. Implementations must be
// safe for concurrent use; the store serializes calls anyway.
type Loader interface {
	Load(m Module) (Table, error)
}

//go:embed data/*.yaml
var embedded embed.FS

// FSLoader reads YAML artifacts from a file system.
type FSLoader struct {
	fsys fs.FS
	name string
}

// NewFSLoader returns a loader reading artifacts from the root of fsys.
func NewFSLoader(fsys fs.FS, name string) *FSLoader {
	return &FSLoader{fsys: fsys, name: name}
}

// NewDirLoader reads artifacts from a directory on disk.
func NewDirLoader(dir string) *FSLoader {
	return NewFSLoader(os.DirFS(dir), dir)
}

// NewEmbeddedLoader reads the default artifacts compiled into the binary.
func NewEmbeddedLoader() *FSLoader {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return NewFSLoader(sub, "embedded")
}

// Source names where the loader reads from.
func (l *FSLoader) Source() string {
	return l.name
}

// Load reads and compiles the artifact of m.
func (l *FSLoader) Load(m Module) (Table, error) {
	file, ok := ArtifactFile(m)
	if !ok {
		return nil, fmt.Errorf("no artifact for module %s", m)
	}
	data, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	t, err := Compile(m, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return t, nil
}
