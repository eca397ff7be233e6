package fbxbuilder

import (
	"archive/zip"
	"io"
	"os"
	"sort"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"
)

type FBXBuilder struct {
	f      *fbx.FBX
	c      map[string]interface{}
	lastId int64
	files  map[string][]byte

	definitions *fbx.Node
	objects     *fbx.Node
	connections *fbx.Node
}

func NewFBXBuilder(filename string) *FBXBuilder {
	return NewFBXBuilderFor(DefaultApplication, filename)
}

// NewFBXBuilderFor builds a document stamped with the given application.
func NewFBXBuilderFor(app Application, filename string) *FBXBuilder {
	f := &FBXBuilder{
		c:           make(map[string]interface{}),
		files:       make(map[string][]byte),
		lastId:      1000000,
		f:           fbx.NewFBX(7400),
		definitions: bfbx73.Definitions(),
		objects:     bfbx73.Objects(),
		connections: bfbx73.Connections(),
	}
	f.Root().AddNodes(
		app.headerExtension(filename),
		bfbx73.FileId(fileId),
		bfbx73.CreationTime(epochCreation),
		bfbx73.Creator(sdkCreator),
		globalSettings(),
		sceneDocument(f.GenerateId()),
		bfbx73.References(),
		f.definitions,
		f.objects,
		f.connections,
		bfbx73.Takes().AddNodes(bfbx73.Current("")),
	)
	return f
}

func (f *FBXBuilder) Root() *fbx.Node {
	return &f.f.Root
}

// AddCache keeps the first value stored under key.
func (f *FBXBuilder) AddCache(key string, d interface{}) {
	if _, ok := f.c[key]; !ok {
		f.c[key] = d
	}
}

func (f *FBXBuilder) GetCached(key string) (interface{}, bool) {
	v, ok := f.c[key]
	return v, ok
}

func (f *FBXBuilder) GenerateId() int64 {
	f.lastId++
	return f.lastId
}

// Write encodes through a temp file, the encoder needs to seek back
// to patch node end offsets.
func (f *FBXBuilder) Write(w io.Writer) error {
	f.definitions.Nodes = definitions(f.objects)

	tempFile, err := os.CreateTemp("", "fbxexport.*.fbx")
	if err != nil {
		return err
	}
	defer tempFile.Close()
	defer os.Remove(tempFile.Name())

	if err := fbx.Write(tempFile, f.f); err != nil {
		return errors.Wrapf(err, "Unable to encode fbx")
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "Unable to seek")
	}
	_, err = io.Copy(w, tempFile)
	return err
}

func (f *FBXBuilder) AddExportFile(name string, data []byte) {
	f.files[name] = data
}

// ExportFiles lists the side files shipped with the fbx, sorted by name.
func (f *FBXBuilder) ExportFiles() []string {
	names := make([]string, 0, len(f.files))
	for name := range f.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *FBXBuilder) WriteZip(w io.Writer, name string) error {
	zw := zip.NewWriter(w)

	fbxW, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "Can't create zip fbx for %q", name)
	}
	if err := f.Write(fbxW); err != nil {
		return errors.Wrapf(err, "Fbx exporting failed")
	}

	for _, name := range f.ExportFiles() {
		file := f.files[name]
		fw, err := zw.Create(name)
		if err != nil {
			return errors.Wrapf(err, "Can't create zip for %q", name)
		}
		if _, err := fw.Write(file); err != nil {
			return errors.Wrapf(err, "Can't write zip for %q", name)
		}
	}

	return zw.Close()
}

func (f *FBXBuilder) AddObjects(nodes ...*fbx.Node)     { f.objects.AddNodes(nodes...) }
func (f *FBXBuilder) AddConnections(nodes ...*fbx.Node) { f.connections.AddNodes(nodes...) }

func (f *FBXBuilder) Objects() *fbx.Node     { return f.objects }
func (f *FBXBuilder) Connections() *fbx.Node { return f.connections }

// RawNode builds a node bfbx73 has no constructor for.
func RawNode(name string, properties ...interface{}) *fbx.Node {
	return &fbx.Node{Name: name, Properties: properties}
}
