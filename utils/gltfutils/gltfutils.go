package gltfutils

import (
	"io"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// GLTFCacher pairs a document with exported entities keyed by name,
// so repeated exports of the same entity land on the same index.
type GLTFCacher struct {
	Doc   *gltf.Document
	cache map[string]interface{}
}

func NewCacher() *GLTFCacher {
	return &GLTFCacher{
		Doc:   NewDocument(),
		cache: make(map[string]interface{}),
	}
}

func NewDocument() *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "elu_browser"
	return doc
}

// AddCache keeps the first value stored under key.
func (gc *GLTFCacher) AddCache(key string, v interface{}) {
	if _, ok := gc.cache[key]; !ok {
		gc.cache[key] = v
	}
}

func (gc *GLTFCacher) GetCached(key string) (interface{}, bool) {
	v, ok := gc.cache[key]
	return v, ok
}

func ExportBinary(w io.Writer, doc *gltf.Document) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return errors.Wrapf(encoder.Encode(doc), "Failed to encode glb")
}

// ExportEmbedded writes a .gltf with buffers inlined as data uris.
func ExportEmbedded(w io.Writer, doc *gltf.Document) error {
	for _, b := range doc.Buffers {
		if b.URI == "" {
			b.EmbeddedResource()
		}
	}
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = false
	return errors.Wrapf(encoder.Encode(doc), "Failed to encode gltf")
}
