// Package exporter hands a decoded scene to the glTF or fbx sink and writes the result.
package exporter

import (
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zlabs/elu_browser/elu"
	"github.com/zlabs/elu_browser/metrics"
	"github.com/zlabs/elu_browser/scene"
	"github.com/zlabs/elu_browser/scene/fbxsink"
	"github.com/zlabs/elu_browser/scene/gltfsink"
)

type Format string

const (
	FormatGLB  Format = "glb"
	FormatGLTF Format = "gltf"
	FormatFBX  Format = "fbx"
	// fbx plus texture files
	FormatZip Format = "zip"
)

var Formats = []Format{FormatGLB, FormatGLTF, FormatFBX, FormatZip}

func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimPrefix(s, "."))
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", errors.Errorf("Unknown export format %q", s)
}

// FormatFromPath picks the format by output file extension.
func FormatFromPath(p string) (Format, error) {
	return ParseFormat(filepath.Ext(p))
}

// FileName replaces the model extension with the format one.
func (f Format) FileName(model string) string {
	// backslash separators regardless of host os
	base := path.Base(strings.ReplaceAll(model, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base)) + "." + string(f)
}

type Options struct {
	Scene scene.Options
	// texture lookups, default to the host filesystem
	Exists   func(path string) bool
	ReadFile func(path string) ([]byte, error)
	// glTF only: keep images inside the output instead of referencing files
	EmbedImages bool
	// glTF only: image uris relative to this directory
	RelativeTo string
	Logger     *zap.Logger
}

// Export materializes s into the sink for format f and writes it to w.
func Export(w io.Writer, s *elu.Scene, f Format, opts Options) (err error) {
	defer func() { metrics.ObserveExport(string(f), err) }()

	if opts.Scene.Logger == nil {
		opts.Scene.Logger = opts.Logger
	}

	switch f {
	case FormatGLB, FormatGLTF:
		sink := gltfsink.New(gltfsink.Options{
			EmbedImages: opts.EmbedImages,
			RelativeTo:  opts.RelativeTo,
			Exists:      opts.Exists,
			ReadFile:    opts.ReadFile,
			Logger:      opts.Logger,
		})
		if _, err := scene.Materialize(s, sink, opts.Scene); err != nil {
			return errors.Wrapf(err, "Failed to materialize %q", s.Name)
		}
		if f == FormatGLB {
			return sink.WriteBinary(w)
		}
		return sink.WriteJSON(w)
	case FormatFBX, FormatZip:
		name := FormatFBX.FileName(s.Name)
		sink := fbxsink.New(fbxsink.Options{
			FileName: name,
			ReadFile: opts.ReadFile,
			Logger:   opts.Logger,
		})
		if _, err := scene.Materialize(s, sink, opts.Scene); err != nil {
			return errors.Wrapf(err, "Failed to materialize %q", s.Name)
		}
		if f == FormatFBX {
			return sink.Write(w)
		}
		return sink.WriteZip(w, name)
	default:
		return errors.Errorf("Unknown export format %q", string(f))
	}
}
