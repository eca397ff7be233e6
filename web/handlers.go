package web

import (
	"bytes"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zlabs/elu_browser/exporter"
	"github.com/zlabs/elu_browser/utils"
	"github.com/zlabs/elu_browser/vfs"
	"github.com/zlabs/elu_browser/webutils"
)

func (s *Server) HandlerAjaxList(w http.ResponseWriter, r *http.Request) {
	if files, err := s.pack.List(); err != nil {
		webutils.WriteError(w, err)
	} else {
		if files == nil {
			files = []string{}
		}
		webutils.WriteJson(w, files)
	}
}

func (s *Server) HandlerAjaxModel(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	inst, err := s.pack.Instance(file)
	if err != nil {
		s.log.Warn("Error getting model", zap.String("file", file), zap.Error(err))
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, s.summary(inst))
}

func (s *Server) HandlerDumpModel(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	format := mux.Vars(r)["format"]

	sc, err := s.pack.Scene(file)
	if err != nil {
		s.log.Warn("Error getting model", zap.String("file", file), zap.Error(err))
		webutils.WriteError(w, err)
		return
	}

	switch format {
	case "yaml":
		webutils.WriteYaml(w, sc)
		return
	case "spew":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		utils.FDump(w, sc)
		return
	}

	f, err := exporter.ParseFormat(format)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	var buf bytes.Buffer
	err = exporter.Export(&buf, sc, f, exporter.Options{
		Scene:       s.pack.SceneOptions(file),
		Exists:      s.pack.TextureExists,
		ReadFile:    s.pack.ReadTexture,
		EmbedImages: true,
		Logger:      s.log,
	})
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Export %s", format))
		return
	}
	webutils.WriteFile(w, &buf, f.FileName(file))
}

func (s *Server) HandlerDownloadModel(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	f, err := vfs.DirectoryGetFile(s.pack.Directory(), file)
	if err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusNotFound)
		return
	}

	reader, err := vfs.OpenFileAndGetReader(f)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	defer f.Close()
	webutils.WriteFile(w, reader, f.Name())
}
