package web

import (
	"net/http"
	"os"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zlabs/elu_browser/pack"
	"github.com/zlabs/elu_browser/status"
)

type Server struct {
	pack *pack.Pack
	hub  *status.Hub
	log  *zap.Logger
	// static files, not served when empty
	webPath string
}

func NewServer(p *pack.Pack, hub *status.Hub, webPath string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{pack: p, hub: hub, webPath: webPath, log: log.Named("web")}
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/json/elu", s.HandlerAjaxList)
	r.HandleFunc("/json/elu/{file:.+}", s.HandlerAjaxModel)
	r.HandleFunc("/dump/elu/{file:.+}/{format:glb|gltf|fbx|zip|yaml|spew}", s.HandlerDumpModel)
	r.HandleFunc("/download/elu/{file:.+}", s.HandlerDownloadModel)
	if s.hub != nil {
		r.Handle("/ws/status", s.hub)
	}
	r.Handle("/metrics", promhttp.Handler())

	if s.webPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(s.webPath, "data"))))
	}

	return handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(s.log)))(r)
}

func StartServer(addr string, p *pack.Pack, hub *status.Hub, webPath string, log *zap.Logger) error {
	s := NewServer(p, hub, webPath, log)
	h := handlers.LoggingHandler(os.Stdout, s.Router())

	s.log.Info("Starting server", zap.String("addr", addr))

	return http.ListenAndServe(addr, h)
}
