package web

import (
	"net/http"
	"os"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tmmtools/tmm_browser/vfs"
)

var log = logrus.WithField("component", "web")

type Server struct {
	dir      vfs.Directory
	upgrader websocket.Upgrader
}

func NewServer(d vfs.Directory) *Server {
	return &Server{
		dir: d,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Router builds the route table. Static files are served from
// webPath/data when webPath is not empty.
func (s *Server) Router(webPath string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/pack", s.HandlerAjaxPack).Methods("GET")
	r.HandleFunc("/json/pack/{file}", s.HandlerAjaxPackFile).Methods("GET")
	r.HandleFunc("/json/pack/{file}/model/{index:[0-9]+}", s.HandlerAjaxPackFileModel).Methods("GET")
	r.HandleFunc("/dump/pack/{file}", s.HandlerDumpPackFile).Methods("GET")
	r.HandleFunc("/action/{file}/{action}", s.HandlerActionPackFile).Methods("GET")
	r.HandleFunc("/upload/pack/{file}", s.HandlerUploadPackFile).Methods("POST")
	r.HandleFunc("/ws/status", s.HandlerStatus)

	if webPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))
	}
	return r
}

func StartServer(addr string, d vfs.Directory, webPath string) error {
	r := NewServer(d).Router(webPath)

	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(r)
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Infof("Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
