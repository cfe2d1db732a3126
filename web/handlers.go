package web

import (
	"bytes"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tmmtools/tmm_browser/config"
	"github.com/tmmtools/tmm_browser/pack"
	"github.com/tmmtools/tmm_browser/pack/tmm"
	"github.com/tmmtools/tmm_browser/status"
	"github.com/tmmtools/tmm_browser/utils"
	"github.com/tmmtools/tmm_browser/vfs"
	"github.com/tmmtools/tmm_browser/webutils"
)

func (s *Server) HandlerAjaxPack(w http.ResponseWriter, r *http.Request) {
	if files, err := vfs.DirectoryFilesByExt(s.dir, ".tmm"); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, files)
	}
}

func (s *Server) loadTmm(file string) (*tmm.TmmFile, error) {
	data, err := pack.GetInstanceHandler(s.dir, file)
	if err != nil {
		return nil, err
	}
	f, ok := data.(*tmm.TmmFile)
	if !ok {
		return nil, errors.Errorf("File %s is not a tmm file", file)
	}
	return f, nil
}

func (s *Server) readRaw(file string) ([]byte, error) {
	f, err := vfs.DirectoryGetFile(s.dir, file)
	if err != nil {
		return nil, err
	}
	reader, err := vfs.OpenFileAndGetReader(f, true)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ioutil.ReadAll(reader)
}

func (s *Server) HandlerAjaxPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	f, err := s.loadTmm(file)
	if err != nil {
		log.WithError(err).WithField("file", file).Warn("Error getting file from pack")
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, f.Marshal(file))
}

func (s *Server) HandlerAjaxPackFileModel(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		webutils.WriteError(w, errors.Errorf("model index '%s' is not integer", mux.Vars(r)["index"]))
		return
	}
	f, err := s.loadTmm(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	if index >= len(f.ModelInfos) {
		webutils.WriteError(w, errors.Errorf("File %s has %d models, no model %d", file, len(f.ModelInfos), index))
		return
	}
	model := &f.ModelInfos[index]
	webutils.WriteJson(w, struct {
		Summary tmm.ModelSummary
		Model   *tmm.ModelInfo
	}{
		Summary: model.Summary(index, f.Header.ModelNames[index]),
		Model:   model,
	})
}

func (s *Server) HandlerDumpPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	raw, err := s.readRaw(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, bytes.NewReader(raw), file)
}

func (s *Server) HandlerActionPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	action := mux.Vars(r)["action"]
	cm := config.GetEncoding()

	switch action {
	case "layout":
		raw, err := s.readRaw(file)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		layout, err := tmm.DecodeLayout(raw, cm)
		if err != nil {
			layout += "\nERROR: " + err.Error() + "\n"
		}
		webutils.WriteText(w, layout)
	case "roundtrip":
		raw, err := s.readRaw(file)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		res := tmm.VerifyBytes(raw, cm)
		res.Path = file
		if res.Err != nil {
			status.Error("%s: round trip failed: %v", file, res.Err)
			webutils.WriteError(w, res.Err)
			return
		}
		status.Info("%s: round trip identical=%v", file, res.Identical)
		webutils.WriteJson(w, res)
	default:
		f, err := s.loadTmm(file)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		switch action {
		case "spew":
			webutils.WriteText(w, utils.SDump(f))
		case "json":
			webutils.WriteJsonFile(w, f, file)
		case "yaml":
			data, err := yaml.Marshal(f)
			if err != nil {
				webutils.WriteError(w, errors.Wrapf(err, "Failed to marshal yaml"))
				return
			}
			webutils.WriteFile(w, bytes.NewReader(data), file+".yaml")
		case "encode":
			var buf bytes.Buffer
			if err := f.MarshalTo(&buf, cm); err != nil {
				webutils.WriteError(w, err)
				return
			}
			webutils.WriteFile(w, &buf, file)
		default:
			webutils.WriteError(w, errors.Errorf("Unknown action %q", action))
		}
	}
}

// HandlerUploadPackFile takes a json document in the "data" form field,
// encodes it in memory and only then replaces the file.
func (s *Server) HandlerUploadPackFile(w http.ResponseWriter, r *http.Request) {
	targetFile := mux.Vars(r)["file"]

	var doc tmm.TmmFile
	if err := webutils.ReadJsonFile(r, "data", &doc); err != nil {
		webutils.WriteError(w, err)
		return
	}

	raw, err := doc.EncodeWithEncoding(config.GetEncoding())
	if err != nil {
		status.Error("%s: encode failed: %v", targetFile, err)
		webutils.WriteError(w, errors.Wrapf(err, "Error when encoding %s", targetFile))
		return
	}

	src, err := pack.GetResSrc(s.dir, targetFile)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	previous := src.Size()
	if err := src.Save(io.NewSectionReader(bytes.NewReader(raw), 0, int64(len(raw)))); err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Error when updating pack file"))
		return
	}
	status.Info("%s: saved %d bytes", targetFile, len(raw))
	webutils.WriteJson(w, map[string]int64{"size": int64(len(raw)), "previous": previous})
}

func (s *Server) HandlerStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	status.NewClient(conn)
}
