package web_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmmtools/tmm_browser/pack/tmm"
	"github.com/tmmtools/tmm_browser/pack/tmm/tmmtest"
	"github.com/tmmtools/tmm_browser/status"
	"github.com/tmmtools/tmm_browser/vfs"
	"github.com/tmmtools/tmm_browser/web"
)

type fixture struct {
	dir    string
	raw    []byte
	doc    *tmm.TmmFile
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	dir := t.TempDir()
	doc := tmmtest.NewFile(21, tmmtest.Skinned, tmmtest.Static)
	raw, err := doc.Encode()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.tmm"), raw, 0666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.tmm.data"), []byte{1, 2, 3}, 0666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0666))

	return &fixture{
		dir:    dir,
		raw:    raw,
		doc:    doc,
		router: web.NewServer(vfs.NewDirectoryDriver(dir)).Router(""),
	}
}

func (f *fixture) get(t *testing.T, url string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", url, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) upload(t *testing.T, url string, doc interface{}) *httptest.ResponseRecorder {
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("data", "doc.json")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestListPack(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/json/pack")
	require.Equal(t, http.StatusOK, rec.Code)

	var files []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	assert.Equal(t, []string{"hero.tmm"}, files)
}

func TestGetFile(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/json/pack/hero.tmm")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var a tmm.Ajax
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "hero.tmm.data", a.DataFile)
	require.Len(t, a.Models, 2)
	assert.Equal(t, 5, a.Models[0].Bones)
	assert.Equal(t, f.doc.Header.ModelNames, a.File.Header.ModelNames)

	rec = f.get(t, "/json/pack/readme.txt")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = f.get(t, "/json/pack/nothere.tmm")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetModel(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/json/pack/hero.tmm/model/1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Summary tmm.ModelSummary
		Model   tmm.ModelInfo
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Summary.Index)
	assert.Equal(t, f.doc.ModelInfos[1].Materials, res.Model.Materials)

	rec = f.get(t, "/json/pack/hero.tmm/model/2")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "no model 2")
}

func TestDump(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/dump/pack/hero.tmm")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, f.raw, rec.Body.Bytes())
}

func TestActions(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/action/hero.tmm/encode")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, f.raw, rec.Body.Bytes())

	rec = f.get(t, "/action/hero.tmm/roundtrip")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Identical bool
		Models    int
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Identical)
	assert.Equal(t, 2, res.Models)

	rec = f.get(t, "/action/hero.tmm/layout")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "buf<ModelInfo>")

	rec = f.get(t, "/action/hero.tmm/spew")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), f.doc.Header.ModelNames[0])

	rec = f.get(t, "/action/hero.tmm/yaml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "modelinfos:")

	rec = f.get(t, "/action/hero.tmm/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "hero.tmm.json")

	rec = f.get(t, "/action/hero.tmm/explode")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUpload(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.dir, "hero.tmm")

	doc := tmmtest.NewFile(21, tmmtest.Skinned, tmmtest.Static)
	doc.ModelInfos[1].Materials[0] = "mat_renamed"
	want, err := doc.Encode()
	require.NoError(t, err)

	rec := f.upload(t, "/upload/pack/hero.tmm", doc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var saved map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, int64(len(want)), saved["size"])
	assert.Equal(t, int64(len(f.raw)), saved["previous"])
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// a document that cannot be encoded leaves the file alone
	doc.ModelInfos[0].BoneFloatData = nil
	rec = f.upload(t, "/upload/pack/hero.tmm", doc)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "BoneFloatData")
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	rec = f.get(t, "/upload/pack/hero.tmm")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatusSocket(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	status.Info("ready for %s", "hero.tmm")

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/status", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var m status.Message
	require.NoError(t, conn.ReadJSON(&m))
	assert.Equal(t, "ready for hero.tmm", m.Message)
	assert.Equal(t, status.INFO, m.Type)
}
