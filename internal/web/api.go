package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"tiledash/internal/mutate"
	"tiledash/internal/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	maxUploadBytes  = 8 << 20
	maxRestoreBytes = 32 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.cfg.Log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func statusFor(err error) int {
	var ve mutate.ValidationError
	var nf mutate.NotFoundError
	var mb *store.MalformedBackupError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &mb):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrEmptyCollection):
		return http.StatusConflict
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errCrossOrigin):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

var (
	errBadRequest       = errors.New("bad request")
	errUnsupportedMedia = errors.New("expected application/json or multipart/form-data")
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func mediaType(r *http.Request) string {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct
}

func isJSON(r *http.Request) bool { return mediaType(r) == "application/json" }

func isMultipart(r *http.Request) bool { return mediaType(r) == "multipart/form-data" }

// decodeBody reads a JSON body or, failing that, form values into dst keys.
func decodeBody(r *http.Request, dst any) error {
	if isJSON(r) {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(dst); err != nil {
			return badRequest("invalid json: %v", err)
		}
		return nil
	}
	return badRequest("expected application/json")
}

// readTileInput accepts JSON {name,url,group} or a multipart form with the
// same fields plus an optional "img" file.
func readTileInput(r *http.Request) (mutate.TileInput, error) {
	var in mutate.TileInput
	if isJSON(r) {
		var body struct {
			Name  string `json:"name"`
			URL   string `json:"url"`
			Group string `json:"group"`
		}
		if err := decodeBody(r, &body); err != nil {
			return in, err
		}
		return mutate.TileInput{Name: body.Name, URL: body.URL, Group: body.Group}, nil
	}

	if !isMultipart(r) {
		return in, errUnsupportedMedia
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return in, badRequest("invalid form: %v", err)
	}
	in.Name = r.FormValue("name")
	in.URL = r.FormValue("url")
	in.Group = r.FormValue("group")

	if r.MultipartForm != nil {
		f, hdr, err := r.FormFile("img")
		if err == nil {
			defer f.Close()
			data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
			if err != nil {
				return in, badRequest("read upload: %v", err)
			}
			if len(data) > 0 {
				in.Image = &mutate.Upload{
					Data:        data,
					ContentType: hdr.Header.Get("Content-Type"),
					Filename:    hdr.Filename,
				}
			}
		} else if !errors.Is(err, http.ErrMissingFile) {
			return in, badRequest("read upload: %v", err)
		}
	}
	return in, nil
}

func (s *Server) handleListTiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": s.cfg.Board.Tiles()})
}

func (s *Server) handleCreateTile(w http.ResponseWriter, r *http.Request) {
	in, err := readTileInput(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	t, err := s.cfg.Board.Save(r.Context(), in, "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": t})
}

func (s *Server) handleUpdateTile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	in, err := readTileInput(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	t, err := s.cfg.Board.Save(r.Context(), in, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": t})
}

func (s *Server) handleDeleteTile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.cfg.Board.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": id}})
}

type moveRequest struct {
	Dir int `json:"dir"`
}

func (s *Server) handleMoveTile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body moveRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	if body.Dir != -1 && body.Dir != 1 {
		s.writeError(w, badRequest("dir must be -1 or 1"))
		return
	}
	moved, err := s.cfg.Board.MoveTileByID(r.Context(), id, body.Dir)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"moved": moved}})
}

type groupRow struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	tiles := s.cfg.Board.Tiles()
	rows := []groupRow{}
	for _, sec := range store.Sections(tiles) {
		rows = append(rows, groupRow{Name: sec.Group, Count: len(sec.Indexes)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rows})
}

func (s *Server) handleMoveGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Group string `json:"group"`
		Dir   int    `json:"dir"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	if body.Dir != -1 && body.Dir != 1 {
		s.writeError(w, badRequest("dir must be -1 or 1"))
		return
	}
	moved, err := s.cfg.Board.MoveGroup(r.Context(), body.Group, body.Dir, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"moved": moved, "order": s.cfg.Board.GroupOrder()}})
}

func (s *Server) handleRenameGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Old string `json:"old"`
		New string `json:"new"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.cfg.Board.RenameGroup(r.Context(), body.Old, body.New); err != nil {
		s.writeError(w, err)
		return
	}
	s.cfg.Board.Refresh()
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"order": s.cfg.Board.GroupOrder()}})
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	doc, err := s.cfg.Board.Backup()
	if err != nil {
		s.writeError(w, err)
		return
	}
	name := store.BackupFileName(time.Now())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	_, _ = w.Write(doc)
}

// handleRestore takes the backup document as a JSON body or as a multipart
// "file" field.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var src io.Reader = r.Body
	switch {
	case isJSON(r):
	case isMultipart(r):
		if err := r.ParseMultipartForm(maxRestoreBytes); err != nil {
			s.writeError(w, badRequest("invalid form: %v", err))
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			s.writeError(w, badRequest("missing file: %v", err))
			return
		}
		defer f.Close()
		src = f
	default:
		s.writeError(w, errUnsupportedMedia)
		return
	}
	doc, err := io.ReadAll(io.LimitReader(src, maxRestoreBytes))
	if err != nil {
		s.writeError(w, badRequest("read body: %v", err))
		return
	}
	n, err := s.cfg.Board.Restore(r.Context(), doc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"restored": n}})
}
