package web

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"

	"tiledash/internal/board"
	"tiledash/internal/store"
	"tiledash/internal/urlutil"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

//go:embed templates/*.html static/*.js static/*.css
var assetsFS embed.FS

type ServerConfig struct {
	Board     *board.Board
	BoardName string
	Log       *zap.Logger
}

type Server struct {
	cfg   ServerConfig
	tmpl  *template.Template
	hub   *changeHub
	unsub func()
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Board == nil {
		return nil, errors.New("web: missing board")
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim":        strings.TrimSpace,
		"stripScheme": urlutil.StripScheme,
		"initial":     initial,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg, tmpl: tmpl, hub: newChangeHub()}
	s.unsub = cfg.Board.Subscribe(s.hub.broadcast)
	return s, nil
}

// Close detaches the server from the board and ends open websocket streams.
func (s *Server) Close() {
	if s.unsub != nil {
		s.unsub()
	}
	s.hub.stop()
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}).Methods("GET")
	r.HandleFunc("/static/app.css", s.handleStatic("static/app.css", "text/css; charset=utf-8")).Methods("GET")
	r.HandleFunc("/static/app.js", s.handleStatic("static/app.js", "text/javascript; charset=utf-8")).Methods("GET")
	r.HandleFunc("/ws", s.handleWS).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireSameOrigin)
	api.HandleFunc("/tiles", s.handleListTiles).Methods("GET")
	api.HandleFunc("/tiles", s.handleCreateTile).Methods("POST")
	api.HandleFunc("/tiles/{id}", s.handleUpdateTile).Methods("PUT")
	api.HandleFunc("/tiles/{id}", s.handleDeleteTile).Methods("DELETE")
	api.HandleFunc("/tiles/{id}/move", s.handleMoveTile).Methods("POST")
	api.HandleFunc("/groups", s.handleListGroups).Methods("GET")
	api.HandleFunc("/groups/move", s.handleMoveGroup).Methods("POST")
	api.HandleFunc("/groups/rename", s.handleRenameGroup).Methods("POST")
	api.HandleFunc("/backup", s.handleBackup).Methods("GET")
	api.HandleFunc("/restore", s.handleRestore).Methods("POST")

	return r
}

func (s *Server) handleStatic(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := assetsFS.ReadFile(path)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(b)
	}
}

type tileVM struct {
	ID       string
	Name     string
	URL      string
	Img      template.URL
	CanLeft  bool
	CanRight bool
}

type sectionVM struct {
	Name    string
	IsFirst bool
	IsLast  bool
	Tiles   []tileVM
}

type indexVM struct {
	Board    string
	Sections []sectionVM
	Groups   []string
	Empty    bool
}

func (s *Server) indexVM() indexVM {
	tiles := s.cfg.Board.Tiles()
	secs := store.Sections(tiles)
	vm := indexVM{
		Board:  s.cfg.BoardName,
		Groups: s.cfg.Board.Groups(),
		Empty:  len(tiles) == 0,
	}
	for i, sec := range secs {
		sv := sectionVM{Name: sec.Group, IsFirst: i == 0, IsLast: i == len(secs)-1}
		for j, idx := range sec.Indexes {
			t := tiles[idx]
			sv.Tiles = append(sv.Tiles, tileVM{
				ID:       t.ID,
				Name:     t.Name,
				URL:      t.URL,
				Img:      imageURL(t.Img),
				CanLeft:  j > 0,
				CanRight: j < len(sec.Indexes)-1,
			})
		}
		vm.Sections = append(vm.Sections, sv)
	}
	return vm
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, "index.html", s.indexVM()); err != nil {
		s.cfg.Log.Error("render index", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, b.String())
}

// initial is the placeholder glyph shown when a tile image fails to load.
func initial(name string) string {
	for _, r := range strings.TrimSpace(name) {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// imageURL marks tile images safe for src attributes. html/template rejects
// data: URIs by default; only embedded images and http(s) URLs pass.
func imageURL(s string) template.URL {
	lower := strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(lower, "data:image/") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") {
		return template.URL(s)
	}
	return ""
}
