package mutate

import (
	"encoding/base64"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"tiledash/internal/model"
	"tiledash/internal/urlutil"
)

// Upload is an image supplied with an add or edit.
type Upload struct {
	Data        []byte
	ContentType string
	Filename    string
}

type TileInput struct {
	Name  string
	URL   string
	Group string
	Image *Upload
}

// BuildTile validates in and resolves the tile to store. prev is the tile being
// edited, or nil for a new tile.
//
// Image precedence: a new upload, then an uploaded image already on prev, then
// the favicon service for the tile's host.
func BuildTile(in TileInput, prev *model.Tile) (model.Tile, error) {
	name := strings.TrimSpace(in.Name)
	rawURL := strings.TrimSpace(in.URL)
	if name == "" || rawURL == "" {
		field := "name"
		if name != "" {
			field = "url"
		}
		return model.Tile{}, ValidationError{Field: field, Msg: "name and URL are required"}
	}

	t := model.Tile{
		Name:  name,
		URL:   urlutil.FixURL(rawURL),
		Group: model.NormalizeGroup(in.Group),
	}
	if prev != nil {
		t.ID = prev.ID
	} else {
		t.ID = model.NewTileID()
	}

	switch {
	case in.Image != nil:
		img, err := EncodeImage(*in.Image)
		if err != nil {
			return model.Tile{}, err
		}
		t.Img = img
	case prev != nil && prev.HasEmbeddedImage():
		t.Img = prev.Img
	default:
		t.Img = urlutil.FaviconURL(t.URL)
	}
	return t, nil
}

// EncodeImage returns a base64 data URI for an uploaded image. The content type
// comes from the upload, then the file extension, then content sniffing.
func EncodeImage(u Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", ValidationError{Field: "img", Msg: "image is empty"}
	}
	ct := strings.TrimSpace(u.ContentType)
	if ct == "" || ct == "application/octet-stream" {
		if ext := filepath.Ext(u.Filename); ext != "" {
			ct = mime.TypeByExtension(ext)
		}
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(u.Data)
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil || !strings.HasPrefix(mt, "image/") {
		return "", ValidationError{Field: "img", Msg: "not an image: " + ct}
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(u.Data), nil
}
