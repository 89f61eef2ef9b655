package api

import (
	"net/http"

	"github.com/ayusman/wavein/internal/gallery"
)

// GalleryHandler reports what the face gallery holds.
type GalleryHandler struct {
	gallery *gallery.Gallery
}

// NewGalleryHandler creates a handler over g.
func NewGalleryHandler(g *gallery.Gallery) *GalleryHandler {
	return &GalleryHandler{gallery: g}
}

type galleryIdentity struct {
	Name    string `json:"name"`
	Samples int    `json:"samples"`
}

type galleryResponse struct {
	Entries    int               `json:"entries"`
	Identities []galleryIdentity `json:"identities"`
}

// Info handles GET /api/gallery.
func (h *GalleryHandler) Info(w http.ResponseWriter, r *http.Request) {
	names := h.gallery.Names()
	resp := galleryResponse{
		Entries:    h.gallery.Len(),
		Identities: make([]galleryIdentity, 0, len(names)),
	}
	for _, n := range names {
		resp.Identities = append(resp.Identities, galleryIdentity{Name: n, Samples: h.gallery.Count(n)})
	}
	writeJSON(w, http.StatusOK, resp)
}
