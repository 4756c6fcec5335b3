package httpapi

import "net/http"

// NewRouter wires the public routes. Everything except the health probe
// sits behind bearer-token auth.
func NewRouter(h *Handler, jwtSecret []byte) http.Handler {
	mux := http.NewServeMux()

	// POST /media/uploads
	mux.Handle("/media/uploads", withAuth(jwtSecret, http.HandlerFunc(h.CreateUpload)))

	// GET /media?attachable_type=...&attachable_id=...
	mux.Handle("/media", withAuth(jwtSecret, http.HandlerFunc(h.ListMedia)))

	// GET /media/{id}/variants/{size}/url
	// Trailing slash so the handler can parse the id and size itself.
	mux.Handle("/media/", withAuth(jwtSecret, http.HandlerFunc(h.VariantReadURL)))

	mux.HandleFunc("/health", h.Health)

	return mux
}
