package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerInternalIngestionRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/ingestion/matches", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.IngestMatches)))
	mux.Handle("POST /v1/internal/ingestion/matches/{gameID}", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.IngestMatch)))
	mux.Handle("POST /v1/internal/ingestion/recent-games", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.IngestRecentGames)))
}
