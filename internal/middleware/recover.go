package middleware

import (
	"net/http"
	"runtime/debug"

	"petmatch/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recover corta un panic del handler, lo loguea con el request id y responde
// 500. Ningún error de un request tumba el proceso.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("panic recovered", map[string]any{
					"request_id": chimw.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"panic":      rec,
					"stack":      string(debug.Stack()),
				})

				// Las conexiones websocket ya no aceptan headers.
				if r.Header.Get("Connection") != "Upgrade" {
					http.Error(w, "internal error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
