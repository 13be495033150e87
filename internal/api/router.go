package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	// Registers the OpenAPI document served by httpSwagger.
	_ "askflow/backend/docs"
)

// Handlers groups the HTTP handlers mounted by NewRouter. Files is nil when
// blobs are served by an external bucket.
type Handlers struct {
	Chat     *ChatHandler
	Exchange *ExchangeHandler
	Models   *ModelHandler
	Files    *FileHandler
}

// NewRouter creates and configures a new chi router with all the application's routes.
func NewRouter(h Handlers, auth func(http.Handler) http.Handler, metrics http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	if h.Files != nil {
		r.Get("/files/*", h.Files.ServeFile)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth)

		// Standard JSON routes get a request timeout so connections cannot hang.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/settings", h.Chat.GetSettings)
			r.Post("/settings", h.Chat.UpdateSettings)

			r.Get("/chats", h.Chat.GetChats)
			r.Get("/chats/{chatID}", h.Chat.GetChat)
			r.Put("/chats/{chatID}/title", h.Chat.UpdateChatTitle)
			r.Delete("/chats/{chatID}", h.Chat.HandleDeleteChat)
			r.Post("/chats/stop", h.Exchange.HandleStop)

			r.Get("/spaces", h.Chat.GetSpaces)
			r.Post("/spaces", h.Chat.CreateSpace)
			r.Get("/spaces/{spaceID}", h.Chat.GetSpace)

			r.Get("/history", h.Chat.GetHistory)

			r.Get("/models", h.Models.HandleListModels)
		})

		// Streaming routes hold the connection open and must NOT have a timeout.
		r.Group(func(r chi.Router) {
			r.Post("/chats/messages", h.Exchange.HandleStreamMessage)
			r.Get("/chats/ws", h.Exchange.HandleWebSocket)
		})
	})

	return r
}
