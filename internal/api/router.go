package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/csmith1188/digipogs/internal/api/handlers"
	"github.com/csmith1188/digipogs/internal/api/httpx"
	"github.com/csmith1188/digipogs/internal/auth"
	"github.com/csmith1188/digipogs/internal/config"
	"github.com/csmith1188/digipogs/internal/metrics"
	"github.com/csmith1188/digipogs/internal/middleware"
	"github.com/csmith1188/digipogs/internal/models"
	"github.com/csmith1188/digipogs/internal/services"
)

type RouterDeps struct {
	Cfg         config.Config
	TM          *auth.TokenManager
	UserSvc     *services.UserService
	TransferSvc *services.TransferService
	AwardSvc    *services.AwardService
	PoolSvc     *services.PoolService
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(100))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	authHandler := handlers.NewAuthHandler(d.UserSvc, d.TM)
	authMW := middleware.NewAuthMiddleware(d.TM)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authMW.Auth)

			r.Get("/users/me", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				u, err := d.UserSvc.Get(r.Context(), uid)
				if err != nil {
					httpx.WriteError(w, http.StatusNotFound, "not_found", "account not found", nil)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, u)
			})

			r.Put("/users/me/pin", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				var req struct {
					Pin string `json:"pin"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				if err := d.UserSvc.SetPin(r.Context(), uid, req.Pin); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
			})

			r.Post("/digipogs/transfer", func(w http.ResponseWriter, r *http.Request) {
				var body transferBody
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				req, err := body.toRequest()
				if err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				writeResult(w, d.TransferSvc.Transfer(r.Context(), req))
			})

			r.Post("/digipogs/award", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				var body awardBody
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				writeResult(w, d.AwardSvc.Award(r.Context(), uid, body.target(), body.Amount, body.Reason))
			})

			r.Get("/digipogs/transactions", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				txs, err := d.UserSvc.Transactions(r.Context(), uid)
				if err != nil {
					httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, txs)
			})

			// Teachers can inspect any user's ledger.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(models.TeacherPermissions))
				r.Get("/users/{id}/transactions", func(w http.ResponseWriter, r *http.Request) {
					userID, ok := pathID(w, r, "id")
					if !ok {
						return
					}
					txs, err := d.UserSvc.Transactions(r.Context(), userID)
					if err != nil {
						httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
						return
					}
					httpx.WriteJSON(w, http.StatusOK, txs)
				})
			})

			r.Post("/pools", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				var req struct{ Name, Description string }
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				writeResult(w, d.PoolSvc.CreatePool(r.Context(), uid, req.Name, req.Description))
			})

			r.Delete("/pools/{id}", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				poolID, ok := pathID(w, r, "id")
				if !ok {
					return
				}
				writeResult(w, d.PoolSvc.DeletePool(r.Context(), poolID, uid))
			})

			r.Post("/pools/{id}/members", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				poolID, ok := pathID(w, r, "id")
				if !ok {
					return
				}
				var req struct {
					UserID int64 `json:"user_id"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				writeResult(w, d.PoolSvc.AddMember(r.Context(), poolID, req.UserID, uid))
			})

			r.Delete("/pools/{id}/members/{userID}", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				poolID, ok := pathID(w, r, "id")
				if !ok {
					return
				}
				userID, ok := pathID(w, r, "userID")
				if !ok {
					return
				}
				writeResult(w, d.PoolSvc.RemoveMember(r.Context(), poolID, userID, uid))
			})

			r.Put("/pools/{id}/members/{userID}/owner", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				poolID, ok := pathID(w, r, "id")
				if !ok {
					return
				}
				userID, ok := pathID(w, r, "userID")
				if !ok {
					return
				}
				var req struct {
					Owner bool `json:"owner"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
					return
				}
				writeResult(w, d.PoolSvc.SetOwnerFlag(r.Context(), poolID, userID, req.Owner, uid))
			})

			r.Post("/pools/{id}/payout", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				poolID, ok := pathID(w, r, "id")
				if !ok {
					return
				}
				writeResult(w, d.PoolSvc.Payout(r.Context(), poolID, uid))
			})
		})
	})

	return r
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid "+name, nil)
		return 0, false
	}
	return id, true
}

func writeResult(w http.ResponseWriter, res services.Result) {
	status := http.StatusOK
	switch {
	case res.RateLimited:
		status = http.StatusTooManyRequests
	case !res.Success:
		status = http.StatusBadRequest
	}
	httpx.WriteJSON(w, status, res)
}
