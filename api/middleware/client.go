package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/ecofinds/ecofinds-core/api/responses"
	"github.com/ecofinds/ecofinds-core/internal/app"
	pkgerrors "github.com/ecofinds/ecofinds-core/pkg/errors"
	"github.com/ecofinds/ecofinds-core/pkg/logger"
	"github.com/google/uuid"
)

type clientRegistry interface {
	Get(ctx context.Context, clientID string) (*app.App, error)
}

// ClientCookie describes the cookie that identifies a browser.
type ClientCookie struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Client resolves the caller's App from the client cookie, issuing a new
// client id when the cookie is missing or malformed.
func Client(registry clientRegistry, cookie ClientCookie, logg *logger.Logger) func(http.Handler) http.Handler {
	if cookie.Name == "" {
		cookie.Name = "ecofinds_client"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientID := readClientID(r, cookie.Name)
			if clientID == "" {
				clientID = app.NewClientID()
			}
			// Refresh the cookie on every request so MaxAge slides.
			http.SetCookie(w, &http.Cookie{
				Name:     cookie.Name,
				Value:    clientID,
				Path:     "/",
				MaxAge:   int(cookie.MaxAge.Seconds()),
				HttpOnly: true,
				Secure:   cookie.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			if logg != nil {
				ctx = logg.WithClientID(ctx, clientID)
			}
			a, err := registry.Get(ctx, clientID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "client unavailable"))
				return
			}
			if logg != nil {
				if current := a.Session.Current(); current != nil {
					ctx = logg.WithUserID(ctx, current.ID.String())
				}
			}
			next.ServeHTTP(w, r.WithContext(WithApp(ctx, a)))
		})
	}
}

func readClientID(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return ""
	}
	return id.String()
}
