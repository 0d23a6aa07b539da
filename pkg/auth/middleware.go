package auth

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/jpbenga/tyrecheck/pkg/config"
)

// Authenticator guards the analyze endpoint
type Authenticator struct {
	config *config.Config
	logger *logrus.Logger
}

// NewAuthenticator creates a new Authenticator instance
func NewAuthenticator(cfg *config.Config, logger *logrus.Logger) *Authenticator {
	return &Authenticator{
		config: cfg,
		logger: logger,
	}
}

// Middleware returns an HTTP middleware that authenticates API requests.
// With auth disabled it passes every request through.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.config.Auth.Type != config.AuthTypeBearer {
			next.ServeHTTP(w, r)
			return
		}

		if err := VerifyBearerToken(r, a.config.Auth.Token); err != nil {
			a.logger.WithFields(logrus.Fields{
				"remote_addr": r.RemoteAddr,
				"error":       err.Error(),
			}).Warn("Authentication failed")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"authentication failed"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
