package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/jpbenga/tyrecheck/pkg/config"
)

func TestVerifyBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		token   string
		wantErr bool
	}{
		{
			name:    "valid token",
			header:  "Bearer secret-token",
			token:   "secret-token",
			wantErr: false,
		},
		{
			name:    "case-insensitive scheme",
			header:  "bearer secret-token",
			token:   "secret-token",
			wantErr: false,
		},
		{
			name:    "wrong token",
			header:  "Bearer wrong",
			token:   "secret-token",
			wantErr: true,
		},
		{
			name:    "missing header",
			header:  "",
			token:   "secret-token",
			wantErr: true,
		},
		{
			name:    "wrong scheme",
			header:  "Basic dXNlcjpwYXNz",
			token:   "secret-token",
			wantErr: true,
		},
		{
			name:    "malformed header",
			header:  "Bearer",
			token:   "secret-token",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/analyze", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			err := VerifyBearerToken(r, tt.token)
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifyBearerToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthenticatorMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		authType   config.AuthType
		token      string
		header     string
		wantStatus int
	}{
		{
			name:       "auth disabled passes through",
			authType:   config.AuthTypeNone,
			wantStatus: http.StatusOK,
		},
		{
			name:       "bearer accepts valid token",
			authType:   config.AuthTypeBearer,
			token:      "secret",
			header:     "Bearer secret",
			wantStatus: http.StatusOK,
		},
		{
			name:       "bearer rejects bad token",
			authType:   config.AuthTypeBearer,
			token:      "secret",
			header:     "Bearer nope",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bearer rejects missing header",
			authType:   config.AuthTypeBearer,
			token:      "secret",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Auth.Type = tt.authType
			cfg.Auth.Token = tt.token

			handler := NewAuthenticator(cfg, logrus.New()).Middleware(next)

			r := httptest.NewRequest(http.MethodPost, "/analyze", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
