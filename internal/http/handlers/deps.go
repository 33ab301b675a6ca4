package handlers

import (
	"membersite/internal/metrics"
	"membersite/internal/services"
	"membersite/internal/session"
)

type Deps struct {
	AuthHandler   *AuthHandler
	PageHandler   *PageHandler
	LookupHandler *LookupHandler
	AdminHandler  *AdminHandler
}

func NewDeps(auth *services.AuthService, sessions *session.Authenticator, m *metrics.Metrics) *Deps {
	return &Deps{
		AuthHandler:   &AuthHandler{Auth: auth, Sessions: sessions, Metrics: m},
		PageHandler:   &PageHandler{},
		LookupHandler: &LookupHandler{Auth: auth, Metrics: m},
		AdminHandler:  &AdminHandler{Auth: auth},
	}
}
