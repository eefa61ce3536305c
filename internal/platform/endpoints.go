package platform

import (
	"net/http"
	"net/url"
)

const (
	pathLogin    = "/auth/login"
	pathUser     = "/user"
	pathRegister = "/user/register"
	pathDocument = "/document"
)

// Endpoint is one operation the client calls.
type Endpoint struct {
	Method string
	Path   string
}

// Endpoints lists every operation the client calls, in OpenAPI path syntax.
func Endpoints() []Endpoint {
	return []Endpoint{
		{http.MethodPost, pathLogin},
		{http.MethodGet, pathUser},
		{http.MethodPost, pathRegister},
		{http.MethodGet, pathDocument},
		{http.MethodPost, pathDocument},
		{http.MethodGet, pathDocument + "/{id}"},
		{http.MethodPut, pathDocument + "/{id}"},
		{http.MethodDelete, pathDocument + "/{id}"},
		{http.MethodPost, pathDocument + "/{id}/send-to-review"},
		{http.MethodPost, pathDocument + "/{id}/change-status"},
	}
}

func documentPath(id string, suffix ...string) string {
	p := pathDocument + "/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}
