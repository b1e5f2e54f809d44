package apikey

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrUnsupportedMethod = errors.New("apikey: unsupported method")
	ErrUnknownResource   = errors.New("apikey: unknown resource")
)

// ActionFor mapea el método HTTP a una acción.
func ActionFor(method string) (string, error) {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead:
		return ActionRead, nil
	case http.MethodPost:
		return ActionWrite, nil
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate, nil
	case http.MethodDelete:
		return ActionDelete, nil
	default:
		return "", ErrUnsupportedMethod
	}
}

// DefaultRoutes son los paths del catálogo cuyo recurso no se deduce de un segmento.
func DefaultRoutes() map[string]string {
	return map[string]string{
		"/api/feed":          ResourceMedia,
		"/api/search":        ResourceMedia,
		"/api/trending":      ResourceMedia,
		"/api/recent":        ResourceMedia,
		"/api/tracks":        ResourceMedia,
		"/api/genres":        ResourceMedia,
		"/api/library":       ResourcePlaylists,
		"/api/favorites":     ResourcePlaylists,
		"/api/history":       ResourceAnalytics,
		"/api/keys":          ResourceAPIKeys,
		"/admin/stats":       ResourceAnalytics,
		"/admin/dashboard":   ResourceAnalytics,
		"/admin/api-keys":    ResourceAPIKeys,
		"/api/media/upload":  ResourceUpload,
		"/api/media/stream":  ResourceStream,
		"/api/subscriptions": ResourceUsers,
	}
}

type prefixRoute struct {
	prefix   string
	resource string
}

// Resolver deduce el recurso de un path. Orden:
//  1. path registrado exacto
//  2. algún segmento del path es un recurso conocido
//  3. prefijo registrado más largo (respetando límites de segmento)
//
// Si nada matchea, ErrUnknownResource.
type Resolver struct {
	exact    map[string]string
	prefixes []prefixRoute // más largo primero
}

// NewResolver crea un resolver con los paths dados (path -> recurso).
func NewResolver(routes map[string]string) *Resolver {
	r := &Resolver{exact: make(map[string]string, len(routes))}
	for p, res := range routes {
		p = cleanPath(p)
		r.exact[p] = res
		r.prefixes = append(r.prefixes, prefixRoute{prefix: p, resource: res})
	}
	sort.Slice(r.prefixes, func(i, j int) bool {
		if len(r.prefixes[i].prefix) != len(r.prefixes[j].prefix) {
			return len(r.prefixes[i].prefix) > len(r.prefixes[j].prefix)
		}
		return r.prefixes[i].prefix < r.prefixes[j].prefix
	})
	return r
}

// ResourceFor devuelve el recurso del path.
func (r *Resolver) ResourceFor(path string) (string, error) {
	p := cleanPath(path)

	if res, ok := r.exact[p]; ok {
		return res, nil
	}

	for _, seg := range strings.Split(strings.Trim(p, "/"), "/") {
		if contains(Resources, strings.ToLower(seg)) {
			return strings.ToLower(seg), nil
		}
	}

	for _, pr := range r.prefixes {
		if pr.prefix == "/" || strings.HasPrefix(p, pr.prefix+"/") {
			return pr.resource, nil
		}
	}
	return "", ErrUnknownResource
}

// Required devuelve el permiso "<acción>:<recurso>" para el request.
func (r *Resolver) Required(method, path string) (string, error) {
	action, err := ActionFor(method)
	if err != nil {
		return "", err
	}
	resource, err := r.ResourceFor(path)
	if err != nil {
		return "", err
	}
	return Permission(action, resource), nil
}

func cleanPath(p string) string {
	p, _, _ = strings.Cut(p, "?")
	if p == "" || p == "/" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(p, "/")
}
