package catalog

import (
	"net/url"
	"strings"

	"movie-discovery-catalog-service/internal/models"
)

// Param is one extra query parameter of a source, kept in declaration order.
type Param struct {
	Key   string
	Value string
}

// QuerySource describes one catalog query. It is immutable: params are
// copied on construction and on read.
type QuerySource struct {
	name      string
	endpoint  string
	params    []Param
	priority  int
	mediaType models.MediaType
}

// NewQuerySource builds a source. mediaType is the kind assumed for results
// that do not declare one; when empty it is inferred from the endpoint.
func NewQuerySource(name, endpoint string, priority int, mediaType models.MediaType, params ...Param) QuerySource {
	if mediaType == "" {
		mediaType = inferMediaType(endpoint)
	}
	return QuerySource{
		name:      name,
		endpoint:  endpoint,
		params:    append([]Param(nil), params...),
		priority:  priority,
		mediaType: mediaType,
	}
}

func (q QuerySource) Name() string                { return q.name }
func (q QuerySource) Endpoint() string            { return q.endpoint }
func (q QuerySource) Priority() int               { return q.priority }
func (q QuerySource) MediaType() models.MediaType { return q.mediaType }

// Params returns a copy of the ordered params.
func (q QuerySource) Params() []Param {
	return append([]Param(nil), q.params...)
}

// WithPriority returns a copy of the source with a different priority.
func (q QuerySource) WithPriority(p int) QuerySource {
	q.params = q.Params()
	q.priority = p
	return q
}

// Identity is the endpoint plus ordered params; two sources with the same
// identity issue the same call.
func (q QuerySource) Identity() string {
	var b strings.Builder
	b.WriteString(q.endpoint)
	for i, p := range q.params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

func (q QuerySource) String() string {
	if q.name != "" {
		return q.name
	}
	return q.Identity()
}

func inferMediaType(endpoint string) models.MediaType {
	path := endpoint
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "tv":
			return models.MediaTV
		case "movie":
			return models.MediaMovie
		}
	}
	return ""
}

func paramValues(params []Param) url.Values {
	v := url.Values{}
	for _, p := range params {
		v.Add(p.Key, p.Value)
	}
	return v
}
