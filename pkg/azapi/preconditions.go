package azapi

import "strings"

// ETag is an opaque resource version used for optimistic concurrency.
type ETag string

// ETagAny matches any resource version.
const ETagAny ETag = "*"

// String returns the raw ETag value.
func (e ETag) String() string {
	return string(e)
}

// IsZero reports whether the ETag is unset.
func (e ETag) IsZero() bool {
	return e == ""
}

// Quoted returns the ETag in the quoted form conditional headers require.
// ETagAny is never quoted; already-quoted and weak (W/"...") values pass
// through unchanged.
func (e ETag) Quoted() string {
	value := string(e)

	if value == "" || value == string(ETagAny) {
		return value
	}

	if strings.HasPrefix(value, `"`) || strings.HasPrefix(value, `W/"`) {
		return value
	}

	return `"` + value + `"`
}

// Precondition header names.
const (
	HeaderIfMatch     = "If-Match"
	HeaderIfNoneMatch = "If-None-Match"
)

// Preconditions captures the conditional headers of a request.
type Preconditions struct {
	IfMatch     ETag
	IfNoneMatch ETag
}

// Headers renders the preconditions as request headers.
func (p Preconditions) Headers() map[string]string {
	headers := make(map[string]string)

	if !p.IfMatch.IsZero() {
		headers[HeaderIfMatch] = p.IfMatch.Quoted()
	}

	if !p.IfNoneMatch.IsZero() {
		headers[HeaderIfNoneMatch] = p.IfNoneMatch.Quoted()
	}

	return headers
}

// IfMatchHeaders builds the If-Match header for a guarded write. With force
// set the header matches any version; otherwise a missing ETag is an error,
// since the service would reject the request anyway.
func IfMatchHeaders(etag ETag, force bool) (map[string]string, error) {
	if force {
		return Preconditions{IfMatch: ETagAny}.Headers(), nil
	}

	if etag.IsZero() {
		return nil, ErrETagRequired
	}

	return Preconditions{IfMatch: etag}.Headers(), nil
}
