package common

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
)

// PathParam returns the decoded chi URL parameter name.
// Blank values and values containing whitespace are rejected.
func PathParam(r *http.Request, name string) (string, error) {
	value := chi.URLParam(r, name)
	// chi matches against RawPath when it is set, otherwise the value is decoded already
	if r.URL.RawPath != "" {
		var err error
		if value, err = url.PathUnescape(value); err != nil {
			return "", fmt.Errorf("invalid URL encoding in %s", name)
		}
	}

	switch {
	case strings.TrimSpace(value) == "":
		return "", fmt.Errorf("%s cannot be empty", name)
	case strings.IndexFunc(value, unicode.IsSpace) >= 0:
		return "", fmt.Errorf("%s cannot contain whitespace", name)
	}
	return value, nil
}
