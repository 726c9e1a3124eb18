/*
Package req provides helper functions for HTTP request parsing and data binding.

It encapsulates JSON body decoding with strict field checking, returning
application errors from the errs package when the payload is unusable.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"instatext/internal/pkg/errs"
)

// BindJSON decodes the JSON request body into dst. Unknown fields and
// trailing content are rejected.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
