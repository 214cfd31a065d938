package cmserr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"validation":      {Validationf("title must not be empty"), http.StatusBadRequest},
		"not found":       {NotFoundf("folder %d", 42), http.StatusNotFound},
		"credential":      {ErrCredential, http.StatusUnauthorized},
		"conflict":        {ErrConflict, http.StatusConflict},
		"configuration":   {Configurationf("missing key"), http.StatusInternalServerError},
		"storage":         {Storagef("bulk delete"), http.StatusInternalServerError},
		"plain error":     {errors.New("boom"), http.StatusInternalServerError},
		"wrapped twofold": {fmt.Errorf("outer: %w", Validationf("inner")), http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "validation error: bad field", PublicMessage(Validationf("bad field")))
	assert.Equal(t, "server configuration error", PublicMessage(Configurationf("JWT secret leaked into logs")))
	assert.Equal(t, "internal server error", PublicMessage(Storagef("minio timeout at 10.0.0.5")))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: column folders.x does not exist")))
}
