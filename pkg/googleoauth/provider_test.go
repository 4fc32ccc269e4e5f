package googleoauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matryer/is"
	"golang.org/x/oauth2"
)

func tokenServer(t *testing.T, status int, body string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("new access token without rotation", func(t *testing.T) {
		is := is.New(t)
		srv := tokenServer(t, http.StatusOK, `{"access_token":"new-access","token_type":"Bearer","expires_in":3600}`)
		p := NewProvider("id", "secret", "").WithEndpoint(oauth2.Endpoint{TokenURL: srv.URL})

		tok, err := p.Refresh(ctx, "refresh-1")
		is.NoErr(err)
		is.Equal(tok.AccessToken, "new-access")
		is.Equal(tok.RefreshToken, "")
		is.True(!tok.Expiry.IsZero())
	})

	t.Run("rotated refresh token is returned", func(t *testing.T) {
		is := is.New(t)
		srv := tokenServer(t, http.StatusOK, `{"access_token":"a2","refresh_token":"refresh-2","token_type":"Bearer","expires_in":3600}`)
		p := NewProvider("id", "secret", "").WithEndpoint(oauth2.Endpoint{TokenURL: srv.URL})

		tok, err := p.Refresh(ctx, "refresh-1")
		is.NoErr(err)
		is.Equal(tok.RefreshToken, "refresh-2")
	})

	t.Run("invalid grant surfaces a retrieve error", func(t *testing.T) {
		is := is.New(t)
		srv := tokenServer(t, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`)
		p := NewProvider("id", "secret", "").WithEndpoint(oauth2.Endpoint{TokenURL: srv.URL})

		_, err := p.Refresh(ctx, "refresh-1")
		var re *oauth2.RetrieveError
		is.True(errors.As(err, &re))
		is.Equal(re.ErrorCode, "invalid_grant")
	})
}
