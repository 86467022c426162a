package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTenant(t *testing.T) {
	tenantID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/tenants/"+tenantID.String(), r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"` + tenantID.String() + `","name":"Partner","responsible":{"name":"Dana","role":"Psychologist"}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "tok")
	tenant, err := c.GetTenant(context.Background(), tenantID)
	require.NoError(t, err)
	require.NotNil(t, tenant)
	assert.Equal(t, "Partner", tenant.Name)
	require.NotNil(t, tenant.Responsible)
	assert.Equal(t, "Dana", tenant.Responsible.Name)
}

func TestGetResponsible(t *testing.T) {
	tenantID, companyID := uuid.New(), uuid.New()

	t.Run("found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/tenants/"+tenantID.String()+"/companies/"+companyID.String()+"/responsible", r.URL.Path)
			w.Write([]byte(`{"name":"Lee","registry":"CRP 06/1234"}`))
		}))
		defer srv.Close()

		r, err := NewHTTPClient(srv.URL, "").GetResponsible(context.Background(), tenantID, companyID)
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, "CRP 06/1234", r.Registry)
	})

	t.Run("not on file", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		r, err := NewHTTPClient(srv.URL, "").GetResponsible(context.Background(), tenantID, companyID)
		assert.NoError(t, err)
		assert.Nil(t, r)
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewHTTPClient(srv.URL, "").GetResponsible(context.Background(), tenantID, companyID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})
}
