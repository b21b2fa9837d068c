package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/postsign"
	postsignhttp "github.com/sagarc03/postsign/http"
	"github.com/sagarc03/postsign/keybackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockService is a mock implementation of http.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Issue(ctx context.Context) (postsign.IssuedSlip, error) {
	args := m.Called(ctx)
	return args.Get(0).(postsign.IssuedSlip), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, id uuid.UUID) (postsign.Slip, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(postsign.Slip), args.Error(1)
}

func (m *MockService) List(ctx context.Context, query postsign.ListQuery) (postsign.SlipList, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(postsign.SlipList), args.Error(1)
}

func newRouter(t *testing.T, cfg postsignhttp.HandlerConfig) (http.Handler, *MockService) {
	t.Helper()
	service := new(MockService)
	return postsignhttp.NewHandler(&cfg, service).Router(), service
}

func issuedSlip(t *testing.T, key string) postsign.IssuedSlip {
	t.Helper()

	signedAt := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := postsign.NewPresigner(context.Background(), postsign.UploadConfig{
		Bucket:            "example-bucket",
		ExpirationSeconds: 60,
		ContentLengthMax:  10485760,
	}, keybackend.NewStaticProvider("AKIDEXAMPLE", "secret", ""), keybackend.StaticRegion("us-east-1"),
		postsign.WithClock(func() time.Time { return signedAt }))
	require.NoError(t, err)

	post, err := p.Presign(context.Background(), key)
	require.NoError(t, err)

	return postsign.IssuedSlip{
		Slip: postsign.Slip{ID: uuid.New(), Key: key, Bucket: "example-bucket", ExpiresAt: post.ExpiresAt(), CreatedAt: signedAt},
		Post: post,
	}
}

func TestHandler_SignedPost(t *testing.T) {
	router, service := newRouter(t, postsignhttp.HandlerConfig{})

	issued := issuedSlip(t, "abc")
	service.On("Issue", mock.Anything).Return(issued, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/signed-post", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, issued.Slip.ID.String(), rec.Header().Get("X-Slip-Id"))

	var body struct {
		URL    string            `json:"url"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "https://example-bucket.s3.amazonaws.com/", body.URL)
	assert.Equal(t, "abc", body.Fields["key"])
	assert.Equal(t, "f7d4f0b5a663a407e5ae96312542847e885c0dfb76500bb1b010dfd662a6c16f", body.Fields["X-Amz-Signature"])
	assert.Len(t, body.Fields, 7)
	service.AssertExpectations(t)
}

func TestHandler_SignedPost_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "credentials unavailable",
			err:      fmt.Errorf("issue slip: presign: %w: expired", postsign.ErrCredentialsUnavailable),
			wantCode: http.StatusServiceUnavailable,
			wantErr:  "credentials_unavailable",
		},
		{
			name:     "ledger failure",
			err:      errors.New("database is locked"),
			wantCode: http.StatusInternalServerError,
			wantErr:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, service := newRouter(t, postsignhttp.HandlerConfig{})
			service.On("Issue", mock.Anything).Return(postsign.IssuedSlip{}, tt.err)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/signed-post", nil))

			assert.Equal(t, tt.wantCode, rec.Code)

			var body postsignhttp.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantErr, body.Error)
			assert.NotContains(t, rec.Body.String(), "expired")
		})
	}
}

func TestHandler_List(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantQuery postsign.ListQuery
	}{
		{
			name:      "defaults",
			url:       "/slips",
			wantQuery: postsign.ListQuery{Limit: 100},
		},
		{
			name:      "all parameters",
			url:       "/slips?prefix=uploads/&limit=5&cursor=abc",
			wantQuery: postsign.ListQuery{KeyPrefix: "uploads/", Limit: 5, Cursor: "abc"},
		},
		{
			name:      "limit clamped high",
			url:       "/slips?limit=50000",
			wantQuery: postsign.ListQuery{Limit: 1000},
		},
		{
			name:      "limit clamped low",
			url:       "/slips?limit=-3",
			wantQuery: postsign.ListQuery{Limit: 1},
		},
		{
			name:      "invalid limit ignored",
			url:       "/slips?limit=abc",
			wantQuery: postsign.ListQuery{Limit: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, service := newRouter(t, postsignhttp.HandlerConfig{})

			result := postsign.SlipList{
				Items:      []postsign.Slip{{ID: uuid.New(), Key: "uploads/a", Bucket: "example-bucket"}},
				NextCursor: "next",
			}
			service.On("List", mock.Anything, tt.wantQuery).Return(result, nil).Once()

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			require.Equal(t, http.StatusOK, rec.Code)

			var body postsign.SlipList
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "next", body.NextCursor)
			require.Len(t, body.Items, 1)
			assert.Equal(t, "uploads/a", body.Items[0].Key)
			service.AssertExpectations(t)
		})
	}
}

func TestHandler_List_InvalidCursor(t *testing.T) {
	router, service := newRouter(t, postsignhttp.HandlerConfig{})
	service.On("List", mock.Anything, mock.Anything).Return(postsign.SlipList{}, fmt.Errorf("list: %w", postsign.ErrInvalidInput))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slips?cursor=bogus", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestHandler_GetSlip(t *testing.T) {
	router, service := newRouter(t, postsignhttp.HandlerConfig{})

	id := uuid.New()
	service.On("Get", mock.Anything, id).Return(postsign.Slip{ID: id, Key: "k"}, nil).Once()
	service.On("Get", mock.Anything, mock.Anything).Return(postsign.Slip{}, postsign.ErrNotFound)

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slips/"+id.String(), nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var slip postsign.Slip
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slip))
		assert.Equal(t, id, slip.ID)
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slips/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slips/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Health(t *testing.T) {
	router, _ := newRouter(t, postsignhttp.HandlerConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandler_Uploader(t *testing.T) {
	router, _ := newRouter(t, postsignhttp.HandlerConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="fileinput"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/signed-post.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fetch('/signed-post')")
}

func TestHandler_UploaderDisabled(t *testing.T) {
	router, _ := newRouter(t, postsignhttp.HandlerConfig{DisableUploader: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "404 Not Found")
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	router, _ := newRouter(t, postsignhttp.HandlerConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signed-post", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_CORS(t *testing.T) {
	router, service := newRouter(t, postsignhttp.HandlerConfig{
		CORS: postsignhttp.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"https://app.example.com"},
			AllowedMethods: []string{http.MethodGet},
			MaxAge:         300,
		},
	})
	service.On("Issue", mock.Anything).Return(issuedSlip(t, "abc"), nil)

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/signed-post", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/signed-post", nil)
		req.Header.Set("Origin", "https://evil.example.com")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
