package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"channelapi/internal/auth"
	"channelapi/internal/config"
	"channelapi/internal/http/middleware"
	"channelapi/internal/model"
	"channelapi/internal/parser"
	"channelapi/internal/service"
	serviceMocks "channelapi/internal/service/mocks"
	"channelapi/internal/storage"
	"channelapi/internal/tree"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testUserID = "user-1"

// newApp returns an app whose requests are authenticated as testUserID.
func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDLocalKey, testUserID)
		return c.Next()
	})
	return app
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListChannels(t *testing.T) {
	mockSvc := new(serviceMocks.MockChannelService)
	app := newApp()
	app.Get("/api/channels", ListChannels(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, testUserID).
			Return([]model.Channel{{ID: uuid.NewString(), Name: "orders"}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/channels", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var items []model.Channel
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
		assert.Len(t, items, 1)
		assert.Equal(t, "orders", items[0].Name)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, testUserID).Return(nil, errors.New("boom")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/channels", nil))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "INTERNAL_ERROR", body.Code)
		assert.Equal(t, "internal server error", body.Error)
	})
}

func TestCreateChannel(t *testing.T) {
	mockSvc := new(serviceMocks.MockChannelService)
	app := newApp()
	app.Post("/api/channels", CreateChannel(mockSvc))

	t.Run("success", func(t *testing.T) {
		payload := `{
			"name": "orders",
			"sourceFormat": "XML",
			"targetFormat": "JSON",
			"targetTemplate": {"out": {"b": 1, "a": 2}},
			"mappings": [{"sourcePath": "order.id", "targetPath": "out.id"}]
		}`
		mockSvc.On("Create", mock.Anything, testUserID, mock.MatchedBy(func(in service.CreateChannelInput) bool {
			return in.Name == "orders" && len(in.Mappings) == 1 &&
				in.Mappings[0].TargetPath.String() == "out.id" &&
				in.TargetTemplate.Equal(tree.MustFromJSON(`{"out":{"b":1,"a":2}}`))
		})).Return(&model.Channel{ID: "ch-1", Name: "orders", TargetTemplate: tree.MustFromJSON(`{"out":{"b":1,"a":2}}`)}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/channels", payload))
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		raw, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(raw), `"targetTemplate":{"out":{"b":1,"a":2}}`)
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty path segment", func(t *testing.T) {
		payload := `{"name":"x","sourceFormat":"XML","targetFormat":"JSON","targetTemplate":{},
			"mappings":[{"sourcePath":"a..b","targetPath":"c"}]}`

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/channels", payload))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_PATH", decodeError(t, resp).Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/channels", `{"name":`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Code)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unsupported format", fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, "CSV"), http.StatusBadRequest, "UNSUPPORTED_FORMAT"},
		{"invalid template", service.ErrInvalidTemplate, http.StatusBadRequest, "INVALID_TEMPLATE"},
		{"invalid input", service.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"storage failure", service.ErrStorageFailure, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc.On("Create", mock.Anything, testUserID, mock.Anything).Return(nil, tt.err).Once()

			resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/channels", `{"name":"x"}`))
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCode, decodeError(t, resp).Code)
		})
	}
}

func TestGetChannel(t *testing.T) {
	mockSvc := new(serviceMocks.MockChannelService)
	app := newApp()
	app.Get("/api/channels/:id", GetChannel(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, testUserID, id).Return(&model.Channel{ID: id}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/channels/"+id, nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var ch model.Channel
		json.NewDecoder(resp.Body).Decode(&ch)
		assert.Equal(t, id, ch.ID)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, testUserID, id).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/channels/"+id, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
	})

	t.Run("foreign channel", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, testUserID, id).Return(nil, service.ErrUnauthorized).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/channels/"+id, nil))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/channels/invalid-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Code)
	})
}

func TestDeleteChannel(t *testing.T) {
	mockSvc := new(serviceMocks.MockChannelService)
	app := newApp()
	app.Delete("/api/channels/:id", DeleteChannel(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, testUserID, id).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/channels/"+id, nil))
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, testUserID, id).Return(fmt.Errorf("%w: channel %s", service.ErrNotFound, id)).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/channels/"+id, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
	})
}

func TestTransformDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockChannelService)
	app := newApp()
	app.Post("/api/channels/:id/transform", TransformDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		body, ct := multipartBody(t, "order.xml", `<order><id>A1</id></order>`)
		mockSvc.On("Transform", mock.Anything, testUserID, id, mock.Anything).Return(&model.Transformation{
			ID:             "tr-1",
			Status:         model.StatusCompleted,
			TargetDocument: tree.MustFromJSON(`{"out":{"id":"A1"}}`),
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/channels/"+id+"/transform", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		raw, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"message":"Transformation successful","transformation_id":"tr-1","data":{"out":{"id":"A1"}}}`, string(raw))
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/api/channels/"+uuid.NewString()+"/transform", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Code)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"foreign channel", service.ErrUnauthorized, http.StatusForbidden, "FORBIDDEN"},
		{"missing channel", service.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"malformed document", fmt.Errorf("%w: XML syntax error", parser.ErrMalformedDocument), http.StatusUnprocessableEntity, "MALFORMED_DOCUMENT"},
		{"invalid target", fmt.Errorf("mapping 0 (a -> x.y): %w", tree.ErrInvalidTarget), http.StatusUnprocessableEntity, "INVALID_TARGET"},
		{"too large", service.ErrDocumentTooLarge, http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE"},
		{"storage failure", fmt.Errorf("%w: upload artifact: timeout", service.ErrStorageFailure), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uuid.NewString()
			body, ct := multipartBody(t, "doc.xml", `<a/>`)
			mockSvc.On("Transform", mock.Anything, testUserID, id, mock.Anything).Return(nil, tt.err).Once()

			req := httptest.NewRequest(http.MethodPost, "/api/channels/"+id+"/transform", body)
			req.Header.Set("Content-Type", ct)
			resp, _ := app.Test(req)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCode, decodeError(t, resp).Code)
		})
	}
}

func TestListTransformations(t *testing.T) {
	mockSvc := new(serviceMocks.MockTransformationService)
	app := newApp()
	app.Get("/api/channels/:id/transformations", ListTransformations(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("List", mock.Anything, testUserID, id, 5, 10).Return(&service.TransformationListResult{
			Items: []model.Transformation{{ID: "tr-1"}},
			Total: 11, Limit: 5, Offset: 10,
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/channels/"+id+"/transformations?limit=5&offset=10", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var res service.TransformationListResult
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Len(t, res.Items, 1)
		assert.Equal(t, 11, res.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/channels/"+uuid.NewString()+"/transformations?limit=abc", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Code)
	})

	t.Run("invalid offset", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/channels/"+uuid.NewString()+"/transformations?offset=x", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_OFFSET", decodeError(t, resp).Code)
	})
}

func TestGetTransformationAndDownload(t *testing.T) {
	mockSvc := new(serviceMocks.MockTransformationService)
	app := newApp()
	app.Get("/api/transformations/:id", GetTransformation(mockSvc))
	app.Get("/api/transformations/:id/download", DownloadTransformation(mockSvc))

	t.Run("get", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, testUserID, id).Return(&model.Transformation{ID: id, Status: model.StatusFailed, Error: "malformed document"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/transformations/"+id, nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var tr model.Transformation
		json.NewDecoder(resp.Body).Decode(&tr)
		assert.Equal(t, model.StatusFailed, tr.Status)
	})

	t.Run("download", func(t *testing.T) {
		id := uuid.NewString()
		exp := time.Date(2026, 5, 1, 12, 10, 0, 0, time.UTC)
		mockSvc.On("DownloadURL", mock.Anything, testUserID, id).Return(&service.DownloadLink{URL: "https://minio.local/x", ExpiresAt: exp}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/transformations/"+id+"/download", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		raw, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"url":"https://minio.local/x","expires_at":"2026-05-01T12:10:00Z"}`, string(raw))
	})

	t.Run("download without artifact", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("DownloadURL", mock.Anything, testUserID, id).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/transformations/"+id+"/download", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestStreamArtifact(t *testing.T) {
	mockSvc := new(serviceMocks.MockTransformationService)
	app := newApp()
	app.Get("/api/transformations/:id/artifact", StreamArtifact(mockSvc))

	t.Run("streams the stored document", func(t *testing.T) {
		id := uuid.NewString()
		body := `{"invoice":{"number":"42"}}`
		mockSvc.On("OpenArtifact", mock.Anything, testUserID, id).Return(
			io.NopCloser(strings.NewReader(body)),
			storage.ObjectInfo{Key: "transformations/ch-1/" + id + ".json", Size: int64(len(body)), ContentType: "application/json"},
			nil,
		).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/transformations/"+id+"/artifact", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.Equal(t, fmt.Sprintf("attachment; filename=%q", id+".json"), resp.Header.Get("Content-Disposition"))

		raw, _ := io.ReadAll(resp.Body)
		assert.Equal(t, body, string(raw))
	})

	t.Run("missing artifact", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("OpenArtifact", mock.Anything, testUserID, id).Return(nil, storage.ObjectInfo{}, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/transformations/"+id+"/artifact", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("other owner", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("OpenArtifact", mock.Anything, testUserID, id).Return(nil, storage.ObjectInfo{}, service.ErrUnauthorized).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/transformations/"+id+"/artifact", nil))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/transformations/nope/artifact", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetStats(t *testing.T) {
	mockSvc := new(serviceMocks.MockTransformationService)
	app := newApp()
	app.Get("/api/stats", GetStats(mockSvc))

	mockSvc.On("Stats", mock.Anything, testUserID).Return(&model.TransformationStats{
		TotalTransformations: 4, TransformationsThisMonth: 2, SuccessRate: 75,
	}, nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"totalTransformations":4,"transformationsThisMonth":2,"successRate":75,"processing":0}`, string(raw))
}

func TestUploadPreview(t *testing.T) {
	mockSvc := new(serviceMocks.MockChannelService)
	app := newApp()
	app.Post("/api/upload", UploadPreview(mockSvc, model.FormatXML))
	app.Post("/api/upload/json", UploadPreview(mockSvc, model.FormatJSON))

	t.Run("xml", func(t *testing.T) {
		body, ct := multipartBody(t, "a.xml", `<a>1</a>`)
		mockSvc.On("Preview", mock.Anything, "XML", mock.Anything).Return(tree.MustFromJSON(`{"a":"1"}`), nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		raw, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"message":"File processed successfully","data":{"a":"1"}}`, string(raw))
	})

	t.Run("malformed json", func(t *testing.T) {
		body, ct := multipartBody(t, "a.json", `{`)
		mockSvc.On("Preview", mock.Anything, "JSON", mock.Anything).Return(nil, parser.ErrMalformedDocument).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/upload/json", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "MALFORMED_DOCUMENT", decodeError(t, resp).Code)
	})

	t.Run("no file", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/api/upload", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Code)
	})
}

func TestAuthHandlers(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := newApp()
	app.Post("/api/auth/register", Register(mockSvc))
	app.Post("/api/auth/login", Login(mockSvc))
	app.Get("/api/auth/me", Me(mockSvc))

	t.Run("register", func(t *testing.T) {
		in := service.RegisterInput{Email: "ada@example.com", Name: "Ada", Password: "lovelace1815"}
		mockSvc.On("Register", mock.Anything, in).Return(&service.AuthResult{
			User: &model.User{ID: "u-1", Email: "ada@example.com", PasswordHash: "secret-hash"}, Token: "tok",
		}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/auth/register",
			`{"email":"ada@example.com","name":"Ada","password":"lovelace1815"}`))
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		raw, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(raw), `"token":"tok"`)
		assert.NotContains(t, string(raw), "secret-hash")
	})

	t.Run("register missing fields", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"ada@example.com"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_INPUT", decodeError(t, resp).Code)
	})

	t.Run("register email taken", func(t *testing.T) {
		mockSvc.On("Register", mock.Anything, mock.Anything).Return(nil, service.ErrEmailTaken).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"a@b.c","password":"12345678"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "EMAIL_TAKEN", decodeError(t, resp).Code)
	})

	t.Run("login invalid credentials", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "a@b.c", "wrong").Return(nil, service.ErrInvalidCredentials).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"a@b.c","password":"wrong"}`))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, resp).Code)
	})

	t.Run("me", func(t *testing.T) {
		mockSvc.On("Me", mock.Anything, testUserID).Return(&model.User{ID: testUserID, Email: "ada@example.com"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var u model.User
		json.NewDecoder(resp.Body).Decode(&u)
		assert.Equal(t, testUserID, u.ID)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	issuer, err := auth.NewIssuer(config.AuthConfig{JWTSecret: "routing-secret", Issuer: "channelapi", TokenTTLMin: 5})
	require.NoError(t, err)

	channels := new(serviceMocks.MockChannelService)
	RegisterRoutes(app, nil, Services{
		Auth:            new(serviceMocks.MockAuthService),
		Channels:        channels,
		Transformations: new(serviceMocks.MockTransformationService),
	}, middleware.RequireAuth(issuer))

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Code)
	})

	t.Run("missing token", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/channels", nil))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Code)
		channels.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("valid token", func(t *testing.T) {
		token, _, err := issuer.Issue("user-9", "")
		require.NoError(t, err)
		channels.On("List", mock.Anything, "user-9").Return([]model.Channel{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/channels", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		channels.AssertExpectations(t)
	})

	t.Run("unmapped error is internal", func(t *testing.T) {
		token, _, err := issuer.Issue("user-9", "")
		require.NoError(t, err)
		id := uuid.NewString()
		channels.On("Get", mock.Anything, "user-9", id).Return(nil, sql.ErrNoRows).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/channels/"+id, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}
