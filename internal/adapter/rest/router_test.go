package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	accountdomain "github.com/jrybusiness/stylerental-backend/internal/account/domain"
	accountuc "github.com/jrybusiness/stylerental-backend/internal/account/usecase"
	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/listing/usecase"
	"github.com/jrybusiness/stylerental-backend/internal/platform/auth"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"github.com/jrybusiness/stylerental-backend/internal/platform/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockListingService struct{ mock.Mock }

func (m *MockListingService) Create(ctx context.Context, caller domain.Caller, input domain.ListingInput, uploads []domain.Upload) (*domain.Listing, error) {
	args := m.Called(ctx, caller, input, uploads)
	l, _ := args.Get(0).(*domain.Listing)
	return l, args.Error(1)
}

func (m *MockListingService) Update(ctx context.Context, caller domain.Caller, id string, patch domain.ListingPatch, uploads []domain.Upload) (*domain.Listing, error) {
	args := m.Called(ctx, caller, id, patch, uploads)
	l, _ := args.Get(0).(*domain.Listing)
	return l, args.Error(1)
}

func (m *MockListingService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	return m.Called(ctx, caller, id).Error(0)
}

func (m *MockListingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*domain.Listing)
	return l, args.Error(1)
}

func (m *MockListingService) Search(ctx context.Context, filter domain.Filter) (*usecase.SearchResult, error) {
	args := m.Called(ctx, filter)
	res, _ := args.Get(0).(*usecase.SearchResult)
	return res, args.Error(1)
}

func (m *MockListingService) AuditImages(ctx context.Context, caller domain.Caller, id string) ([]string, error) {
	args := m.Called(ctx, caller, id)
	missing, _ := args.Get(0).([]string)
	return missing, args.Error(1)
}

func (m *MockListingService) ImageURL(key string) string { return "http://cdn.local/" + key }

type MockAccountService struct{ mock.Mock }

func (m *MockAccountService) Register(ctx context.Context, username, password, role string) (*accountdomain.User, error) {
	args := m.Called(ctx, username, password, role)
	u, _ := args.Get(0).(*accountdomain.User)
	return u, args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, username, password string) (*accountuc.LoginResult, error) {
	args := m.Called(ctx, username, password)
	res, _ := args.Get(0).(*accountuc.LoginResult)
	return res, args.Error(1)
}

type MockFavoriteService struct{ mock.Mock }

func (m *MockFavoriteService) AddFavorite(ctx context.Context, caller domain.Caller, listingID string) error {
	return m.Called(ctx, caller, listingID).Error(0)
}

func (m *MockFavoriteService) RemoveFavorite(ctx context.Context, caller domain.Caller, listingID string) error {
	return m.Called(ctx, caller, listingID).Error(0)
}

func (m *MockFavoriteService) GetFavorites(ctx context.Context, caller domain.Caller) ([]*domain.Favorite, error) {
	args := m.Called(ctx, caller)
	favs, _ := args.Get(0).([]*domain.Favorite)
	return favs, args.Error(1)
}

type testServer struct {
	handler   http.Handler
	listings  *MockListingService
	accounts  *MockAccountService
	favorites *MockFavoriteService
	tokens    *auth.TokenManager
}

func newTestServer() *testServer {
	log := logger.NewNop()
	ts := &testServer{
		listings:  &MockListingService{},
		accounts:  &MockAccountService{},
		favorites: &MockFavoriteService{},
		tokens:    auth.NewTokenManager("test-secret", time.Hour),
	}
	ts.handler = NewRouter(RouterDeps{
		Listings:      NewListingHandler(ts.listings, 3, 1024, log),
		Accounts:      NewAccountHandler(ts.accounts, log),
		Favorites:     NewFavoriteHandler(ts.favorites, log),
		Tokens:        ts.tokens,
		Metrics:       metrics.NewMetricsManager("test"),
		Logger:        log,
		AuthRateLimit: 100,
	})
	return ts
}

func (ts *testServer) bearer(t *testing.T, id string, role domain.Role) string {
	token, err := ts.tokens.Issue(id, string(role), id+"@example.com")
	require.NoError(t, err)
	return "Bearer " + token
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, fields map[string][]string, files map[string]string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile(imagesField, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func sampleListing() *domain.Listing {
	return &domain.Listing{
		ID:            "l1",
		OwnerID:       "u1",
		OwnerUsername: "ann@gmail.com",
		Name:          "Red dress",
		Price:         500,
		Images:        []string{"photos/a.jpg"},
		Version:       1,
	}
}

func TestCreateListing(t *testing.T) {
	ts := newTestServer()
	body, ct := multipartBody(t,
		map[string][]string{"name": {"Red dress"}, "price": {"500"}},
		map[string]string{"a.jpg": "jpegdata"},
	)

	caller := domain.Caller{ID: "u1", Username: "u1@example.com", Role: domain.RoleLister}
	ts.listings.On("Create", mock.Anything, caller,
		mock.MatchedBy(func(in domain.ListingInput) bool { return in.Name == "Red dress" && in.Price == "500" }),
		mock.MatchedBy(func(ups []domain.Upload) bool {
			return len(ups) == 1 && ups[0].Filename == "a.jpg" && string(ups[0].Data) == "jpegdata"
		}),
	).Return(sampleListing(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/clothes", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", ts.bearer(t, "u1", domain.RoleLister))
	rec := ts.do(req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got listingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "l1", got.ID)
	assert.Equal(t, []string{"photos/a.jpg"}, got.Images)
	assert.Equal(t, []string{"http://cdn.local/photos/a.jpg"}, got.ImageURLs)
	ts.listings.AssertExpectations(t)
}

func TestCreateListing_RequiresAuth(t *testing.T) {
	ts := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/clothes", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := ts.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	ts.listings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateListing_PartialFields(t *testing.T) {
	ts := newTestServer()
	body, ct := multipartBody(t,
		map[string][]string{"price": {"650"}, "deleteImages": {"photos/a.jpg", "photos/b.jpg"}},
		nil,
	)

	ts.listings.On("Update", mock.Anything, mock.Anything, "l1",
		mock.MatchedBy(func(p domain.ListingPatch) bool {
			return p.Price == domain.Some("650") && !p.Name.Set &&
				assert.ObjectsAreEqual([]string{"photos/a.jpg", "photos/b.jpg"}, p.DeleteImages)
		}),
		mock.MatchedBy(func(ups []domain.Upload) bool { return len(ups) == 0 }),
	).Return(sampleListing(), nil)

	req := httptest.NewRequest(http.MethodPut, "/api/clothes/l1", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", ts.bearer(t, "u1", domain.RoleLister))
	rec := ts.do(req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ts.listings.AssertExpectations(t)
}

func TestListingErrorsMapToStatus(t *testing.T) {
	verr := &domain.ValidationError{}
	verr.Add("price", "must be a non-negative integer")

	cases := []struct {
		err    error
		status int
	}{
		{verr, http.StatusBadRequest},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrListingNotFound, http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{fmt.Errorf("%w: put: timeout", domain.ErrStoreFailure), http.StatusBadGateway},
		{fmt.Errorf("mongo down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			ts := newTestServer()
			ts.listings.On("Delete", mock.Anything, mock.Anything, "l1").Return(tc.err)

			req := httptest.NewRequest(http.MethodDelete, "/api/clothes/l1", nil)
			req.Header.Set("Authorization", ts.bearer(t, "u1", domain.RoleLister))
			rec := ts.do(req)

			assert.Equal(t, tc.status, rec.Code)
			var body errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
			assert.NotContains(t, body.Error, "mongo down")
		})
	}
}

func TestValidationErrorCarriesFields(t *testing.T) {
	ts := newTestServer()
	verr := &domain.ValidationError{}
	verr.Add("name", "is required")
	ts.listings.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, verr)

	req := httptest.NewRequest(http.MethodPost, "/api/clothes", strings.NewReader("price=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", ts.bearer(t, "u1", domain.RoleLister))
	rec := ts.do(req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "is required", body.Fields["name"])
}

func TestDeleteListing(t *testing.T) {
	ts := newTestServer()
	ts.listings.On("Delete", mock.Anything, mock.Anything, "l1").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/clothes/l1", nil)
	req.Header.Set("Authorization", ts.bearer(t, "u1", domain.RoleLister))
	rec := ts.do(req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestSearch(t *testing.T) {
	ts := newTestServer()
	ts.listings.On("Search", mock.Anything, domain.Filter{Query: "dress", Gender: "女士", Page: 2, Limit: 4}).
		Return(&usecase.SearchResult{Items: []*domain.Listing{sampleListing()}, Total: 5, Page: 2, Limit: 4}, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/clothes?q=dress&gender=%E5%A5%B3%E5%A3%AB&page=2&limit=4", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got searchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, int64(5), got.Total)
	assert.Equal(t, int64(2), got.Page)
	require.Len(t, got.Clothes, 1)
	assert.Equal(t, "Red dress", got.Clothes[0].Name)
	assert.Equal(t, sellerResponse{ID: "u1", Username: "ann@gmail.com", Role: "lister"}, got.Clothes[0].Seller)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/clothes?page=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_SearchParamWinsOverQ(t *testing.T) {
	ts := newTestServer()
	ts.listings.On("Search", mock.Anything, domain.Filter{Query: "coat"}).
		Return(&usecase.SearchResult{Items: []*domain.Listing{}, Page: 1, Limit: 8}, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/clothes?search=coat", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/clothes?search=coat&q=dress", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.listings.AssertNumberOfCalls(t, "Search", 2)
}

func TestGetListing_NotFound(t *testing.T) {
	ts := newTestServer()
	ts.listings.On("Get", mock.Anything, "missing").Return(nil, domain.ErrListingNotFound)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/clothes/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuditImages(t *testing.T) {
	ts := newTestServer()
	ts.listings.On("AuditImages", mock.Anything, mock.Anything, "l1").Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/clothes/l1/images/audit", nil)
	req.Header.Set("Authorization", ts.bearer(t, "u1", domain.RoleLister))
	rec := ts.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got auditResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "l1", got.ListingID)
	assert.NotNil(t, got.Missing)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer()
	ts.accounts.On("Register", mock.Anything, "amy@school.edu", "pw1234", "lister").
		Return(&accountdomain.User{ID: "u9", Username: "amy@school.edu", Role: domain.RoleLister}, nil)
	ts.accounts.On("Register", mock.Anything, "amy@school.edu", "pw1234", "").
		Return(nil, accountdomain.ErrUsernameTaken)
	ts.accounts.On("Login", mock.Anything, "amy@school.edu", "wrong").
		Return(nil, accountdomain.ErrInvalidCredentials)
	ts.accounts.On("Login", mock.Anything, "amy@school.edu", "pw1234").
		Return(&accountuc.LoginResult{Token: "tok", UserID: "u9", Username: "amy@school.edu", Role: domain.RoleLister}, nil)

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return ts.do(req)
	}

	rec := post("/api/register", `{"username":"amy@school.edu","password":"pw1234","role":"lister"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = post("/api/register", `{"username":"amy@school.edu","password":"pw1234"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = post("/api/register", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post("/api/login", `{"username":"amy@school.edu","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post("/api/login", `{"username":"amy@school.edu","password":"pw1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, map[string]interface{}{
		"token":    "tok",
		"user_id":  "u9",
		"username": "amy@school.edu",
		"role":     "lister",
	}, got)
}

func TestFavorites(t *testing.T) {
	ts := newTestServer()
	ts.favorites.On("AddFavorite", mock.Anything, mock.Anything, "l1").Return(nil)
	ts.favorites.On("AddFavorite", mock.Anything, mock.Anything, "l2").Return(domain.ErrDuplicateFavorite)
	ts.favorites.On("RemoveFavorite", mock.Anything, mock.Anything, "l3").Return(domain.ErrFavoriteNotFound)
	ts.favorites.On("GetFavorites", mock.Anything, mock.Anything).
		Return([]*domain.Favorite{{UserID: "u2", ListingID: "l1"}}, nil)

	authed := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", ts.bearer(t, "u2", domain.RoleBrowser))
		return ts.do(req)
	}

	assert.Equal(t, http.StatusNoContent, authed(http.MethodPost, "/api/clothes/l1/favorite").Code)
	assert.Equal(t, http.StatusConflict, authed(http.MethodPost, "/api/clothes/l2/favorite").Code)
	assert.Equal(t, http.StatusNotFound, authed(http.MethodDelete, "/api/clothes/l3/favorite").Code)

	rec := authed(http.MethodGet, "/api/favorites")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []favoriteResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "l1", got[0].ListingID)
}

func TestOptionsAndHealth(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/occasions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var occasions []string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&occasions))
	assert.Equal(t, domain.Occasions, occasions)

	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(httptest.NewRequest(http.MethodGet, "/nope", nil)).Code)
}
