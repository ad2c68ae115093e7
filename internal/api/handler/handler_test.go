package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ndx-snapshot-backend/internal/api/constant"
	"ndx-snapshot-backend/internal/api/dto"
	"ndx-snapshot-backend/internal/api/usecase"
	"ndx-snapshot-backend/internal/api/usecase/mocks"
	"ndx-snapshot-backend/internal/models"
	"ndx-snapshot-backend/internal/refresh"
	"ndx-snapshot-backend/internal/repo"
)

const testToken = "s3cret"

func setupRouter(uc usecase.UsecaseItf) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(uc, true), RouterConfig{
		RequestTimeout: 100 * time.Millisecond,
		RefreshTimeout: 100 * time.Millisecond,
		RefreshToken:   testToken,
	})
}

func TestIntegratedHandlers(t *testing.T) {
	/**
	These mostly exercise the handlers together with the error, timeout
	and token middlewares on top of a mocked usecase.
	**/
	fetchedAt := time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)
	snapshot := refresh.Result{
		Quotes:           []models.Quote{{Symbol: "AAPL", Name: "Apple", FetchedAt: fetchedAt}},
		Source:           refresh.SourceDatabase,
		FetchedAt:        &fetchedAt,
		RefreshedSymbols: []string{},
		SkippedSymbols:   []string{},
	}
	usecaseError := errors.New("a simulated usecase error")

	testCases := []struct {
		name                 string
		method               string
		url                  string
		body                 string
		token                string
		setupMock            func(mockUC *mocks.UsecaseItf)
		expectedStatusCode   int
		expectedBodyContains string
		expectedBody         string
		expectedCacheControl string
	}{
		{
			name:   "Success - quotes with source and cache headers",
			method: http.MethodGet,
			url:    "/api/v1/quotes",
			setupMock: func(mockUC *mocks.UsecaseItf) {
				mockUC.On("LoadQuotes", mock.Anything, false).Return(snapshot, nil)
			},
			expectedStatusCode:   http.StatusOK,
			expectedBodyContains: `"source":"database","refreshed":false`,
			expectedCacheControl: constant.QuotesCacheControl,
		},
		{
			name:   "Success - force reload",
			method: http.MethodGet,
			url:    "/api/v1/quotes?force=true",
			setupMock: func(mockUC *mocks.UsecaseItf) {
				res := snapshot
				res.Source = refresh.SourceRefresh
				res.Refreshed = true
				mockUC.On("LoadQuotes", mock.Anything, true).Return(res, nil)
			},
			expectedStatusCode:   http.StatusOK,
			expectedBodyContains: `"source":"refresh","refreshed":true`,
		},
		{
			name:                 "Failure - invalid force parameter",
			method:               http.MethodGet,
			url:                  "/api/v1/quotes?force=maybe",
			setupMock:            func(mockUC *mocks.UsecaseItf) {},
			expectedStatusCode:   http.StatusBadRequest,
			expectedBodyContains: constant.ErrInvalidForce.Error(),
		},
		{
			name:   "Failure - no quotes yet",
			method: http.MethodGet,
			url:    "/api/v1/quotes",
			setupMock: func(mockUC *mocks.UsecaseItf) {
				mockUC.On("LoadQuotes", mock.Anything, false).Return(refresh.Result{}, constant.ErrQuotesUnavailable)
			},
			expectedStatusCode:   http.StatusServiceUnavailable,
			expectedBodyContains: constant.ErrQuotesUnavailable.Error(),
		},
		{
			name:   "Failure - nothing could be fetched",
			method: http.MethodGet,
			url:    "/api/v1/quotes",
			setupMock: func(mockUC *mocks.UsecaseItf) {
				mockUC.On("LoadQuotes", mock.Anything, false).Return(refresh.Result{}, &refresh.NoDataError{Symbols: 101})
			},
			expectedStatusCode:   http.StatusServiceUnavailable,
			expectedBodyContains: "no quote data available",
		},
		{
			name:   "Failure - usecase is too slow and times out",
			method: http.MethodGet,
			url:    "/api/v1/quotes",
			setupMock: func(mockUC *mocks.UsecaseItf) {
				mockUC.On("LoadQuotes", mock.Anything, false).
					After(200*time.Millisecond).
					Return(snapshot, nil)
			},
			expectedStatusCode:   http.StatusGatewayTimeout,
			expectedBodyContains: "request timed out",
			expectedBody:         `{"success":false,"error":"request timed out","data":null}`,
		},
		{
			name:   "Failure - refresh outlives its timeout",
			method: http.MethodPost,
			url:    "/api/v1/quotes/refresh",
			token:  testToken,
			setupMock: func(mockUC *mocks.UsecaseItf) {
				mockUC.On("ForceRefresh", mock.Anything, true).
					After(200*time.Millisecond).
					Return(snapshot, nil)
			},
			expectedStatusCode:   http.StatusGatewayTimeout,
			expectedBodyContains: "request timed out",
			expectedBody:         `{"success":false,"error":"request timed out","data":null}`,
		},
		{
			name:   "Success - single quote",
			method: http.MethodGet,
			url:    "/api/v1/quotes/aapl",
			setupMock: func(mockUC *mocks.UsecaseItf) {
				mockUC.On("SelectBySymbol", mock.Anything, "aapl").Return(snapshot.Quotes[0], nil)
			},
			expectedStatusCode:   http.StatusOK,
			expectedBodyContains: `"symbol":"AAPL","name":"Apple"`,
		},
		{
			name:   "Failure - unknown symbol",
			method: http.MethodGet,
			url:    "/api/v1/quotes/TSLA",
			setupMock: func(mockUC *mocks.UsecaseItf) {
				mockUC.On("SelectBySymbol", mock.Anything, "TSLA").Return(models.Quote{}, constant.ErrUnknownSymbol)
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedBodyContains: constant.ErrUnknownSymbol.Error(),
		},
		{
			name:   "Success - refresh with default daily recording",
			method: http.MethodPost,
			url:    "/api/v1/quotes/refresh",
			token:  testToken,
			setupMock: func(mockUC *mocks.UsecaseItf) {
				res := snapshot
				res.Refreshed = true
				res.RefreshedSymbols = []string{"AAPL"}
				mockUC.On("ForceRefresh", mock.Anything, true).Return(res, nil)
			},
			expectedStatusCode:   http.StatusOK,
			expectedBodyContains: `"refreshedSymbols":["AAPL"],"skippedSymbols":[],"count":1`,
		},
		{
			name:   "Success - refresh without daily recording and with a warning",
			method: http.MethodPost,
			url:    "/api/v1/quotes/refresh",
			body:   `{"recordDaily":false}`,
			token:  testToken,
			setupMock: func(mockUC *mocks.UsecaseItf) {
				res := snapshot
				res.Warning = &repo.PersistenceError{Op: "upsert latest quotes", FailedSymbols: []string{"AAPL"}, Err: errors.New("write conflict")}
				mockUC.On("ForceRefresh", mock.Anything, false).Return(res, nil)
			},
			expectedStatusCode:   http.StatusOK,
			expectedBodyContains: `"warning":`,
		},
		{
			name:                 "Failure - refresh with a wrong token",
			method:               http.MethodPost,
			url:                  "/api/v1/quotes/refresh",
			token:                "guess",
			setupMock:            func(mockUC *mocks.UsecaseItf) {},
			expectedStatusCode:   http.StatusUnauthorized,
			expectedBodyContains: constant.ErrUnauthorized.Error(),
		},
		{
			name:   "Failure - refresh fails",
			method: http.MethodPost,
			url:    "/api/v1/quotes/refresh",
			token:  testToken,
			setupMock: func(mockUC *mocks.UsecaseItf) {
				mockUC.On("ForceRefresh", mock.Anything, true).Return(refresh.Result{}, usecaseError)
			},
			expectedStatusCode:   http.StatusInternalServerError,
			expectedBodyContains: usecaseError.Error(),
		},
		{
			name:   "Success - health",
			method: http.MethodGet,
			url:    "/api/v1/health",
			setupMock: func(mockUC *mocks.UsecaseItf) {
				mockUC.On("Health", mock.Anything).Return(dto.GetHealthRes{Count: 1, MaxAgeMs: 900000}, nil)
			},
			expectedStatusCode:   http.StatusOK,
			expectedBodyContains: `"count":1`,
		},
		{
			name:   "Success - treemap",
			method: http.MethodGet,
			url:    "/api/v1/treemap",
			setupMock: func(mockUC *mocks.UsecaseItf) {
				mockUC.On("Treemap", mock.Anything).Return(usecase.BuildHierarchy(snapshot.Quotes), nil)
			},
			expectedStatusCode:   http.StatusOK,
			expectedBodyContains: `{"name":"NDX","children":[{"name":"Unknown","children":[{"name":"Other"`,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			// given
			mockUC := new(mocks.UsecaseItf)
			tt.setupMock(mockUC)
			router := setupRouter(mockUC)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.url, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			if tt.token != "" {
				req.Header.Set(constant.RefreshTokenHeader, tt.token)
			}

			// when
			router.ServeHTTP(w, req)

			// then
			assert.Equal(t, tt.expectedStatusCode, w.Code, "status code should match")
			assert.Contains(t, w.Body.String(), tt.expectedBodyContains, "response body should contain expected text")
			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, w.Body.String(), "response body should be written once")
			}
			if tt.expectedCacheControl != "" {
				assert.Equal(t, tt.expectedCacheControl, w.Header().Get("Cache-Control"))
			}
			mockUC.AssertExpectations(t)
		})
	}
}
