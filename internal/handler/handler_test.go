package handler

import (
	"bytes"
	"context"
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

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/export"
	"github.com/Wodenvase/BharatLedger/internal/model"
	"github.com/Wodenvase/BharatLedger/internal/service"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeTokens struct {
	valid map[string]uuid.UUID
}

func (f fakeTokens) ParseToken(token string) (uuid.UUID, error) {
	id, ok := f.valid[token]
	if !ok {
		return uuid.Nil, model.ErrInvalidToken
	}
	return id, nil
}

type fakeDashboard struct {
	summary model.ScoreSummary
	err     error
	gotUser uuid.UUID
}

func (f *fakeDashboard) Overview(ctx context.Context, userID uuid.UUID) (model.ScoreSummary, error) {
	f.gotUser = userID
	return f.summary, f.err
}

func (f *fakeDashboard) History(ctx context.Context, userID uuid.UUID) ([]model.ScoreSnapshot, error) {
	return nil, f.err
}

type fakeLister struct {
	got model.TransactionFilter
}

func (f *fakeLister) List(ctx context.Context, filter model.TransactionFilter) (*model.TransactionPage, error) {
	f.got = filter
	return &model.TransactionPage{Transactions: []model.Transaction{}, Limit: filter.Limit, Offset: filter.Offset}, nil
}

type fakeProfiles struct {
	getErr error
}

func (f *fakeProfiles) Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &model.Profile{ID: userID, Email: "a@example.com", Name: "A"}, nil
}

func (f *fakeProfiles) Update(ctx context.Context, userID uuid.UUID, in model.UpdateProfileInput) (*model.Profile, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, &service.ValidationError{Err: errors.New("Name is required")}
	}
	return nil, errors.New("db down")
}

type fakeUploader struct {
	got  service.UploadInput
	body string
	err  error
}

func (f *fakeUploader) Upload(ctx context.Context, in service.UploadInput) (*model.UploadResult, error) {
	f.got = in
	if in.Content != nil {
		b, _ := io.ReadAll(in.Content)
		f.body = string(b)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.UploadResult{Success: true, Message: "File uploaded successfully", FileName: in.FileName, Size: int64(len(f.body))}, nil
}

func (f *fakeUploader) Get(ctx context.Context, userID, uploadID uuid.UUID) (*model.Upload, error) {
	return nil, model.ErrUploadNotFound
}

type fakeReports struct {
	from, to time.Time
}

func (f *fakeReports) CategoryBreakdown(ctx context.Context, userID uuid.UUID, month time.Time) ([]model.CategorySpending, error) {
	return []model.CategorySpending{{Category: "Shopping", Amount: 10, Percentage: 100}}, nil
}

func (f *fakeReports) MonthlyTrend(ctx context.Context, userID uuid.UUID, months int) ([]model.MonthlyTrend, error) {
	if months < 1 {
		return nil, &service.ValidationError{Err: errors.New("months must be between 1 and 24")}
	}
	return make([]model.MonthlyTrend, months), nil
}

func (f *fakeReports) Statement(ctx context.Context, userID uuid.UUID, from, to time.Time) (*export.Statement, error) {
	f.from, f.to = from, to
	return &export.Statement{OwnerName: "A", From: from, To: to, GeneratedAt: to}, nil
}

type testAPI struct {
	router    *mux.Router
	userID    uuid.UUID
	dashboard *fakeDashboard
	lister    *fakeLister
	uploader  *fakeUploader
	reports   *fakeReports
}

func newTestAPI(devMode bool) *testAPI {
	logger := quietLogger()
	api := &testAPI{
		userID:    uuid.New(),
		dashboard: &fakeDashboard{},
		lister:    &fakeLister{},
		uploader:  &fakeUploader{},
		reports:   &fakeReports{},
	}

	router := mux.NewRouter()
	router.Use(ErrorDetails(devMode))
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(AuthMiddleware(fakeTokens{valid: map[string]uuid.UUID{"good": api.userID}}, logger))

	NewDashboardHandler(api.dashboard, logger).RegisterRoutes(apiRouter.PathPrefix("/dashboard").Subrouter())
	NewTransactionHandler(api.lister, logger).RegisterRoutes(apiRouter.PathPrefix("/transactions").Subrouter())
	NewProfileHandler(&fakeProfiles{}, logger).RegisterRoutes(apiRouter.PathPrefix("/profile").Subrouter())
	NewUploadHandler(api.uploader, 1024, logger).RegisterRoutes(apiRouter)
	NewReportHandler(api.reports, logger).RegisterRoutes(apiRouter.PathPrefix("/reports").Subrouter())

	api.router = router
	return api
}

func (a *testAPI) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer good")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestAuthMiddleware(t *testing.T) {
	api := newTestAPI(false)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no credentials", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic good") }, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"}) }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/dashboard/overview", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			api.router.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusUnauthorized {
				if got := decodeError(t, rec).Error; got != "Unauthorized" {
					t.Errorf("error = %q, want Unauthorized", got)
				}
			}
		})
	}
	if api.dashboard.gotUser != api.userID {
		t.Errorf("user id not propagated: %s", api.dashboard.gotUser)
	}
}

func TestOverviewErrors(t *testing.T) {
	t.Run("user not found", func(t *testing.T) {
		api := newTestAPI(false)
		api.dashboard.err = fmt.Errorf("load: %w", model.ErrUserNotFound)
		rec := api.do("GET", "/api/dashboard/overview", nil, "")
		if rec.Code != http.StatusNotFound || decodeError(t, rec).Error != "User not found" {
			t.Fatalf("got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("internal error hides details", func(t *testing.T) {
		api := newTestAPI(false)
		api.dashboard.err = errors.New("pq: connection refused")
		rec := api.do("GET", "/api/dashboard/overview", nil, "")
		body := decodeError(t, rec)
		if rec.Code != http.StatusInternalServerError || body.Error != "Internal server error" || body.Details != "" {
			t.Fatalf("got %d %+v", rec.Code, body)
		}
	})

	t.Run("development shows details", func(t *testing.T) {
		api := newTestAPI(true)
		api.dashboard.err = errors.New("pq: connection refused")
		rec := api.do("GET", "/api/dashboard/overview", nil, "")
		if body := decodeError(t, rec); body.Details != "pq: connection refused" {
			t.Fatalf("details = %q", body.Details)
		}
	})
}

func TestOverviewEmptyJSON(t *testing.T) {
	api := newTestAPI(false)
	api.dashboard.summary = model.EmptySummary()
	rec := api.do("GET", "/api/dashboard/overview", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := `{"creditScore":0,"monthlyIncome":0,"monthlyExpenses":0,"savingsRate":0,"connectedAccounts":0,"recentTransactions":[],"hasTransactions":false}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s\nwant   %s", got, want)
	}
}

func TestTransactionQueryParsing(t *testing.T) {
	api := newTestAPI(false)

	rec := api.do("GET", "/api/transactions?type=Expense&category=Shopping&startDate=2024-03-01&endDate=2024-03-31&limit=20&offset=40", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := api.lister.got
	if got.UserID != api.userID || got.Type != model.TransactionTypeExpense || got.Category != "Shopping" || got.Limit != 20 || got.Offset != 40 {
		t.Errorf("filter = %+v", got)
	}
	if got.EndDate != nil || got.EndBefore == nil || !got.EndBefore.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.Local)) {
		t.Errorf("end bounds = %v / %v, want before 1 April", got.EndDate, got.EndBefore)
	}

	rec = api.do("GET", "/api/transactions?endDate=2024-03-31T18:00:00Z", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := api.lister.got; got.EndBefore != nil || got.EndDate == nil || !got.EndDate.Equal(time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("instant end = %v / %v", got.EndDate, got.EndBefore)
	}

	rec = api.do("GET", "/api/transactions", nil, "")
	if rec.Code != http.StatusOK || api.lister.got.Limit != service.DefaultPageLimit {
		t.Errorf("default limit = %d", api.lister.got.Limit)
	}

	for _, q := range []string{"type=refund", "startDate=03/01/2024", "limit=ten", "offset=x"} {
		rec := api.do("GET", "/api/transactions?"+q, nil, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestProfileMessages(t *testing.T) {
	api := newTestAPI(false)

	rec := api.do("PUT", "/api/profile", strings.NewReader(`{"name":"  "}`), "application/json")
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Error != "Name is required" {
		t.Errorf("blank name: %d %s", rec.Code, rec.Body.String())
	}

	rec = api.do("PUT", "/api/profile", strings.NewReader(`{"name":"New"}`), "application/json")
	if rec.Code != http.StatusInternalServerError || decodeError(t, rec).Error != "Failed to update profile" {
		t.Errorf("store failure: %d %s", rec.Code, rec.Body.String())
	}

	rec = api.do("GET", "/api/profile", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("get: %d", rec.Code)
	}
}

func multipartBody(t *testing.T, fields map[string]string, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(fw, content)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	t.Run("passes file and account", func(t *testing.T) {
		api := newTestAPI(false)
		body, ct := multipartBody(t, map[string]string{"accountId": "acc-1"}, "march.csv", "Date,Amount\n")
		rec := api.do("POST", "/api/upload", body, ct)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if api.uploader.got.AccountID != "acc-1" || api.uploader.got.FileName != "march.csv" || api.uploader.body != "Date,Amount\n" {
			t.Errorf("input = %+v body %q", api.uploader.got, api.uploader.body)
		}
		var res model.UploadResult
		json.NewDecoder(rec.Body).Decode(&res)
		if !res.Success || res.Message != "File uploaded successfully" {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("missing file reaches the service without content", func(t *testing.T) {
		api := newTestAPI(false)
		api.uploader.err = &service.ValidationError{Err: errors.New("No file uploaded")}
		body, ct := multipartBody(t, map[string]string{"accountId": "acc-1"}, "", "")
		rec := api.do("POST", "/api/upload", body, ct)
		if rec.Code != http.StatusBadRequest || api.uploader.got.Content != nil {
			t.Fatalf("status = %d content = %v", rec.Code, api.uploader.got.Content)
		}
	})

	t.Run("not multipart", func(t *testing.T) {
		api := newTestAPI(false)
		rec := api.do("POST", "/api/upload", strings.NewReader("{}"), "application/json")
		if rec.Code != http.StatusBadRequest || decodeError(t, rec).Error != "No file uploaded" {
			t.Fatalf("got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("error mapping", func(t *testing.T) {
		tests := []struct {
			err    error
			status int
			msg    string
		}{
			{model.ErrAccountNotFound, http.StatusNotFound, "Account not found"},
			{model.ErrInvalidFileType, http.StatusBadRequest, "Invalid file type. Only CSV files are allowed"},
			{model.ErrFileTooLarge, http.StatusBadRequest, "File too large"},
		}
		for _, tt := range tests {
			api := newTestAPI(false)
			api.uploader.err = tt.err
			body, ct := multipartBody(t, map[string]string{"accountId": "x"}, "a.csv", "x")
			rec := api.do("POST", "/api/upload", body, ct)
			if rec.Code != tt.status || decodeError(t, rec).Error != tt.msg {
				t.Errorf("%v: got %d %s", tt.err, rec.Code, rec.Body.String())
			}
		}
	})

	t.Run("unknown upload", func(t *testing.T) {
		api := newTestAPI(false)
		rec := api.do("GET", "/api/uploads/"+uuid.NewString(), nil, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestReportHandlers(t *testing.T) {
	api := newTestAPI(false)

	rec := api.do("GET", "/api/reports/categories?month=2024-03", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("categories: %d", rec.Code)
	}
	if rec := api.do("GET", "/api/reports/categories?month=March", nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad month: %d", rec.Code)
	}

	rec = api.do("GET", "/api/reports/monthly", nil, "")
	var trend []model.MonthlyTrend
	json.NewDecoder(rec.Body).Decode(&trend)
	if rec.Code != http.StatusOK || len(trend) != defaultTrendMonths {
		t.Errorf("monthly: %d, %d months", rec.Code, len(trend))
	}
	if rec := api.do("GET", "/api/reports/monthly?months=0", nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("months=0: %d", rec.Code)
	}

	rec = api.do("GET", "/api/reports/tally.xml?from=2024-03-01&to=2024-03-31", nil, "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/xml" {
		t.Fatalf("tally: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "bharatledger_20240301_20240331.xml") {
		t.Errorf("disposition = %s", rec.Header().Get("Content-Disposition"))
	}
	if api.reports.from.Day() != 1 || api.reports.to.Day() != 31 {
		t.Errorf("period = %v..%v", api.reports.from, api.reports.to)
	}

	rec = api.do("GET", "/api/reports/statement.pdf", nil, "")
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Errorf("pdf: %d", rec.Code)
	}

	if rec := api.do("GET", "/api/reports/statement.pdf?from=yesterday", nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad from: %d", rec.Code)
	}
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	for _, tt := range []struct {
		err    error
		status int
	}{
		{nil, http.StatusOK},
		{errors.New("down"), http.StatusServiceUnavailable},
	} {
		rec := httptest.NewRecorder()
		Health(fakePinger{tt.err}, quietLogger())(rec, httptest.NewRequest("GET", "/health", nil))
		if rec.Code != tt.status {
			t.Errorf("status = %d, want %d", rec.Code, tt.status)
		}
	}
}
