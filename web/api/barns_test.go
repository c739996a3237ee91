package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"galpones/barnapi"
	"galpones/barnapi/barnapitest"
	"galpones/metrics"
	"galpones/models"
	"galpones/panel"
	"galpones/web"
	"galpones/web/api"

	"github.com/google/uuid"
)

// testServer runs the full web stack against an in-memory barn API.
// rweb servers cannot be stopped, so one instance is shared by the package.
type testServer struct {
	baseURL string
	barnAPI *barnapitest.Server
}

const serviceSecret = "web-test-secret-key-for-barn-api-32c"

var (
	sharedServer     *testServer
	sharedServerOnce sync.Once
)

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	sharedServerOnce.Do(func() {
		barnAPI := barnapitest.NewServer()
		barnAPI.RequireToken(serviceSecret)
		m := metrics.New()
		client := barnapi.NewClient(barnapi.Options{
			BaseURL: barnAPI.URL,
			Secret:  serviceSecret,
			Timeout: 5 * time.Second,
			Observe: m.ObserveBarnAPI,
		})
		directory := models.NewDirectory(client)
		panels := api.NewPanelStore(client, directory, time.Hour)

		addr := freeAddress(t)
		srv := web.NewServer(web.Options{Address: addr, Metrics: m, RequestsPerMinute: 100000},
			api.NewBarnHandlers(directory, panels, m))

		// Start server in background goroutine
		go func() {
			srv.Run()
		}()

		sharedServer = &testServer{baseURL: "http://" + addr, barnAPI: barnAPI}
		sharedServer.waitReady(t)
	})

	if sharedServer == nil {
		t.Fatal("test server failed to start")
	}
	return sharedServer
}

func freeAddress(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	defer l.Close()
	return l.Addr().String()
}

func (ts *testServer) waitReady(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("server at %s did not become ready", ts.baseURL)
}

// session is one browser: every request carries the same session cookie.
type session struct {
	ts     *testServer
	id     string
	client *http.Client
}

func (ts *testServer) newSession() *session {
	return &session{ts: ts, id: uuid.NewString(), client: &http.Client{Timeout: 5 * time.Second}}
}

// response is a decoded test response
type response struct {
	status  int
	body    string
	outcome string
}

func (s *session) do(t *testing.T, method, path string, body interface{}) response {
	t.Helper()

	var reqBody io.Reader = http.NoBody
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.ts.baseURL+path, reqBody)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: web.SessionCookie, Value: s.id})

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return response{status: resp.StatusCode, body: string(data), outcome: resp.Header.Get(api.OutcomeHeader)}
}

func (s *session) post(t *testing.T, path string, body interface{}) response {
	t.Helper()
	return s.do(t, http.MethodPost, path, body)
}

func (s *session) get(t *testing.T, path string) response {
	t.Helper()
	return s.do(t, http.MethodGet, path, nil)
}

func expectStatus(t *testing.T, r response, want int) {
	t.Helper()
	if r.status != want {
		t.Fatalf("expected status %d, got %d: %s", want, r.status, r.body)
	}
}

func expectOutcome(t *testing.T, r response, want panel.Outcome) {
	t.Helper()
	if r.outcome != want.String() {
		t.Errorf("expected outcome %q, got %q", want.String(), r.outcome)
	}
}

func submitBody(barnNumber, chickens, capacity string) map[string]string {
	return map[string]string{"barnNumber": barnNumber, "chickensInIt": chickens, "maxCapacity": capacity}
}

func TestBarnPanelAPI(t *testing.T) {
	// Skip if running in short mode (CI without network)
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ts := newTestServer(t)

	seedSix := func() {
		ts.barnAPI.Reset(
			models.Barn{ID: 1, BarnNumber: 1, ChickensInIt: 10, MaxCapacity: 20},
			models.Barn{ID: 2, BarnNumber: 2, ChickensInIt: 10, MaxCapacity: 20},
			models.Barn{ID: 3, BarnNumber: 3, ChickensInIt: 10, MaxCapacity: 20},
			models.Barn{ID: 4, BarnNumber: 4, ChickensInIt: 10, MaxCapacity: 20},
			models.Barn{ID: 5, BarnNumber: 5, ChickensInIt: 10, MaxCapacity: 20},
			models.Barn{ID: 6, BarnNumber: 6, ChickensInIt: 10, MaxCapacity: 20},
		)
	}

	t.Run("PageRendersBarnList", func(t *testing.T) {
		seedSix()
		s := ts.newSession()

		r := s.get(t, "/")
		expectStatus(t, r, http.StatusOK)
		for _, want := range []string{`id="barn-table"`, `id="barn-panel-root"`, "barns.openPanel(6)", "Nuevo galpón"} {
			if !strings.Contains(r.body, want) {
				t.Errorf("page should contain %s", want)
			}
		}
		if strings.Contains(r.body, `id="barn-form"`) {
			t.Error("panel should start closed")
		}
	})

	t.Run("CreateBarn", func(t *testing.T) {
		seedSix()
		s := ts.newSession()
		s.get(t, "/") // refreshes the barn list

		r := s.post(t, "/barns/panel/open", nil)
		expectStatus(t, r, http.StatusOK)
		if !strings.Contains(r.body, `value="7"`) {
			t.Errorf("create mode should default to the next barn number: %s", r.body)
		}

		r = s.post(t, "/barns/panel/submit", submitBody("7", "5", "10"))
		expectStatus(t, r, http.StatusOK)
		expectOutcome(t, r, panel.OutcomeSaved)
		if !strings.Contains(r.body, panel.MsgSaved) {
			t.Error("success notification should be shown")
		}

		barns := ts.barnAPI.Barns()
		if len(barns) != 7 || barns[6].BarnNumber != 7 || barns[6].ChickensInIt != 5 || barns[6].MaxCapacity != 10 {
			t.Errorf("expected barn {7, 5, 10} to be created, got %+v", barns)
		}

		r = s.post(t, "/barns/panel/notification/dismiss", nil)
		expectOutcome(t, r, panel.OutcomeClosed)
		if strings.Contains(r.body, `id="barn-form"`) {
			t.Error("dismissing the notification should close the panel")
		}

		// The close refreshed the list, so the new barn is in the table
		r = s.get(t, "/barns/table")
		if !strings.Contains(r.body, "barns.openPanel(7)") {
			t.Error("refreshed table should list the new barn")
		}
	})

	t.Run("DeleteBarn", func(t *testing.T) {
		ts.barnAPI.Reset(models.Barn{ID: 3, BarnNumber: 2, ChickensInIt: 4, MaxCapacity: 10})
		s := ts.newSession()
		s.get(t, "/")

		r := s.post(t, "/barns/panel/open?id=3", nil)
		expectStatus(t, r, http.StatusOK)
		if !strings.Contains(r.body, "Editar galpón 2") || !strings.Contains(r.body, "barn-delete") {
			t.Errorf("edit mode should show the barn and offer delete: %s", r.body)
		}

		r = s.post(t, "/barns/panel/delete", nil)
		expectOutcome(t, r, panel.OutcomeDeleted)
		if !strings.Contains(r.body, panel.MsgDeleted) {
			t.Error("delete notification should be shown")
		}
		if len(ts.barnAPI.Barns()) != 0 {
			t.Error("barn should be deleted from the API")
		}

		r = s.post(t, "/barns/panel/notification/dismiss", nil)
		expectOutcome(t, r, panel.OutcomeClosed)
		r = s.get(t, "/barns/table")
		if !strings.Contains(r.body, "Todavía no hay galpones registrados.") {
			t.Error("table should be empty after the delete")
		}
	})

	t.Run("CreateSeesBarnsAddedElsewhere", func(t *testing.T) {
		seedSix()
		s := ts.newSession()
		s.get(t, "/") // directory now knows barns 1..6

		// Another client takes number 7 behind this session's back
		ts.barnAPI.Seed(models.Barn{ID: 7, BarnNumber: 7, ChickensInIt: 1, MaxCapacity: 10})

		r := s.post(t, "/barns/panel/open", nil)
		expectStatus(t, r, http.StatusOK)
		if !strings.Contains(r.body, `value="8"`) {
			t.Errorf("create mode should skip the number taken elsewhere: %s", r.body)
		}

		r = s.post(t, "/barns/panel/submit", submitBody("7", "5", "10"))
		expectOutcome(t, r, panel.OutcomeInvalid)
		if n := ts.barnAPI.MutatingRequests(); n != 0 {
			t.Errorf("a number taken elsewhere should be caught before the API, got %d calls", n)
		}
	})

	t.Run("EditKeepsBarnNumber", func(t *testing.T) {
		ts.barnAPI.Reset(models.Barn{ID: 3, BarnNumber: 2, ChickensInIt: 4, MaxCapacity: 10})
		s := ts.newSession()
		s.get(t, "/")
		s.post(t, "/barns/panel/open?id=3", nil)

		// A tampered barn number is ignored in edit mode
		r := s.post(t, "/barns/panel/submit", submitBody("99", "8", "12"))
		expectOutcome(t, r, panel.OutcomeSaved)

		barns := ts.barnAPI.Barns()
		if len(barns) != 1 || barns[0].BarnNumber != 2 || barns[0].ChickensInIt != 8 || barns[0].MaxCapacity != 12 {
			t.Errorf("expected barn 2 updated to {8, 12}, got %+v", barns)
		}
	})

	t.Run("OverCapacityBlocksSubmit", func(t *testing.T) {
		seedSix()
		s := ts.newSession()
		s.get(t, "/")
		s.post(t, "/barns/panel/open", nil)

		r := s.post(t, "/barns/panel/submit", submitBody("7", "11", "10"))
		expectOutcome(t, r, panel.OutcomeInvalid)
		if !strings.Contains(r.body, panel.MsgChickensOverCapacity) {
			t.Error("over capacity error should be shown")
		}
		if n := ts.barnAPI.MutatingRequests(); n != 0 {
			t.Errorf("no API call expected, got %d", n)
		}

		// After a failed submit every change revalidates
		r = s.post(t, "/barns/panel/field", map[string]string{"field": "chickensInIt", "value": "10"})
		expectStatus(t, r, http.StatusOK)
		if strings.Contains(r.body, panel.MsgChickensOverCapacity) {
			t.Error("fixing the value should clear the error")
		}
	})

	t.Run("DuplicateNumberBlocksCreate", func(t *testing.T) {
		seedSix()
		s := ts.newSession()
		s.get(t, "/")
		s.post(t, "/barns/panel/open", nil)

		r := s.post(t, "/barns/panel/submit", submitBody("3", "0", "10"))
		expectOutcome(t, r, panel.OutcomeInvalid)
		if !strings.Contains(r.body, panel.MsgBarnNumberTaken) {
			t.Error("duplicate number error should be shown")
		}
		if n := ts.barnAPI.MutatingRequests(); n != 0 {
			t.Errorf("no API call expected, got %d", n)
		}
	})

	t.Run("RejectedCreateIsSilent", func(t *testing.T) {
		seedSix()
		s := ts.newSession()
		s.get(t, "/")
		s.post(t, "/barns/panel/open", nil)
		ts.barnAPI.FailNext(http.StatusInternalServerError)

		r := s.post(t, "/barns/panel/submit", submitBody("7", "5", "10"))
		expectStatus(t, r, http.StatusOK)
		expectOutcome(t, r, panel.OutcomeFailed)
		if strings.Contains(r.body, "barn-notification") {
			t.Error("no notification expected after a failure")
		}
		if !strings.Contains(r.body, `id="barn-form"`) {
			t.Error("panel should stay open")
		}
		if strings.Contains(r.body, "Guardando...") || strings.Contains(r.body, `id="barn-submit" disabled`) {
			t.Error("submit should be enabled again")
		}
	})

	t.Run("SessionsHaveTheirOwnPanel", func(t *testing.T) {
		seedSix()
		a := ts.newSession()
		b := ts.newSession()

		a.post(t, "/barns/panel/open", nil)
		r := b.get(t, "/")
		if strings.Contains(r.body, `id="barn-form"`) {
			t.Error("another session's panel should not be open")
		}
		r = a.get(t, "/")
		if !strings.Contains(r.body, `id="barn-form"`) {
			t.Error("a reload should keep the session's panel open")
		}
	})

	t.Run("BadInput", func(t *testing.T) {
		seedSix()
		s := ts.newSession()
		s.get(t, "/")

		expectStatus(t, s.post(t, "/barns/panel/open?id=abc", nil), http.StatusBadRequest)
		expectStatus(t, s.post(t, "/barns/panel/open?id=999", nil), http.StatusNotFound)

		s.post(t, "/barns/panel/open", nil)
		expectStatus(t, s.post(t, "/barns/panel/field", map[string]string{"field": "color", "value": "1"}), http.StatusBadRequest)
		expectStatus(t, s.post(t, "/barns/panel/submit", "not an object"), http.StatusBadRequest)
	})

	t.Run("DeleteUnavailableInCreateMode", func(t *testing.T) {
		seedSix()
		s := ts.newSession()
		s.get(t, "/")
		s.post(t, "/barns/panel/open", nil)

		r := s.post(t, "/barns/panel/delete", nil)
		expectOutcome(t, r, panel.OutcomeUnavailable)
		if n := ts.barnAPI.MutatingRequests(); n != 0 {
			t.Errorf("no API call expected, got %d", n)
		}
	})

	t.Run("ListBarnsJSON", func(t *testing.T) {
		seedSix()
		s := ts.newSession()

		r := s.get(t, "/api/v1/barns?refresh=true")
		expectStatus(t, r, http.StatusOK)

		var result api.APIResponse
		if err := json.Unmarshal([]byte(r.body), &result); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if !result.Success {
			t.Errorf("expected success, got %+v", result)
		}
		data, ok := result.Data.([]interface{})
		if !ok || len(data) != 6 {
			t.Errorf("expected 6 barns, got %v", result.Data)
		}
	})

	t.Run("HealthAndMetrics", func(t *testing.T) {
		s := ts.newSession()

		r := s.get(t, "/health")
		expectStatus(t, r, http.StatusOK)
		if !strings.Contains(r.body, `"status":"ok"`) {
			t.Errorf("unexpected health body: %s", r.body)
		}

		r = s.get(t, "/metrics")
		expectStatus(t, r, http.StatusOK)
		for _, want := range []string{"galpones_panel_actions_total", "galpones_barn_api_requests_total", "galpones_http_requests_total"} {
			if !strings.Contains(r.body, want) {
				t.Errorf("metrics should include %s", want)
			}
		}
	})

	t.Run("RequestMetricsUseStatusAndRoute", func(t *testing.T) {
		seedSix()
		s := ts.newSession()

		expectStatus(t, s.post(t, "/barns/panel/open?id=abc", nil), http.StatusBadRequest)
		expectStatus(t, s.post(t, "/barns/panel/open?id=999", nil), http.StatusNotFound)
		s.get(t, "/no-such-page-a1")
		s.get(t, "/no-such-page-b2")

		r := s.get(t, "/metrics")
		expectStatus(t, r, http.StatusOK)

		for _, want := range []string{
			`galpones_http_requests_total{method="POST",path="/barns/panel/open",status="400"}`,
			`galpones_http_requests_total{method="POST",path="/barns/panel/open",status="404"}`,
			`galpones_http_requests_total{method="GET",path="unmatched",status="404"}`,
		} {
			if !strings.Contains(r.body, want) {
				t.Errorf("metrics should include %s", want)
			}
		}
		for _, unwanted := range []string{`status="success"`, `status="error"`, "no-such-page"} {
			if strings.Contains(r.body, unwanted) {
				t.Errorf("metrics should not include %s", unwanted)
			}
		}
	})
}
