package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/wavein/internal/attendance"
	"github.com/ayusman/wavein/internal/enroll"
	"github.com/ayusman/wavein/internal/face"
	"github.com/ayusman/wavein/internal/gallery"
	"github.com/ayusman/wavein/internal/plugin"
	"github.com/ayusman/wavein/internal/store"
)

type testEnv struct {
	srv     *httptest.Server
	store   *store.Store
	ledger  *attendance.Ledger
	session *enroll.Session
	gallery *gallery.Gallery
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tmpDir := t.TempDir()

	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	now := func() time.Time { return time.Date(2026, 3, 2, 9, 15, 0, 0, time.Local) }
	rec := face.NewMockRecognizer()
	g := gallery.New(rec, gallery.NewFileStore(filepath.Join(tmpDir, "face_encodings.gob")), gallery.DefaultConfig())
	env := &testEnv{
		store:   s,
		ledger:  attendance.NewLedger(s.Attendance(), now),
		session: enroll.NewSession(g, rec, enroll.Config{MaxSamples: 2, Now: now}),
		gallery: g,
	}

	env.srv = httptest.NewServer(New(Config{
		Store:   s,
		Ledger:  env.ledger,
		Session: env.session,
		Gallery: g,
		Plugins: plugin.NewManager(filepath.Join(tmpDir, "plugins")),
	}))
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, wantStatus int, out any) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := e.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s status = %d, want %d: %s", method, path, resp.StatusCode, wantStatus, b)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s decode error = %v", method, path, err)
		}
	}
}

func TestAPI_EnrollmentWorkflow(t *testing.T) {
	env := newTestEnv(t)

	// 1. Add a student; enrollment starts for them
	var created struct {
		Student struct {
			UUID string `json:"uuid"`
			Name string `json:"name"`
		} `json:"student"`
		Enrolling bool `json:"enrolling"`
	}
	env.do(t, http.MethodPost, "/api/students", `{"name": "Alice", "id": "S-1"}`, http.StatusCreated, &created)
	if created.Student.Name != "Alice" || !created.Enrolling {
		t.Fatalf("unexpected create response %+v", created)
	}

	// 2. Registration status reflects the session
	var st enroll.Status
	env.do(t, http.MethodGet, "/api/registration_status", "", http.StatusOK, &st)
	if !st.Active || st.Name != "Alice" || st.SamplesCollected != 0 || st.MaxSamples != 2 {
		t.Fatalf("unexpected status %+v", st)
	}

	// 3. Completing another name is refused while Alice is active
	env.do(t, http.MethodPost, "/api/complete_registration/Bob", "", http.StatusConflict, nil)

	// 4. Manual captures reach the quota
	env.do(t, http.MethodPost, "/api/manual_capture/Alice", "", http.StatusOK, &st)
	if st.SamplesCollected != 1 || !st.Active {
		t.Fatalf("after first capture %+v", st)
	}
	env.do(t, http.MethodPost, "/api/manual_capture/Alice", "", http.StatusOK, &st)
	if st.Active || !st.Complete || st.SamplesCollected != 2 {
		t.Fatalf("after second capture %+v", st)
	}

	// 5. Completing again only saves the gallery
	env.do(t, http.MethodPost, "/api/complete_registration/Alice", "", http.StatusOK, &st)
	if !st.Complete {
		t.Errorf("after complete %+v", st)
	}

	// 6. The roster lists Alice, and she can be removed
	var list struct {
		Students []struct {
			Name string `json:"name"`
		} `json:"students"`
	}
	env.do(t, http.MethodGet, "/api/students", "", http.StatusOK, &list)
	if len(list.Students) != 1 || list.Students[0].Name != "Alice" {
		t.Fatalf("unexpected roster %+v", list)
	}
	env.do(t, http.MethodDelete, "/api/students/"+created.Student.UUID, "", http.StatusNoContent, nil)
	env.do(t, http.MethodGet, "/api/students/"+created.Student.UUID, "", http.StatusNotFound, nil)
}

func TestAPI_RegisterAndManualCapture(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/register/%20", "", http.StatusBadRequest, nil)

	// Manual capture for a name with no session starts one
	var st enroll.Status
	env.do(t, http.MethodPost, "/api/manual_capture/Carol", "", http.StatusOK, &st)
	if !st.Active || st.Name != "Carol" || st.SamplesCollected != 1 {
		t.Fatalf("unexpected status %+v", st)
	}

	// Registering another name replaces the session
	env.do(t, http.MethodPost, "/api/register/Dan", "", http.StatusOK, &st)
	if st.Name != "Dan" || st.SamplesCollected != 0 {
		t.Fatalf("unexpected status %+v", st)
	}

	env.do(t, http.MethodPost, "/api/complete_registration/Dan", "", http.StatusOK, &st)
	if st.Active || !st.Complete || st.Name != "Dan" {
		t.Errorf("unexpected status %+v", st)
	}

	// Capturing for a completed name reports completion without restarting
	env.do(t, http.MethodPost, "/api/manual_capture/Dan", "", http.StatusOK, &st)
	if st.Active || !st.Complete || st.Name != "Dan" || st.SamplesCollected != 0 {
		t.Errorf("manual capture after completion %+v", st)
	}

	env.do(t, http.MethodGet, "/api/register/Dan", "", http.StatusMethodNotAllowed, nil)
}

func TestAPI_Attendance(t *testing.T) {
	env := newTestEnv(t)
	if marked, _, err := env.ledger.Mark("Alice"); err != nil || !marked {
		t.Fatalf("Mark() = %v, %v", marked, err)
	}
	if marked, msg, _ := env.ledger.Mark("Alice"); marked || msg != attendance.MsgAlreadyMarked {
		t.Fatalf("second Mark() = %v, %q", marked, msg)
	}

	var resp struct {
		Records []attendance.Record `json:"records"`
	}
	env.do(t, http.MethodGet, "/api/attendance?date=today", "", http.StatusOK, &resp)
	if len(resp.Records) != 1 || resp.Records[0].Name != "Alice" || resp.Records[0].Time != "09:15:00" {
		t.Fatalf("unexpected records %+v", resp.Records)
	}

	env.do(t, http.MethodGet, "/api/attendance?date=03/02/2026", "", http.StatusBadRequest, nil)

	httpResp, err := env.srv.Client().Get(env.srv.URL + "/api/attendance/export")
	if err != nil {
		t.Fatal(err)
	}
	defer httpResp.Body.Close()
	body, _ := io.ReadAll(httpResp.Body)
	want := "Name,Date,Time,Status\nAlice,2026-03-02,09:15:00,Present\n"
	if string(body) != want {
		t.Errorf("export = %q, want %q", body, want)
	}
	if cd := httpResp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attendance.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestAPI_Gallery(t *testing.T) {
	env := newTestEnv(t)

	var resp struct {
		Entries    int `json:"entries"`
		Identities []struct {
			Name string `json:"name"`
		} `json:"identities"`
	}
	env.do(t, http.MethodGet, "/api/gallery", "", http.StatusOK, &resp)
	if resp.Entries != 0 || resp.Identities == nil || len(resp.Identities) != 0 {
		t.Errorf("unexpected gallery %+v", resp)
	}
}

func TestAPI_Hooks(t *testing.T) {
	env := newTestEnv(t)

	// No plugin is installed, so any binding is rejected
	env.do(t, http.MethodPost, "/api/hooks", `{"event": "attendance.marked", "plugin_name": "notify", "action_name": "log"}`, http.StatusBadRequest, nil)

	var plugins struct {
		Plugins []any `json:"plugins"`
	}
	env.do(t, http.MethodGet, "/api/plugins", "", http.StatusOK, &plugins)
	if plugins.Plugins == nil || len(plugins.Plugins) != 0 {
		t.Errorf("unexpected plugins %+v", plugins)
	}

	var hooks struct {
		Hooks []any `json:"hooks"`
	}
	env.do(t, http.MethodGet, "/api/hooks", "", http.StatusOK, &hooks)
	if len(hooks.Hooks) != 0 {
		t.Errorf("unexpected hooks %+v", hooks)
	}

	env.do(t, http.MethodPut, "/api/hooks/missing", `{"enabled": true}`, http.StatusNotFound, nil)
}

func TestAPI_HealthCheck(t *testing.T) {
	env := newTestEnv(t)

	var health map[string]any
	env.do(t, http.MethodGet, "/api/health", "", http.StatusOK, &health)
	if health["status"] != "ok" {
		t.Errorf("status = %v, want ok", health["status"])
	}
}
