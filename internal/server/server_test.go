package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapask/internal/adapter"
	"github.com/leapstack-labs/leapask/internal/analysis"
	"github.com/leapstack-labs/leapask/internal/chat"
	"github.com/leapstack-labs/leapask/internal/query"
	"github.com/leapstack-labs/leapask/internal/router"
	"github.com/leapstack-labs/leapask/internal/testutil"
)

func sessionFactory(t *testing.T, m *testutil.FakeChatModel) Factory {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	return func() (*chat.Session, error) {
		a, err := adapter.NewAdapter(adapter.Config{Type: "sqlite"}, logger)
		if err != nil {
			return nil, err
		}
		if err := a.Connect(context.Background(), adapter.Config{Type: "sqlite"}); err != nil {
			return nil, err
		}
		exec := query.NewExecutor(a, logger)
		r := router.New(m, router.Options{Dialect: exec.Dialect(), Retries: router.DefaultRetries}, logger)
		return chat.New(exec, r, analysis.NewRegistry(), chat.Options{Closer: a}, logger), nil
	}
}

type testClient struct {
	t      *testing.T
	base   string
	client *http.Client
	srv    *Server
}

func newTestClient(t *testing.T, m *testutil.FakeChatModel, cfg Config) *testClient {
	t.Helper()
	cfg.NewSession = sessionFactory(t, m)
	cfg.Logger = testutil.NewTestLogger(t)
	cfg.SessionSecret = "test-secret-key-32-bytes-long!!"
	srv := NewServer(cfg)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(srv.Manager().Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, base: ts.URL, client: &http.Client{Jar: jar}, srv: srv}
}

func (c *testClient) do(req *http.Request) (int, []byte) {
	c.t.Helper()
	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, body
}

func (c *testClient) get(path string) (int, []byte) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	require.NoError(c.t, err)
	return c.do(req)
}

func (c *testClient) upload(name, content string) (int, []byte) {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(c.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, c.base+"/api/dataset", &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *testClient) ask(question string) (int, []byte) {
	c.t.Helper()
	body, err := json.Marshal(AskRequest{Question: question})
	require.NoError(c.t, err)
	req, err := http.NewRequest(http.MethodPost, c.base+"/api/ask", bytes.NewReader(body))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, &testutil.FakeChatModel{}, Config{})
	status, body := c.get("/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestUploadAndAsk(t *testing.T) {
	m := &testutil.FakeChatModel{Responses: []*schema.Message{
		testutil.Text(`SELECT COUNT(*) FROM df WHERE "City" = 'NY'`),
	}}
	c := newTestClient(t, m, Config{})

	status, body := c.upload("people.csv", testutil.PeopleCSV)
	require.Equal(t, http.StatusOK, status, string(body))

	var ds DatasetResponse
	require.NoError(t, json.Unmarshal(body, &ds))
	assert.Equal(t, "people", ds.Name)
	assert.Equal(t, 3, ds.Rows)
	assert.Equal(t, 2, ds.Columns)
	assert.Equal(t, []string{"Age", "City"}, ds.Preview.Columns)
	assert.Len(t, ds.Preview.Rows, 3)

	status, body = c.ask("How many rows have City as NY")
	require.Equal(t, http.StatusOK, status, string(body))

	var reply struct {
		Kind   string `json:"kind"`
		Text   string `json:"text"`
		Result struct {
			Rows [][]any `json:"rows"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(body, &reply))
	assert.Equal(t, "answer", reply.Kind)
	require.Len(t, reply.Result.Rows, 1)
	assert.EqualValues(t, 2, reply.Result.Rows[0][0])

	status, body = c.get("/api/history")
	require.Equal(t, http.StatusOK, status)
	var history struct {
		Turns []map[string]any `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history.Turns, 1)
	assert.Equal(t, "How many rows have City as NY", history.Turns[0]["question"])

	status, body = c.get("/api/dataset")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"name":"people"`)
}

func TestAsk_WithoutDataset(t *testing.T) {
	c := newTestClient(t, &testutil.FakeChatModel{}, Config{})

	status, body := c.ask("How many rows?")
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), "no dataset loaded")

	status, _ = c.get("/api/dataset")
	assert.Equal(t, http.StatusConflict, status)
}

func TestAsk_BadBody(t *testing.T) {
	c := newTestClient(t, &testutil.FakeChatModel{}, Config{})
	req, err := http.NewRequest(http.MethodPost, c.base+"/api/ask", strings.NewReader("{"))
	require.NoError(t, err)
	status, _ := c.do(req)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpload_Errors(t *testing.T) {
	t.Run("unsupported file", func(t *testing.T) {
		c := newTestClient(t, &testutil.FakeChatModel{}, Config{})
		status, body := c.upload("notes.pdf", "%PDF")
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Contains(t, string(body), "unsupported file type")
	})

	t.Run("too large", func(t *testing.T) {
		c := newTestClient(t, &testutil.FakeChatModel{}, Config{MaxUploadBytes: 64})
		status, _ := c.upload("big.csv", "a,b\n"+strings.Repeat("1,2\n", 100))
		assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	})

	t.Run("missing field", func(t *testing.T) {
		c := newTestClient(t, &testutil.FakeChatModel{}, Config{})
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("other", "x"))
		require.NoError(t, mw.Close())
		req, err := http.NewRequest(http.MethodPost, c.base+"/api/dataset", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		status, _ := c.do(req)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestExportHistory(t *testing.T) {
	m := &testutil.FakeChatModel{Responses: []*schema.Message{testutil.ToolCall("shape", "")}}
	c := newTestClient(t, m, Config{})

	status, _ := c.upload("people.csv", testutil.PeopleCSV)
	require.Equal(t, http.StatusOK, status)
	status, _ = c.ask("How big is it?")
	require.Equal(t, http.StatusOK, status)

	req, err := http.NewRequest(http.MethodGet, c.base+"/api/history/export?format=md", nil)
	require.NoError(t, err)
	resp, err := c.client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="people-transcript.md"`)
	assert.Contains(t, string(body), "## 1. How big is it?")
	assert.Contains(t, string(body), "The dataset has 3 rows and 2 columns.")

	status, _ = c.get("/api/history/export?format=pdf")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeleteSession(t *testing.T) {
	c := newTestClient(t, &testutil.FakeChatModel{}, Config{})

	status, _ := c.upload("people.csv", testutil.PeopleCSV)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, c.srv.Manager().Len())

	req, err := http.NewRequest(http.MethodDelete, c.base+"/api/session", nil)
	require.NoError(t, err)
	status, _ = c.do(req)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, 0, c.srv.Manager().Len())

	status, _ = c.get("/api/dataset")
	assert.Equal(t, http.StatusConflict, status)
}

func TestSessionsAreIsolated(t *testing.T) {
	m := &testutil.FakeChatModel{}
	a := newTestClient(t, m, Config{})
	status, _ := a.upload("people.csv", testutil.PeopleCSV)
	require.Equal(t, http.StatusOK, status)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	b := &testClient{t: t, base: a.base, client: &http.Client{Jar: jar}, srv: a.srv}
	status, _ = b.get("/api/dataset")
	assert.Equal(t, http.StatusConflict, status)
}

func TestCORS(t *testing.T) {
	c := newTestClient(t, &testutil.FakeChatModel{}, Config{AllowedOrigins: []string{"http://localhost:3000"}})

	req, err := http.NewRequest(http.MethodOptions, c.base+"/api/ask", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := c.client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, ck := range resp.Cookies() {
		if ck.Name == cookieName {
			return ck
		}
	}
	return nil
}

func TestSessionCookie_PlainHTTP(t *testing.T) {
	c := newTestClient(t, &testutil.FakeChatModel{}, Config{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "people.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(testutil.PeopleCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req, err := http.NewRequest(http.MethodPost, c.base+"/api/dataset", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ck := sessionCookie(t, resp)
	require.NotNil(t, ck)
	assert.False(t, ck.Secure)
	assert.True(t, ck.HttpOnly)

	status, _ := c.get("/api/dataset")
	assert.Equal(t, http.StatusOK, status)
}

func TestSessionCookie_Secure(t *testing.T) {
	c := newTestClient(t, &testutil.FakeChatModel{}, Config{SecureCookies: true})

	resp, err := c.client.Post(c.base+"/api/ask", "application/json", strings.NewReader(`{"question":"hi"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/dataset", nil)
	h := NewHandlers(c.srv.manager, c.srv.sessionStore, c.srv.cfg, nil)
	_, err = h.session(w, r, true)
	require.NoError(t, err)
	ck := sessionCookie(t, w.Result())
	require.NotNil(t, ck)
	assert.True(t, ck.Secure)
}

func TestSessionCookie_RefreshedOnUse(t *testing.T) {
	c := newTestClient(t, &testutil.FakeChatModel{}, Config{})
	status, _ := c.upload("people.csv", testutil.PeopleCSV)
	require.Equal(t, http.StatusOK, status)

	for _, path := range []string{"/api/dataset", "/api/history"} {
		resp, err := c.client.Get(c.base + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)

		ck := sessionCookie(t, resp)
		require.NotNil(t, ck, "%s should re-issue the session cookie", path)
		assert.Equal(t, int(DefaultSessionTTL.Seconds()), ck.MaxAge)
	}
	assert.Equal(t, 1, c.srv.Manager().Len())
}
