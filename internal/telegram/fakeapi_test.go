package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// apiCall is one request received by the fake Bot API
type apiCall struct {
	Method string
	Params map[string]string
}

// fakeBotAPI is an httptest stand-in for api.telegram.org.
type fakeBotAPI struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	calls    []apiCall
	batches  [][]json.RawMessage
	failChat map[string]bool
	// getMe answers with this status until the counter runs out
	failGetMe       int
	getMeFailStatus int
}

func newFakeBotAPI(t *testing.T) *fakeBotAPI {
	t.Helper()
	f := &fakeBotAPI{t: t, failChat: make(map[string]bool)}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

// endpoint returns the format string expected by tgbotapi
func (f *fakeBotAPI) endpoint() string {
	return f.server.URL + "/bot%s/%s"
}

func (f *fakeBotAPI) queueUpdates(updates ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make([]json.RawMessage, 0, len(updates))
	for _, u := range updates {
		batch = append(batch, json.RawMessage(u))
	}
	f.batches = append(f.batches, batch)
}

func (f *fakeBotAPI) callsTo(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBotAPI) handle(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)
	params := map[string]string{}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				params[k] = v[0]
			}
			for k := range r.MultipartForm.File {
				params[k] = "<file>"
			}
		}
	} else if err := r.ParseForm(); err == nil {
		for k, v := range r.Form {
			params[k] = v[0]
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Params: params})
	var batch []json.RawMessage
	if method == "getUpdates" && len(f.batches) > 0 {
		batch = f.batches[0]
		f.batches = f.batches[1:]
	}
	fail := f.failChat[params["chat_id"]]
	getMeStatus := 0
	if method == "getMe" && f.failGetMe > 0 {
		f.failGetMe--
		getMeStatus = f.getMeFailStatus
		if getMeStatus == 0 {
			getMeStatus = http.StatusBadGateway
		}
	}
	f.mu.Unlock()

	if getMeStatus == http.StatusUnauthorized {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(getMeStatus)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
		return
	}
	if getMeStatus != 0 {
		http.Error(w, http.StatusText(getMeStatus), getMeStatus)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case fail:
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	case method == "getMe":
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":99,"is_bot":true,"first_name":"Relay","username":"relay_bot"}}`))
	case method == "getUpdates":
		if batch == nil {
			batch = []json.RawMessage{}
		}
		out, _ := json.Marshal(map[string]any{"ok": true, "result": batch})
		_, _ = w.Write(out)
	case method == "copyMessage":
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":500}}`))
	default:
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":500,"date":0,"chat":{"id":1,"type":"private"}}}`))
	}
}

func newTestClient(t *testing.T, api *fakeBotAPI) *Client {
	t.Helper()
	c, err := NewClient("123:test-token", api.endpoint(), 0, quietLogger())
	require.NoError(t, err)
	return c
}
