package health

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"pattern_bot/internal/modules/health/service"
)

type fakePatterns map[string]map[string]any

func (f fakePatterns) Instruments() []string {
	out := make([]string, 0, len(f))
	for id := range f {
		out = append(out, id)
	}
	return out
}

func (f fakePatterns) View(instID string) (any, bool) {
	v, ok := f[instID]
	return v, ok
}

func TestMux(t *testing.T) {
	st := service.NewState()
	src := fakePatterns{"BTC-USDT-SWAP": {"pattern": "0000000"}}
	srv := httptest.NewServer(NewMux(st, src, NewRegistry()))
	defer srv.Close()

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	if code, _ := get("/livez"); code != http.StatusOK {
		t.Errorf("/livez = %d", code)
	}
	if code, _ := get("/readyz"); code != http.StatusServiceUnavailable {
		t.Errorf("/readyz before ready = %d", code)
	}
	st.SetLive(1, 2)
	if code, _ := get("/readyz"); code != http.StatusServiceUnavailable {
		t.Errorf("/readyz half live = %d", code)
	}
	st.SetLive(2, 2)
	if code, _ := get("/readyz"); code != http.StatusOK {
		t.Errorf("/readyz after ready = %d", code)
	}

	st.TouchTick(time.Unix(1700000000, 0))
	st.TouchSignal(time.Unix(1700000060, 0))
	st.SignalDropped()
	_, body := get("/healthz")
	var h map[string]any
	if err := sonic.Unmarshal([]byte(body), &h); err != nil {
		t.Fatal(err)
	}
	if h["lastTickUnix"] != float64(1700000000) || h["ready"] != true {
		t.Errorf("/healthz = %s", body)
	}
	if h["lastSignalUnix"] != float64(1700000060) || h["signalsDropped"] != float64(1) ||
		h["instrumentsLive"] != float64(2) || h["instrumentsTotal"] != float64(2) {
		t.Errorf("/healthz = %s", body)
	}

	if code, body := get("/patterns?inst=BTC-USDT-SWAP"); code != http.StatusOK || !strings.Contains(body, "0000000") {
		t.Errorf("/patterns = %d %s", code, body)
	}
	if code, _ := get("/patterns?inst=NOPE"); code != http.StatusNotFound {
		t.Errorf("/patterns unknown = %d", code)
	}
	if code, body := get("/patterns"); code != http.StatusOK || !strings.HasPrefix(body, "[") {
		t.Errorf("/patterns all = %d %s", code, body)
	}
	if code, body := get("/metrics"); code != http.StatusOK || !strings.Contains(body, "go_goroutines") {
		t.Errorf("/metrics = %d", code)
	}
}
