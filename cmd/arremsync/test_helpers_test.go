package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"arremsync/internal/testsupport"
)

const (
	testEmbyKey   = "emby-key"
	testRadarrKey = "radarr-key"
)

type fakeServices struct {
	emby   *httptest.Server
	radarr *httptest.Server

	mu         sync.Mutex
	writes     map[string]string
	rejectAdds bool
	embyDown   bool
}

func newFakeServices(t *testing.T) *fakeServices {
	t.Helper()
	f := &fakeServices{writes: map[string]string{}}

	f.emby = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.embyDown || r.Header.Get("X-Emby-Token") != testEmbyKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/emby/System/Info":
			_, _ = io.WriteString(w, `{"ServerName":"test","Version":"4.8.0"}`)
		case r.URL.Path == "/emby/Items" && r.URL.Query().Get("IncludeItemTypes") == "Movie":
			_, _ = io.WriteString(w, `{"Items":[`+
				`{"Id":"10","Name":"Heat","Type":"Movie","TagItems":[{"Name":"kids"}],"ProviderIds":{"Tmdb":"949"}},`+
				`{"Id":"11","Name":"Alien","Type":"Movie","TagItems":[],"ProviderIds":{"Imdb":"tt0078748"}}`+
				`],"TotalRecordCount":2}`)
		case r.URL.Path == "/emby/Items":
			_, _ = io.WriteString(w, `{"Items":[],"TotalRecordCount":0}`)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/Tags/Add"):
			if f.rejectAdds {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			body, _ := io.ReadAll(r.Body)
			f.writes[r.URL.Path] = string(body)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.emby.Close)

	f.radarr = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != testRadarrKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v3/system/status":
			_, _ = io.WriteString(w, `{"appName":"Radarr","version":"5.3.6"}`)
		case "/api/v3/tag":
			_, _ = io.WriteString(w, `[{"id":1,"label":"4k"},{"id":2,"label":"kids"}]`)
		case "/api/v3/movie":
			_, _ = io.WriteString(w, `[`+
				`{"id":1,"title":"Heat","tmdbId":949,"imdbId":"tt0113277","tags":[1,2]},`+
				`{"id":2,"title":"Alien","tmdbId":348,"imdbId":"tt0078748","tags":[1]},`+
				`{"id":3,"title":"Missing","tmdbId":1,"tags":[1]}`+
				`]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.radarr.Close)

	return f
}

func (f *fakeServices) writtenBodies() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.writes))
	for k, v := range f.writes {
		out[k] = v
	}
	return out
}

// setupCLITestEnv writes a config pointing at the fake services and isolates
// HOME and the working directory.
func setupCLITestEnv(t *testing.T, f *fakeServices) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Chdir(base)
	for _, key := range []string{"ARREM_ARR_1_TYPE", "ARREM_EMBY_URL", "ARREM_EMBY_API_KEY", "ARREM_BATCH_SIZE"} {
		t.Setenv(key, "")
	}

	cfg := testsupport.NewConfig(t,
		testsupport.WithEmby(f.emby.URL, testEmbyKey),
		testsupport.WithArr("radarr", f.radarr.URL, testRadarrKey),
	)
	cfg.Sync.BatchSize = 2

	path := filepath.Join(base, "config.toml")
	testsupport.WriteConfig(t, path, cfg)
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
