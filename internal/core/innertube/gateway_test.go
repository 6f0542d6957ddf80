package innertube

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testGateway(srv *httptest.Server) *Gateway {
	g := NewGateway()
	g.baseURL = srv.URL
	return g
}

func TestPlayerRequestShape(t *testing.T) {
	profile, ok := Profile("android_vr")
	if !ok {
		t.Fatal("android_vr profile missing")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/youtubei/v1/player" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("prettyPrint") != "false" {
			t.Error("missing prettyPrint=false")
		}
		if got := r.Header.Get("X-YouTube-Client-Version"); got != profile.ClientVersion {
			t.Errorf("client version header = %q, want %q", got, profile.ClientVersion)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["videoId"] != "dQw4w9WgXcQ" {
			t.Errorf("videoId = %v", body["videoId"])
		}
		ctxBlock, _ := body["context"].(map[string]any)
		client, _ := ctxBlock["client"].(map[string]any)
		if client["clientName"] != profile.ClientName {
			t.Errorf("clientName = %v, want %s", client["clientName"], profile.ClientName)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"playabilityStatus": map[string]any{"status": "OK"},
			"videoDetails":      map[string]any{"videoId": "dQw4w9WgXcQ", "title": "t"},
		})
	}))
	defer srv.Close()

	resp, err := testGateway(srv).Player(context.Background(), "dQw4w9WgXcQ", profile, PlayerOptions{})
	if err != nil {
		t.Fatalf("Player: %v", err)
	}
	if resp.VideoDetails.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("VideoID = %q", resp.VideoDetails.VideoID)
	}
}

func TestPlayerUnplayable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"playabilityStatus": map[string]any{
				"status": "LOGIN_REQUIRED",
				"reason": "Sign in to confirm your age",
			},
		})
	}))
	defer srv.Close()

	profile, _ := Profile("web")
	_, err := testGateway(srv).Player(context.Background(), "dQw4w9WgXcQ", profile, PlayerOptions{})
	var unplayable *UnplayableError
	if !errors.As(err, &unplayable) {
		t.Fatalf("got %v, want UnplayableError", err)
	}
	if unplayable.Reason != "Sign in to confirm your age" {
		t.Errorf("Reason = %q", unplayable.Reason)
	}
}

func TestCallStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	profile, _ := Profile("android")
	_, err := testGateway(srv).Player(context.Background(), "dQw4w9WgXcQ", profile, PlayerOptions{})
	var status *StatusError
	if !errors.As(err, &status) {
		t.Fatalf("got %v, want StatusError", err)
	}
	if status.Code != http.StatusTooManyRequests {
		t.Errorf("Code = %d", status.Code)
	}
}

func TestCallMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	profile, _ := Profile("ios")
	_, err := testGateway(srv).Player(context.Background(), "dQw4w9WgXcQ", profile, PlayerOptions{})
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedResponseError", err)
	}
}

func TestRetry(t *testing.T) {
	t.Run("second attempt succeeds", func(t *testing.T) {
		calls := 0
		v, err := Retry(context.Background(), 2, func() (int, error) {
			calls++
			if calls == 1 {
				return 0, errors.New("transient")
			}
			return 7, nil
		})
		if err != nil || v != 7 {
			t.Errorf("got (%d, %v), want (7, nil)", v, err)
		}
		if calls != 2 {
			t.Errorf("calls = %d", calls)
		}
	})

	t.Run("attempts are bounded", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), 2, func() (int, error) {
			calls++
			return 0, errors.New("always")
		})
		if err == nil || calls != 2 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("unplayable is definitive", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), 3, func() (int, error) {
			calls++
			return 0, &UnplayableError{VideoID: "x", Status: "ERROR"}
		})
		var unplayable *UnplayableError
		if !errors.As(err, &unplayable) {
			t.Fatalf("got %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("cancellation stops the backoff sleep", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Retry(ctx, 3, func() (int, error) {
			return 0, errors.New("transient")
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	})
}

func TestProfiles(t *testing.T) {
	t.Run("default order", func(t *testing.T) {
		got := Profiles(nil)
		want := []string{"android_vr", "ios", "android", "tv", "web"}
		if len(got) != len(want) {
			t.Fatalf("got %d profiles, want %d", len(got), len(want))
		}
		for i, tag := range want {
			if got[i].Tag != tag {
				t.Errorf("profile %d = %q, want %q", i, got[i].Tag, tag)
			}
		}
	})

	t.Run("override skips unknown tags", func(t *testing.T) {
		got := Profiles([]string{"web", "bogus", "ios"})
		if len(got) != 2 || got[0].Tag != "web" || got[1].Tag != "ios" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("all-unknown override falls back to default", func(t *testing.T) {
		got := Profiles([]string{"bogus"})
		if len(got) != 5 {
			t.Errorf("got %d profiles, want the default 5", len(got))
		}
	})
}
