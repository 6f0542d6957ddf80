package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/guiyumin/ytdl/internal/core/innertube"
	"github.com/guiyumin/ytdl/internal/core/playerjs"
)

// testPlayerJS carries the structures cipher resolution needs: a helper
// object, an assigned signature function and an n function behind an array
// literal. sig("abcdefgh") = "efdcba", n("abc") = "cba".
const testPlayerJS = `var _yt_player={};(function(g){
signatureTimestamp:19834,
var Ku={wB:function(a){a.reverse()},
xC:function(a,b){var c=a[0];a[0]=a[b%a.length];a[b%a.length]=c},
yD:function(a,b){a.splice(0,b)}};
var Yva=function(a){a=a.split("");Ku.wB(a,3);Ku.yD(a,2);Ku.xC(a,1);return a.join("")};
var Xab=function(a){a=a.split("");a.reverse();return a.join("")};
var bW=[Xab];
g.process=function(c,d){c&&d.set("sig",encodeURIComponent(Yva(decodeURIComponent(c))))};
g.throttle=function(a,b){a.get("n"))&&(b=bW[0](b),a.set("n",b))};
})(_yt_player);`

const testWatchHTML = `<html><head>
<script src="/s/player/feedbeef00/player_ias.vflset/en_US/base.js"></script>
</head><body></body></html>`

// playerServer fakes the innertube player endpoint plus the watch page and
// player script, recording which client each player call came from.
type playerServer struct {
	*httptest.Server
	clients []string
}

func newPlayerServer(t *testing.T, respond func(clientName string) innertube.PlayerResponse) *playerServer {
	t.Helper()
	ps := &playerServer{}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/youtubei/v1/player"):
			var req struct {
				Context struct {
					Client struct {
						ClientName string `json:"clientName"`
					} `json:"client"`
				} `json:"context"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode player request: %v", err)
			}
			ps.clients = append(ps.clients, req.Context.Client.ClientName)
			json.NewEncoder(w).Encode(respond(req.Context.Client.ClientName))
		case r.URL.Path == "/watch":
			w.Write([]byte(testWatchHTML))
		case strings.HasSuffix(r.URL.Path, "base.js"):
			w.Write([]byte(testPlayerJS))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ps.Close)
	return ps
}

func testExtractor(baseURL string, priority ...string) *Extractor {
	e := NewWithGateway(innertube.NewGatewayWithBaseURL(baseURL), playerjs.NewResolverWithWatchBase(baseURL))
	e.clientPriority = priority
	return e
}

func okPlayerResponse(formats ...innertube.Format) innertube.PlayerResponse {
	return innertube.PlayerResponse{
		PlayabilityStatus: innertube.PlayabilityStatus{Status: "OK"},
		StreamingData:     innertube.StreamingData{AdaptiveFormats: formats},
		VideoDetails: innertube.VideoDetails{
			VideoID:       "dQw4w9WgXcQ",
			Title:         "Fallback Clip",
			LengthSeconds: "212",
			Author:        "someone",
			ViewCount:     "1000",
		},
	}
}

func TestExtractClientFallback(t *testing.T) {
	direct := innertube.Format{
		Itag:     18,
		URL:      "https://media.example.com/videoplayback?itag=18",
		MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`,
		Width:    640,
		Height:   360,
		Bitrate:  500_000,
	}
	ps := newPlayerServer(t, func(clientName string) innertube.PlayerResponse {
		if clientName == "IOS" {
			return okPlayerResponse(direct)
		}
		return okPlayerResponse()
	})

	info, err := testExtractor(ps.URL).Extract(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if info.Client != "ios" {
		t.Errorf("Client = %q, want ios", info.Client)
	}
	if len(info.Formats) != 1 || info.Formats[0].Itag != 18 {
		t.Fatalf("Formats = %+v, want the single itag 18", info.Formats)
	}
	if info.Title != "Fallback Clip" {
		t.Errorf("Title = %q", info.Title)
	}

	// first profile with formats wins: android_vr came back empty, ios
	// delivered, later profiles are never consulted
	want := []string{"ANDROID_VR", "IOS"}
	if len(ps.clients) != len(want) {
		t.Fatalf("player calls = %v, want %v", ps.clients, want)
	}
	for i := range want {
		if ps.clients[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, ps.clients[i], want[i])
		}
	}
}

func TestExtractCipheredFormatOnNonScriptedClient(t *testing.T) {
	mediaURL := "https://media.example.com/videoplayback?id=1&n=abc"
	ciphered := innertube.Format{
		Itag:            251,
		MimeType:        `audio/webm; codecs="opus"`,
		Bitrate:         130_000,
		SignatureCipher: "s=abcdefgh&sp=sig&url=" + url.QueryEscape(mediaURL),
	}
	ps := newPlayerServer(t, func(string) innertube.PlayerResponse {
		return okPlayerResponse(ciphered)
	})

	info, err := testExtractor(ps.URL, "android_vr").Extract(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(info.Formats) != 1 {
		t.Fatalf("Formats = %+v, want one resolved descriptor", info.Formats)
	}

	u, err := url.Parse(info.Formats[0].URL)
	if err != nil {
		t.Fatalf("parse resolved URL: %v", err)
	}
	q := u.Query()
	if got := q.Get("sig"); got != "efdcba" {
		t.Errorf("sig = %q, want efdcba", got)
	}
	// the script fetched on demand for the cipher must also feed the n
	// transform of the resolved URL
	if got := q.Get("n"); got != "cba" {
		t.Errorf("n = %q, want cba", got)
	}
	if got := q.Get("id"); got != "1" {
		t.Errorf("id = %q, other params must survive", got)
	}
}

func TestExtractAllClientsFail(t *testing.T) {
	ps := newPlayerServer(t, func(string) innertube.PlayerResponse {
		return innertube.PlayerResponse{PlayabilityStatus: innertube.PlayabilityStatus{
			Status: "LOGIN_REQUIRED",
			Reason: "Sign in to confirm your age",
		}}
	})

	_, err := testExtractor(ps.URL, "android_vr", "ios").Extract(context.Background(), "dQw4w9WgXcQ")
	if err == nil {
		t.Fatal("expected error")
	}
	var exErr *ExtractionError
	if !errors.As(err, &exErr) {
		t.Fatalf("err = %T, want *ExtractionError", err)
	}
	var unplayable *innertube.UnplayableError
	if !errors.As(err, &unplayable) || unplayable.Status != "LOGIN_REQUIRED" {
		t.Errorf("err = %v, want the last platform failure preserved", err)
	}
	if len(ps.clients) != 2 {
		t.Errorf("player calls = %v, want one per profile", ps.clients)
	}
}

func TestExtractRejectsUnparseableInput(t *testing.T) {
	e := testExtractor("http://127.0.0.1:0")
	if _, err := e.Extract(context.Background(), "not a video"); err == nil {
		t.Fatal("expected error")
	}
}
