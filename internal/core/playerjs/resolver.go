// Package playerjs locates and prepares the two transform functions hidden in
// the platform's player script: the signature transform applied to cipher
// bundles, and the n transform applied to the throttling parameter of every
// resolved media URL. The script is matched structurally, never executed;
// evaluation happens in jsinterp.
package playerjs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/guiyumin/ytdl/internal/core/jsinterp"
)

const (
	requestTimeout = 30 * time.Second
	desktopUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// ErrNotFound marks a transform function that could not be located in the
// script. For the signature path callers drop the descriptor; for the n path
// callers fall back to the identity transform.
var ErrNotFound = errors.New("playerjs: transform function not found")

// Script is one fetched player script, identified by a fingerprint of its
// content.
type Script struct {
	URL         string
	Fingerprint string
	Source      string
}

// Fragments holds the compiled transforms for one script identity. A nil
// program means the corresponding transform was not found.
type Fragments struct {
	Sig *jsinterp.Program
	N   *jsinterp.Program
}

// Resolver fetches player scripts and extracts their transform fragments.
// The fragment cache is shared across extraction attempts; entries are
// immutable once stored, so concurrent population is idempotent.
type Resolver struct {
	client *http.Client

	// watchBase overrides the watch-page origin, for tests
	watchBase string

	scripts   sync.Map // script URL -> *Script
	fragments sync.Map // fingerprint -> *Fragments
}

// NewResolver returns a Resolver with a default HTTP client.
func NewResolver() *Resolver {
	return &Resolver{
		client: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		},
	}
}

// NewResolverWithWatchBase returns a Resolver that fetches watch pages and
// scripts from base instead of the production host. Intended for tests.
func NewResolverWithWatchBase(base string) *Resolver {
	r := NewResolver()
	r.watchBase = base
	return r
}

var playerURLRe = regexp.MustCompile(`/s/player/[a-zA-Z0-9_-]{8,}/[^\s"]*?base\.js`)

// FetchScript downloads the player script referenced by the watch page of the
// given video. Scripts are cached by URL for the process lifetime.
func (r *Resolver) FetchScript(ctx context.Context, videoID string) (*Script, error) {
	base := r.watchBase
	if base == "" {
		base = "https://www.youtube.com"
	}

	html, err := r.get(ctx, fmt.Sprintf("%s/watch?v=%s&hl=en", base, videoID))
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}

	m := playerURLRe.FindString(html)
	if m == "" {
		return nil, fmt.Errorf("playerjs: no player script URL in watch page for %s", videoID)
	}
	scriptURL := base + m

	if cached, ok := r.scripts.Load(scriptURL); ok {
		return cached.(*Script), nil
	}

	source, err := r.get(ctx, scriptURL)
	if err != nil {
		return nil, fmt.Errorf("fetch player script: %w", err)
	}

	sum := sha256.Sum256([]byte(source))
	script := &Script{
		URL:         scriptURL,
		Fingerprint: hex.EncodeToString(sum[:8]),
		Source:      source,
	}
	actual, _ := r.scripts.LoadOrStore(scriptURL, script)
	return actual.(*Script), nil
}

func (r *Resolver) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", desktopUA)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

var stsRe = regexp.MustCompile(`(?:signatureTimestamp|sts)\s*:\s*(\d{5})`)

// SignatureTimestamp extracts the script's signature timestamp, or 0 when the
// script does not carry one.
func SignatureTimestamp(script *Script) int {
	m := stsRe.FindStringSubmatch(script.Source)
	if m == nil {
		return 0
	}
	sts, _ := strconv.Atoi(m[1])
	return sts
}

// Fragments extracts and compiles both transforms for the script, caching the
// result by content fingerprint. Concurrent callers may extract redundantly;
// the first stored entry wins and the duplicate work is discarded.
func (r *Resolver) Fragments(script *Script) *Fragments {
	if cached, ok := r.fragments.Load(script.Fingerprint); ok {
		return cached.(*Fragments)
	}

	frags := &Fragments{}
	if prog, err := extractSigTransform(script.Source); err == nil {
		frags.Sig = prog
	}
	if prog, err := extractNTransform(script.Source); err == nil {
		frags.N = prog
	}

	actual, _ := r.fragments.LoadOrStore(script.Fingerprint, frags)
	return actual.(*Fragments)
}

// sigNamePatterns is tried in order; the platform rotates its minification
// conventions, so several call shapes have been observed.
var sigNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[cs]\s*&&\s*[adf]\.set\([^,]+\s*,\s*encodeURIComponent\(([a-zA-Z0-9$]+)\(`),
	regexp.MustCompile(`\b[a-zA-Z0-9]+\s*&&\s*[a-zA-Z0-9]+\.set\([^,]+\s*,\s*encodeURIComponent\(([a-zA-Z0-9$]+)\(`),
	regexp.MustCompile(`\bm=([a-zA-Z0-9$]{2,})\(decodeURIComponent\(h\.s\)\)`),
	regexp.MustCompile(`\bc\s*&&\s*[a-z]\.set\([^,]+\s*,\s*([a-zA-Z0-9$]+)\(`),
}

func extractSigTransform(source string) (*jsinterp.Program, error) {
	var name string
	for _, re := range sigNamePatterns {
		if m := re.FindStringSubmatch(source); m != nil {
			name = m[1]
			break
		}
	}
	if name == "" {
		return nil, fmt.Errorf("%w: signature call shape", ErrNotFound)
	}

	params, body, err := findFunction(source, name)
	if err != nil {
		return nil, err
	}

	helper := findHelperObject(source, body)
	return jsinterp.Compile(params, body, helper)
}

var nCallPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.get\("n"\)\)&&\(b=([a-zA-Z0-9$]+)(?:\[(\d+)\])?\(b\)`),
	regexp.MustCompile(`\(b=([a-zA-Z0-9$]+)(?:\[(\d+)\])?\(b\)`),
}

func extractNTransform(source string) (*jsinterp.Program, error) {
	var name, arrayIdx string
	for _, re := range nCallPatterns {
		if m := re.FindStringSubmatch(source); m != nil {
			name, arrayIdx = m[1], m[2]
			break
		}
	}
	if name == "" {
		return nil, fmt.Errorf("%w: n-parameter call shape", ErrNotFound)
	}

	// The matched name may be an array literal indexed by a constant; the
	// real function name is the element at that index.
	if arrayIdx != "" {
		arrRe := regexp.MustCompile(`var\s+` + regexp.QuoteMeta(name) + `\s*=\s*\[([^\]]+)\]`)
		if m := arrRe.FindStringSubmatch(source); m != nil {
			items := strings.Split(m[1], ",")
			idx, _ := strconv.Atoi(arrayIdx)
			if idx >= 0 && idx < len(items) {
				name = strings.TrimSpace(items[idx])
			}
		}
	}

	params, body, err := findFunction(source, name)
	if err != nil {
		return nil, err
	}

	helper := findHelperObject(source, body)
	return jsinterp.Compile(params, body, helper)
}

// findFunction locates name's definition as an assigned anonymous function or
// a named function declaration and returns its parameter list and body text.
func findFunction(source, name string) (params, body string, err error) {
	quoted := regexp.QuoteMeta(name)
	defPatterns := []*regexp.Regexp{
		regexp.MustCompile(`(?:var\s+)?` + quoted + `\s*=\s*function\s*\(([^)]*)\)\s*\{((?:[^{}]|\{(?:[^{}]|\{[^{}]*\})*\})*)\}`),
		regexp.MustCompile(`function\s+` + quoted + `\s*\(([^)]*)\)\s*\{((?:[^{}]|\{(?:[^{}]|\{[^{}]*\})*\})*)\}`),
	}
	for _, re := range defPatterns {
		if m := re.FindStringSubmatch(source); m != nil {
			return m[1], m[2], nil
		}
	}
	return "", "", fmt.Errorf("%w: definition of %s", ErrNotFound, name)
}

var helperRefRe = regexp.MustCompile(`(?:^|;)([a-zA-Z0-9$]{2,})\.`)

// findHelperObject captures the literal definition of the helper object the
// body calls into, so both can be compiled together. Returns "" when the body
// is self-contained.
func findHelperObject(source, body string) string {
	m := helperRefRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	objRe := regexp.MustCompile(`(?s)var\s+` + regexp.QuoteMeta(m[1]) + `\s*=\s*\{(.*?)\};`)
	om := objRe.FindStringSubmatch(source)
	if om == nil {
		return ""
	}
	return om[1]
}

// DecodeSignatureCipher resolves a signatureCipher bundle into a playable URL
// using the script's signature transform. The bundle is a query string with
// the base URL, the scrambled signature s and the destination parameter sp.
func DecodeSignatureCipher(frags *Fragments, cipher string) (string, error) {
	values, err := url.ParseQuery(cipher)
	if err != nil {
		return "", fmt.Errorf("playerjs: parse cipher: %w", err)
	}
	baseURL := values.Get("url")
	s := values.Get("s")
	if baseURL == "" || s == "" {
		return "", errors.New("playerjs: cipher missing url or s")
	}
	sp := values.Get("sp")
	if sp == "" {
		sp = "signature"
	}

	if frags == nil || frags.Sig == nil {
		return "", fmt.Errorf("%w: signature transform", ErrNotFound)
	}
	decoded, err := frags.Sig.Run(s)
	if err != nil {
		return "", err
	}

	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + sp + "=" + url.QueryEscape(decoded), nil
}

// TransformN rewrites the n query parameter of a resolved media URL. Any
// failure, including an absent transform or parameter, returns the URL
// unchanged; an untransformed n still plays, just throttled.
func TransformN(frags *Fragments, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	n := q.Get("n")
	if n == "" || frags == nil || frags.N == nil {
		return rawURL
	}

	transformed, err := frags.N.Run(n)
	if err != nil || transformed == "" || transformed == n {
		return rawURL
	}
	q.Set("n", transformed)
	u.RawQuery = q.Encode()
	return u.String()
}
