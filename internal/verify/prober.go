package verify

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"

	"refcheck/internal/models"
	"refcheck/internal/util"
)

// Some origins block HEAD or unknown agents outright, so probes carry a
// browser user agent and fall back to GET.
const probeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

var authGatedCodes = map[int]bool{
	http.StatusUnauthorized:     true,
	http.StatusForbidden:        true,
	http.StatusMethodNotAllowed: true,
	http.StatusTooManyRequests:  true,
}

// Prober performs a single liveness check per URL: HEAD first, GET when the
// HEAD is rejected or errors. It never retries; retry policy belongs to the
// caller.
type Prober struct {
	client        *http.Client
	timeout       time.Duration
	authAsWorking bool
	now           func() time.Time
}

type ProberOption func(*Prober)

// WithCheckTimeout bounds one probe, covering both the HEAD and the GET
// fallback together.
func WithCheckTimeout(d time.Duration) ProberOption {
	return func(p *Prober) { p.timeout = d }
}

// WithAuthAsWorking counts 401/403/405/429 as Working: the server answered,
// it just will not serve an anonymous probe.
func WithAuthAsWorking(enabled bool) ProberOption {
	return func(p *Prober) { p.authAsWorking = enabled }
}

func WithHTTPClient(c *http.Client) ProberOption {
	return func(p *Prober) { p.client = c }
}

func WithClock(now func() time.Time) ProberOption {
	return func(p *Prober) { p.now = now }
}

func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		timeout: 10 * time.Second,
		now:     time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	if p.client == nil {
		p.client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}
	return p
}

// Probe checks one URL and always returns a result; failures are encoded in
// the Status field, never as an error.
func (p *Prober) Probe(ctx context.Context, rawURL string) models.VerificationResult {
	res := models.VerificationResult{URL: rawURL, CheckedAt: p.now()}

	norm, err := util.NormalizeURL(rawURL)
	if err != nil {
		res.Status = models.StatusBroken
		return res
	}
	res.URL = norm

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	code, err := p.request(ctx, http.MethodHead, norm)
	if err != nil || code >= 400 {
		gcode, gerr := p.request(ctx, http.MethodGet, norm)
		if gerr == nil {
			code, err = gcode, nil
		} else if err == nil {
			// HEAD answered with a status; keep it over the GET transport error.
		} else {
			err = gerr
		}
	}

	if err != nil {
		res.Status = classifyTransportError(err)
		return res
	}
	res.HTTPCode = &code
	res.Status = p.classifyCode(code)
	return res
}

func (p *Prober) request(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", probeUserAgent)
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func (p *Prober) classifyCode(code int) models.URLStatus {
	switch {
	case code >= 200 && code < 400:
		return models.StatusWorking
	case p.authAsWorking && authGatedCodes[code]:
		return models.StatusWorking
	default:
		return models.StatusNotWorking
	}
}

// classifyTransportError separates the failure kinds a report consumer cares
// about: the host was slow (Timeout), the host said no (NotWorking), or the
// URL leads nowhere (Broken).
func classifyTransportError(err error) models.URLStatus {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.StatusTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.StatusTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return models.StatusNotWorking
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return models.StatusNotWorking
	}
	// TLS failures and anything else the transport throws.
	return models.StatusBroken
}
