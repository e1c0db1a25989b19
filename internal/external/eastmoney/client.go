// Package eastmoney is the market data client for the Eastmoney push2 quote
// service, with a legacy Sina fallback for the full-market snapshot. The
// upstream must be assumed flaky: every call retries with backoff through
// pkg/httputil and no single probe is relied on alone.
package eastmoney

import (
	"net/http"

	"github.com/wonny/factorlab-lite/internal/contracts"
	"github.com/wonny/factorlab-lite/pkg/httputil"
	"github.com/wonny/factorlab-lite/pkg/logger"
)

// Client handles communication with the quote endpoints
// ⭐ SSOT: upstream quote calls happen only in this package
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger

	spotURL       string
	spotLegacyURL string
	klineURL      string
}

// NewClient creates a new market data client
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient:    httpClient,
		logger:        log,
		spotURL:       "https://82.push2.eastmoney.com/api/qt/clist/get",
		spotLegacyURL: "https://vip.stock.finance.sina.com.cn/quotes_service/api/json_v2.php/Market_Center.getHQNodeData",
		klineURL:      "https://push2his.eastmoney.com/api/qt/stock/kline/get",
	}
}

// browser-ish headers; both upstreams reject obvious bots
func defaultHeader() http.Header {
	h := http.Header{}
	h.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	h.Set("Referer", "https://quote.eastmoney.com/")
	return h
}

// providerErr wraps the final underlying error once all probes and retries
// are exhausted.
func providerErr(op string, err error) error {
	return &contracts.ProviderError{Op: op, Err: err}
}
