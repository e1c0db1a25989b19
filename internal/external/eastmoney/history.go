package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Daily kline probe. fields2 selects the per-bar columns; the response rows
// come back as comma-joined strings in the requested order, so the table's
// columns are the requested field IDs truncated to the observed row width.

// klineFields, in upstream order: date, open, close, high, low, volume,
// turnover, amplitude, pct_change, change, turnover_rate
var klineFields = []string{"f51", "f52", "f53", "f54", "f55", "f56", "f57", "f58", "f59", "f60", "f61"}

type klineResponse struct {
	Data struct {
		Code   string   `json:"code"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// Daily fetches forward-adjusted daily bars for one 6-digit code over
// [start, end].
func (c *Client) Daily(ctx context.Context, code string, start, end time.Time) (*Table, error) {
	params := url.Values{}
	params.Set("secid", secID(code))
	params.Set("klt", "101") // daily
	params.Set("fqt", "1")   // forward adjusted
	params.Set("beg", start.Format("20060102"))
	params.Set("end", end.Format("20060102"))
	params.Set("fields1", "f1,f2,f3,f4,f5,f6")
	params.Set("fields2", strings.Join(klineFields, ","))

	body, err := c.httpClient.GetBody(ctx, c.klineURL+"?"+params.Encode(), defaultHeader())
	if err != nil {
		return nil, providerErr("daily history", err)
	}

	var resp klineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, providerErr("daily history", fmt.Errorf("decode kline response: %w", err))
	}
	if len(resp.Data.Klines) == 0 {
		return nil, providerErr("daily history", fmt.Errorf("no bars returned for %s", code))
	}

	table := &Table{}
	width := len(klineFields)
	for _, line := range resp.Data.Klines {
		values := strings.Split(line, ",")
		if len(values) < width {
			width = len(values)
		}
		row := make(map[string]string, len(values))
		for i, v := range values {
			if i >= len(klineFields) {
				break
			}
			row[klineFields[i]] = v
		}
		table.Rows = append(table.Rows, row)
	}
	table.Columns = klineFields[:width]

	c.logger.WithFields(map[string]interface{}{
		"code": code,
		"bars": len(table.Rows),
	}).Debug("Fetched daily history")
	return table, nil
}

// secID maps a bare 6-digit code to the push2 market-prefixed form:
// 1.xxxxxx for Shanghai, 0.xxxxxx for Shenzhen.
func secID(code string) string {
	if strings.HasPrefix(code, "6") {
		return "1." + code
	}
	return "0." + code
}
