package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// The spot snapshot covers the whole A-share market in one logical call.
// Primary probe: push2 clist (f12 code, f14 name, f5 volume, f6 turnover).
// Fallback probe: the legacy Sina node-data API, paged, which reports the
// same data under symbol/name/volume/amount keys with an exchange-prefixed
// symbol.

const (
	spotFields   = "f5,f6,f12,f14"
	spotPageSize = 6000 // whole market fits in one push2 page
	sinaPageSize = 80   // hard upstream cap per page
	sinaMaxPages = 80
)

// Spot fetches a full-market quote snapshot, trying the primary probe first
// and falling through to the legacy one. The returned table is untyped; the
// acquisition layer resolves logical fields against alias lists.
func (c *Client) Spot(ctx context.Context) (*Table, error) {
	var probeErrs []error

	table, err := c.spotPush2(ctx)
	if err == nil && len(table.Rows) > 0 {
		return table, nil
	}
	if err != nil {
		probeErrs = append(probeErrs, fmt.Errorf("push2 clist: %w", err))
	}

	table, err = c.spotSina(ctx)
	if err == nil && len(table.Rows) > 0 {
		return table, nil
	}
	if err != nil {
		probeErrs = append(probeErrs, fmt.Errorf("sina node data: %w", err))
	}

	if len(probeErrs) == 0 {
		return nil, providerErr("spot snapshot", fmt.Errorf("upstream returned no rows"))
	}
	return nil, providerErr("spot snapshot", joinErrors(probeErrs))
}

type push2ListResponse struct {
	Data struct {
		Total int                        `json:"total"`
		Diff  []map[string]json.RawMessage `json:"diff"`
	} `json:"data"`
}

func (c *Client) spotPush2(ctx context.Context) (*Table, error) {
	params := url.Values{}
	params.Set("pn", "1")
	params.Set("pz", strconv.Itoa(spotPageSize))
	params.Set("po", "1")
	params.Set("np", "1")
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("fid", "f6")
	// all Shanghai + Shenzhen A shares
	params.Set("fs", "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23")
	params.Set("fields", spotFields)

	body, err := c.httpClient.GetBody(ctx, c.spotURL+"?"+params.Encode(), defaultHeader())
	if err != nil {
		return nil, err
	}

	var resp push2ListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode clist response: %w", err)
	}

	table := &Table{}
	columns := make(map[string]struct{})
	for _, item := range resp.Data.Diff {
		row := make(map[string]string, len(item))
		for key, raw := range item {
			row[key] = rawToString(raw)
			columns[key] = struct{}{}
		}
		table.Rows = append(table.Rows, row)
	}
	table.Columns = sortedKeys(columns)

	c.logger.WithField("rows", len(table.Rows)).Debug("Fetched push2 spot snapshot")
	return table, nil
}

type sinaSpotItem struct {
	Symbol string      `json:"symbol"`
	Name   string      `json:"name"`
	Amount json.Number `json:"amount"`
	Volume json.Number `json:"volume"`
}

func (c *Client) spotSina(ctx context.Context) (*Table, error) {
	table := &Table{Columns: []string{"symbol", "name", "amount", "volume"}}

	for page := 1; page <= sinaMaxPages; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("num", strconv.Itoa(sinaPageSize))
		params.Set("sort", "amount")
		params.Set("asc", "0")
		params.Set("node", "hs_a")

		body, err := c.httpClient.GetBody(ctx, c.spotLegacyURL+"?"+params.Encode(), defaultHeader())
		if err != nil {
			return nil, err
		}

		var items []sinaSpotItem
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode sina page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			table.Rows = append(table.Rows, map[string]string{
				"symbol": item.Symbol,
				"name":   item.Name,
				"amount": item.Amount.String(),
				"volume": item.Volume.String(),
			})
		}
	}

	c.logger.WithField("rows", len(table.Rows)).Debug("Fetched sina spot snapshot")
	return table, nil
}

// rawToString flattens a JSON scalar to its string form. push2 reports
// suspended stocks as the literal "-".
func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	msg := errs[0].Error()
	for _, err := range errs[1:] {
		msg += " | " + err.Error()
	}
	return fmt.Errorf("%s", msg)
}
