package provider

import (
	"github.com/wonny/factorlab-lite/internal/contracts"
	"github.com/wonny/factorlab-lite/internal/external/eastmoney"
)

// Logical fields are resolved against ordered alias lists, once per batch.
// Each upstream probe reports its own column names (push2 field IDs, legacy
// snapshot keys, canonical cache names); the first alias present in the
// table wins.

type fieldSpec struct {
	field    string
	aliases  []string
	required bool
}

var spotSchema = []fieldSpec{
	{field: "code", aliases: []string{"f12", "code", "symbol", "代码"}, required: true},
	{field: "name", aliases: []string{"f14", "name", "名称"}, required: true},
	{field: "turnover", aliases: []string{"f6", "amount", "turnover", "成交额"}},
	{field: "volume", aliases: []string{"f5", "volume", "成交量"}},
}

var historySchema = []fieldSpec{
	{field: "date", aliases: []string{"f51", "date", "日期"}, required: true},
	{field: "open", aliases: []string{"f52", "open", "开盘"}, required: true},
	{field: "close", aliases: []string{"f53", "close", "收盘"}, required: true},
	{field: "high", aliases: []string{"f54", "high", "最高"}, required: true},
	{field: "low", aliases: []string{"f55", "low", "最低"}, required: true},
	{field: "volume", aliases: []string{"f56", "volume", "成交量"}, required: true},
	{field: "turnover", aliases: []string{"f57", "amount", "turnover", "成交额"}},
	{field: "pct_change", aliases: []string{"f59", "pct_change", "涨跌幅"}},
}

// resolveSchema maps logical field names to concrete table columns. It fails
// fast with a SchemaError naming every required field that has no matching
// alias in the table.
func resolveSchema(table *eastmoney.Table, schema []fieldSpec) (map[string]string, error) {
	resolved := make(map[string]string, len(schema))
	var missing []string

	for _, spec := range schema {
		found := false
		for _, alias := range spec.aliases {
			if table.HasColumn(alias) {
				resolved[spec.field] = alias
				found = true
				break
			}
		}
		if !found && spec.required {
			missing = append(missing, spec.field)
		}
	}

	if len(missing) > 0 {
		return nil, &contracts.SchemaError{Missing: missing}
	}
	return resolved, nil
}
