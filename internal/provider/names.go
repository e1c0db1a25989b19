package provider

import (
	"context"

	"github.com/wonny/factorlab-lite/internal/contracts"
)

// ResolveNames maps ticker codes to display names, best effort: codes that
// cannot be resolved are simply absent from the result and the caller shows
// the code itself. It never fails.
//
// Resolution order: same-day name cache, one live snapshot fetch, then all
// historical snapshots newest first until every code is resolved or the
// snapshots run out.
func (p *Provider) ResolveNames(ctx context.Context, codes []string) map[string]string {
	normalized := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, raw := range codes {
		code, err := contracts.NormalizeSymbol(raw)
		if err != nil {
			continue // invalid codes are silently discarded
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		normalized = append(normalized, code)
	}
	if len(normalized) == 0 {
		return map[string]string{}
	}

	today := p.now()
	names := p.cache.LoadNames(today)

	unresolved := missingFrom(normalized, names)
	if len(unresolved) > 0 {
		if live := p.fetchNamesLive(ctx); len(live) > 0 {
			if err := p.cache.WriteNames(today, live); err != nil {
				p.logger.WithError(err).Warn("Failed to persist name cache")
			}
			for _, code := range unresolved {
				if name, ok := live[code]; ok {
					names[code] = name
				}
			}
		} else {
			p.fillFromSnapshots(names, unresolved)
		}
	}

	resolved := make(map[string]string, len(normalized))
	for _, code := range normalized {
		if name, ok := names[code]; ok {
			resolved[code] = name
		}
	}
	return resolved
}

// fetchNamesLive builds a full code→name map from one spot snapshot.
// Returns nil on any failure; callers fall back to historical snapshots.
func (p *Provider) fetchNamesLive(ctx context.Context) map[string]string {
	table, err := p.source.Spot(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Live name snapshot fetch failed")
		return nil
	}
	cols, err := resolveSchema(table, spotSchema)
	if err != nil {
		p.logger.WithError(err).Warn("Name snapshot schema mismatch")
		return nil
	}

	live := make(map[string]string, len(table.Rows))
	for _, row := range table.Rows {
		code := contracts.ExtractCode(row[cols["code"]])
		name := contracts.CleanName(row[cols["name"]])
		if code == "" || name == "" {
			continue
		}
		live[code] = name
	}
	return live
}

// fillFromSnapshots walks historical name snapshots newest first
func (p *Provider) fillFromSnapshots(names map[string]string, unresolved []string) {
	for _, path := range p.cache.NameSnapshots() {
		snapshot := p.cache.LoadNamesAt(path)
		for _, code := range unresolved {
			if name, ok := snapshot[code]; ok {
				names[code] = name
			}
		}
		unresolved = missingFrom(unresolved, names)
		if len(unresolved) == 0 {
			return
		}
	}
}

func missingFrom(codes []string, names map[string]string) []string {
	var missing []string
	for _, code := range codes {
		if _, ok := names[code]; !ok {
			missing = append(missing, code)
		}
	}
	return missing
}
