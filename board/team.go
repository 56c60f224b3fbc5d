package board

import (
	"context"

	"github.com/adamwoolhether/tablero/airtable"
)

const teamKey = "team"

// teamNames maps team member record IDs to display names. The map is cached
// for the team TTL and concurrent misses share one fetch. A failed fetch is
// logged and yields an empty map, so tasks still render with raw IDs.
func (s *Service) teamNames(ctx context.Context) map[string]string {
	if names, ok := s.team.Get(teamKey); ok {
		return names
	}

	v, _, _ := s.teamFetch.Do(teamKey, func() (any, error) {
		recs, err := s.store.ListAll(ctx, s.tables.Team, airtable.ListOptions{
			Fields: []string{fieldMemberName},
		})
		if err != nil {
			s.logger.Warn("loading team names", "table", s.tables.Team, "error", err)
			return map[string]string{}, nil
		}

		names := make(map[string]string, len(recs))
		for _, rec := range recs {
			if n := rec.Fields.String(fieldMemberName); n != "" {
				names[rec.ID] = n
			}
		}
		s.team.Add(teamKey, names)

		return names, nil
	})

	return v.(map[string]string)
}

// cachedNames returns the team map only if it is already cached.
func (s *Service) cachedNames() map[string]string {
	names, _ := s.team.Peek(teamKey)
	return names
}
