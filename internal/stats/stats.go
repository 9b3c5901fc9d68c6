package stats

import (
	"rental-location/internal/models"
	"sort"
)

// CompanyStats contains per-company totals for one work date
type CompanyStats struct {
	Count       int `json:"count"`
	RentalUnits int `json:"rental"`
}

// ZoneStats contains per-zone totals and the companies that worked in the zone.
// Companies is sorted ascending.
type ZoneStats struct {
	Count       int      `json:"count"`
	RentalUnits int      `json:"rental"`
	Companies   []string `json:"companies"`
}

// DailyStats is the aggregate of all rental logs for one work date
type DailyStats struct {
	TotalCount           int                     `json:"totalCount"`
	TotalRentalUnits     int                     `json:"totalRental"`
	DistinctCompanyCount int                     `json:"companyCount"`
	DistinctZoneCount    int                     `json:"zoneCount"`
	ByCompany            map[string]CompanyStats `json:"byCompany"`
	ByZone               map[string]ZoneStats    `json:"byZone"`
}

// Empty returns zero-valued stats with non-nil maps.
func Empty() DailyStats {
	return DailyStats{
		ByCompany: map[string]CompanyStats{},
		ByZone:    map[string]ZoneStats{},
	}
}

// ComputeStats aggregates logs by company and by zone in a single pass. The caller is
// responsible for passing logs of a single work date. Negative rental counts count as 0.
func ComputeStats(logs []models.RentalLog) DailyStats {
	out := Empty()
	zoneCompanies := make(map[string]map[string]struct{})

	for _, log := range logs {
		units := rentalUnits(log.RentalCount)

		out.TotalCount++
		out.TotalRentalUnits += units

		c := out.ByCompany[log.Company]
		c.Count++
		c.RentalUnits += units
		out.ByCompany[log.Company] = c

		z := out.ByZone[log.Zone]
		z.Count++
		z.RentalUnits += units
		out.ByZone[log.Zone] = z

		set, ok := zoneCompanies[log.Zone]
		if !ok {
			set = make(map[string]struct{})
			zoneCompanies[log.Zone] = set
		}
		set[log.Company] = struct{}{}
	}

	for zone, set := range zoneCompanies {
		companies := make([]string, 0, len(set))
		for c := range set {
			companies = append(companies, c)
		}
		sort.Strings(companies)

		z := out.ByZone[zone]
		z.Companies = companies
		out.ByZone[zone] = z
	}

	out.DistinctCompanyCount = len(out.ByCompany)
	out.DistinctZoneCount = len(out.ByZone)
	return out
}

func rentalUnits(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// HasCompany reports whether company worked in the zone.
func (z ZoneStats) HasCompany(company string) bool {
	for _, c := range z.Companies {
		if c == company {
			return true
		}
	}
	return false
}

// FilterByCompany keeps only the zones the company worked in. Zone totals are not
// re-scoped to the company: the result still shows each zone's activity across all
// companies. An empty company returns stats.ByZone unchanged.
func FilterByCompany(stats DailyStats, company string) map[string]ZoneStats {
	if company == "" {
		return stats.ByZone
	}

	filtered := make(map[string]ZoneStats)
	for zone, z := range stats.ByZone {
		if z.HasCompany(company) {
			filtered[zone] = z
		}
	}
	return filtered
}
