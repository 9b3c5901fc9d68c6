package stats

import (
	"encoding/json"
	"fmt"
	"rental-location/internal/zones"
	"strings"
)

type MarkerState string

const (
	StateHasWork MarkerState = "has-work"
	StateNoWork  MarkerState = "no-work"
)

// Marker is the map badge for one zone
type Marker struct {
	ZoneID      string         `json:"zone"`
	Position    zones.Position `json:"position"`
	Count       int            `json:"count"`
	RentalUnits int            `json:"rental"`
	State       MarkerState    `json:"state"`
	Companies   []string       `json:"companies"`
}

// LegendRow is one line of the map legend
type LegendRow struct {
	ZoneID    string   `json:"zone"`
	Building  string   `json:"building"`
	Count     int      `json:"count"`
	Companies []string `json:"companies"`
}

// MapView bundles everything the site-map screen renders for a date and company filter.
type MapView struct {
	WorkDate string      `json:"workDate"`
	Company  string      `json:"company,omitempty"`
	Markers  []Marker    `json:"markers"`
	Legend   []LegendRow `json:"legend"`
}

type zoneActivity struct {
	count     int
	rental    int
	companies []string
}

func lookupZone(filtered map[string]ZoneStats, zone string) zoneActivity {
	z, ok := filtered[zone]
	if !ok {
		return zoneActivity{companies: []string{}}
	}
	companies := z.Companies
	if companies == nil {
		companies = []string{}
	}
	return zoneActivity{count: z.Count, rental: z.RentalUnits, companies: companies}
}

// ProjectMarkers returns one marker per topology zone in topology key order. Zones missing
// from filtered render as empty no-work markers.
func ProjectMarkers(topo *zones.Topology, filtered map[string]ZoneStats) []Marker {
	markers := make([]Marker, 0, topo.Len())
	for _, entry := range topo.Entries() {
		a := lookupZone(filtered, entry.ID)
		state := StateNoWork
		if a.count > 0 {
			state = StateHasWork
		}
		markers = append(markers, Marker{
			ZoneID:      entry.ID,
			Position:    entry.Position,
			Count:       a.count,
			RentalUnits: a.rental,
			State:       state,
			Companies:   a.companies,
		})
	}
	return markers
}

// LegendRows returns one row per topology zone in topology key order.
func LegendRows(topo *zones.Topology, filtered map[string]ZoneStats) []LegendRow {
	rows := make([]LegendRow, 0, topo.Len())
	for _, entry := range topo.Entries() {
		a := lookupZone(filtered, entry.ID)
		rows = append(rows, LegendRow{
			ZoneID:    entry.ID,
			Building:  entry.Building,
			Count:     a.count,
			Companies: a.companies,
		})
	}
	return rows
}

// BuildMapView applies the company filter and projects markers and legend rows.
func BuildMapView(topo *zones.Topology, workDate string, daily DailyStats, company string) MapView {
	filtered := FilterByCompany(daily, company)
	return MapView{
		WorkDate: workDate,
		Company:  company,
		Markers:  ProjectMarkers(topo, filtered),
		Legend:   LegendRows(topo, filtered),
	}
}

// MarshalJSON adds the rendered badge, hover title and click summary.
func (m Marker) MarshalJSON() ([]byte, error) {
	type marker Marker
	return json.Marshal(struct {
		marker
		Badge   string `json:"badge"`
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}{marker(m), m.Badge(), m.Title(), m.Summary()})
}

// Badge is the text drawn inside the marker; empty zones show nothing.
func (m Marker) Badge() string {
	if m.Count > 0 {
		return fmt.Sprintf("%d", m.Count)
	}
	return ""
}

// Title is the hover text, e.g. "ZONE 3: 2건".
func (m Marker) Title() string {
	return fmt.Sprintf("ZONE %s: %d건", m.ZoneID, m.Count)
}

// Summary is the click notification, e.g. "ZONE 3: 2건, 1,500개 (다원건설, 대양건설)".
func (m Marker) Summary() string {
	companies := "작업 없음"
	if len(m.Companies) > 0 {
		companies = strings.Join(m.Companies, ", ")
	}
	return fmt.Sprintf("ZONE %s: %d건, %s개 (%s)", m.ZoneID, m.Count, FormatNumber(m.RentalUnits), companies)
}

// FormatNumber groups digits by thousands the way ko-KR number formatting does.
func FormatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
