package zones

import "fmt"

// Companies is the fixed list of partner companies that can submit rental logs.
var Companies = []string{
	"다원건설",
	"대양건설",
	"동승전기",
	"유앤테크",
	"이케이네이션",
	"다인공영",
}

var companyColors = map[string]string{
	"다원건설":   "#2563eb",
	"대양건설":   "#10b981",
	"동승전기":   "#f59e0b",
	"유앤테크":   "#ef4444",
	"이케이네이션": "#8b5cf6",
	"다인공영":   "#ec4899",
}

// FallbackCompanyColor is used for companies outside the fixed list.
const FallbackCompanyColor = "#666"

func IsKnownCompany(name string) bool {
	for _, c := range Companies {
		if c == name {
			return true
		}
	}
	return false
}

func CompanyColor(name string) string {
	if c, ok := companyColors[name]; ok {
		return c
	}
	return FallbackCompanyColor
}

// CompanyColors returns a copy of the color table.
func CompanyColors() map[string]string {
	out := make(map[string]string, len(companyColors))
	for k, v := range companyColors {
		out[k] = v
	}
	return out
}

// FloorOptions lists floor labels from the lowest basement up: B3F, B2F, B1F, 1F ... 25F.
func FloorOptions() []string {
	floors := make([]string, 0, 28)
	for i := 3; i >= 1; i-- {
		floors = append(floors, fmt.Sprintf("B%dF", i))
	}
	for i := 1; i <= 25; i++ {
		floors = append(floors, fmt.Sprintf("%dF", i))
	}
	return floors
}

func IsValidFloor(floor string) bool {
	for _, f := range FloorOptions() {
		if f == floor {
			return true
		}
	}
	return false
}
