package domain

// Categories is the closed catalog of complaint categories. Department
// routing resolves against this set; anything else is rejected at the
// boundary.
var Categories = []string{
	"Potholes",
	"Road Damage",
	"Traffic Signal Issue",
	"Parking Issue",
	"Street Lights Not Working",
	"Encroachment",
	"Drainage Blocked",
	"Water Leakage",
	"No Water Supply",
	"Sewage Overflow",
	"Water Quality Issue",
	"Garbage Not Collected",
	"Illegal Dumping",
	"Public Toilet Issue",
	"Park Maintenance",
	"Tree Fallen",
	"Noise Pollution",
	"Air Pollution",
	"Stray Animals",
	"Building Violation",
	"Illegal Construction",
	"Other",
}

var categorySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Categories))
	for _, c := range Categories {
		set[c] = struct{}{}
	}
	return set
}()

// ValidCategory reports whether category is part of the catalog.
func ValidCategory(category string) bool {
	_, ok := categorySet[category]
	return ok
}
