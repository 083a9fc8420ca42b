package scorer

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultServiceAdjacency maps a service line to related service lines. It
// backstops the keyword matcher: a buyer with no direct overlap may still be
// an adjacent-market fit. Trackers may override this map per industry.
func DefaultServiceAdjacency() map[string][]string {
	return map[string][]string{
		"hvac":                 {"plumbing", "electrical", "mechanical contracting", "refrigeration", "home services"},
		"plumbing":             {"hvac", "electrical", "septic", "drain cleaning", "home services"},
		"electrical":           {"hvac", "plumbing", "solar", "generator", "home services"},
		"roofing":              {"siding", "gutters", "exteriors", "restoration", "home services"},
		"landscaping":          {"lawn care", "irrigation", "tree service", "snow removal", "hardscaping"},
		"pest control":         {"lawn care", "wildlife removal", "home services"},
		"restoration":          {"roofing", "remediation", "water damage", "fire damage", "construction"},
		"janitorial":           {"commercial cleaning", "facility services", "building maintenance"},
		"security services":    {"alarm monitoring", "access control", "fire protection"},
		"fire protection":      {"security services", "sprinkler", "alarm monitoring", "life safety"},
		"it services":          {"managed services", "cybersecurity", "cloud services", "telecom"},
		"managed services":     {"it services", "cybersecurity", "help desk", "cloud services"},
		"accounting":           {"bookkeeping", "tax preparation", "payroll", "advisory"},
		"insurance brokerage":  {"benefits brokerage", "risk management", "wealth management"},
		"home care":            {"hospice", "behavioral health", "skilled nursing", "private duty"},
		"physical therapy":     {"occupational therapy", "sports medicine", "chiropractic", "rehabilitation"},
		"dental":               {"orthodontics", "oral surgery", "dso"},
		"veterinary":           {"animal hospital", "pet services", "pet boarding"},
		"auto repair":          {"collision repair", "tire services", "fleet maintenance", "car wash"},
		"car wash":             {"auto detailing", "auto repair", "quick lube"},
		"logistics":            {"freight brokerage", "warehousing", "last mile delivery", "trucking"},
		"waste management":     {"recycling", "portable toilets", "dumpster rental", "liquid waste"},
		"equipment rental":     {"construction", "tool rental", "event rental"},
		"propane distribution": {"fuel distribution", "hvac", "energy services"},
		"staffing":             {"recruiting", "executive search", "hr services", "payroll"},
		"childcare":            {"early education", "enrichment programs", "tutoring"},
		"funeral services":     {"cemetery", "cremation", "pre-need planning"},
		"pool services":        {"pool construction", "outdoor living", "home services"},
		"paving":               {"asphalt", "concrete", "sealcoating", "striping"},
		"crane services":       {"rigging", "heavy haul", "equipment rental"},
	}
}

// LoadAdjacencyFile reads a service adjacency map from a YAML file of the
// form `service: [related, services]`.
func LoadAdjacencyFile(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: read adjacency file %s", path)
	}

	out := make(map[string][]string)
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrapf(err, "scorer: parse adjacency file %s", path)
	}
	return out, nil
}
