package geo

// stateAdjacency lists land-border neighbors per state.
var stateAdjacency = map[string][]string{
	"AL": {"FL", "GA", "MS", "TN"},
	"AK": {},
	"AZ": {"CA", "CO", "NM", "NV", "UT"},
	"AR": {"LA", "MO", "MS", "OK", "TN", "TX"},
	"CA": {"AZ", "NV", "OR"},
	"CO": {"AZ", "KS", "NE", "NM", "OK", "UT", "WY"},
	"CT": {"MA", "NY", "RI"},
	"DE": {"MD", "NJ", "PA"},
	"FL": {"AL", "GA"},
	"GA": {"AL", "FL", "NC", "SC", "TN"},
	"HI": {},
	"ID": {"MT", "NV", "OR", "UT", "WA", "WY"},
	"IL": {"IA", "IN", "KY", "MO", "WI"},
	"IN": {"IL", "KY", "MI", "OH"},
	"IA": {"IL", "MN", "MO", "NE", "SD", "WI"},
	"KS": {"CO", "MO", "NE", "OK"},
	"KY": {"IL", "IN", "MO", "OH", "TN", "VA", "WV"},
	"LA": {"AR", "MS", "TX"},
	"ME": {"NH"},
	"MD": {"DE", "PA", "VA", "WV"},
	"MA": {"CT", "NH", "NY", "RI", "VT"},
	"MI": {"IN", "OH", "WI"},
	"MN": {"IA", "ND", "SD", "WI"},
	"MS": {"AL", "AR", "LA", "TN"},
	"MO": {"AR", "IA", "IL", "KS", "KY", "NE", "OK", "TN"},
	"MT": {"ID", "ND", "SD", "WY"},
	"NE": {"CO", "IA", "KS", "MO", "SD", "WY"},
	"NV": {"AZ", "CA", "ID", "OR", "UT"},
	"NH": {"MA", "ME", "VT"},
	"NJ": {"DE", "NY", "PA"},
	"NM": {"AZ", "CO", "OK", "TX", "UT"},
	"NY": {"CT", "MA", "NJ", "PA", "VT"},
	"NC": {"GA", "SC", "TN", "VA"},
	"ND": {"MN", "MT", "SD"},
	"OH": {"IN", "KY", "MI", "PA", "WV"},
	"OK": {"AR", "CO", "KS", "MO", "NM", "TX"},
	"OR": {"CA", "ID", "NV", "WA"},
	"PA": {"DE", "MD", "NJ", "NY", "OH", "WV"},
	"RI": {"CT", "MA"},
	"SC": {"GA", "NC"},
	"SD": {"IA", "MN", "MT", "ND", "NE", "WY"},
	"TN": {"AL", "AR", "GA", "KY", "MO", "MS", "NC", "VA"},
	"TX": {"AR", "LA", "NM", "OK"},
	"UT": {"AZ", "CO", "ID", "NM", "NV", "WY"},
	"VT": {"MA", "NH", "NY"},
	"VA": {"KY", "MD", "NC", "TN", "WV"},
	"WA": {"ID", "OR"},
	"WV": {"KY", "MD", "OH", "PA", "VA"},
	"WI": {"IA", "IL", "MI", "MN"},
	"WY": {"CO", "ID", "MT", "NE", "SD", "UT"},
}

// stateRegion assigns each state to a census-style region used for the
// "regional" proximity tier.
var stateRegion = map[string]string{
	"CT": "northeast", "ME": "northeast", "MA": "northeast", "NH": "northeast",
	"NJ": "northeast", "NY": "northeast", "PA": "northeast", "RI": "northeast",
	"VT": "northeast",

	"IL": "midwest", "IN": "midwest", "IA": "midwest", "KS": "midwest",
	"MI": "midwest", "MN": "midwest", "MO": "midwest", "NE": "midwest",
	"ND": "midwest", "OH": "midwest", "SD": "midwest", "WI": "midwest",

	"AL": "south", "AR": "south", "DE": "south", "FL": "south",
	"GA": "south", "KY": "south", "LA": "south", "MD": "south",
	"MS": "south", "NC": "south", "OK": "south", "SC": "south",
	"TN": "south", "TX": "south", "VA": "south", "WV": "south",

	"AK": "west", "AZ": "west", "CA": "west", "CO": "west",
	"HI": "west", "ID": "west", "MT": "west", "NV": "west",
	"NM": "west", "OR": "west", "UT": "west", "WA": "west",
	"WY": "west",
}

// stateNames maps full state names to postal codes.
var stateNames = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT",
	"delaware": "DE", "florida": "FL", "georgia": "GA", "hawaii": "HI",
	"idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME",
	"maryland": "MD", "massachusetts": "MA", "michigan": "MI",
	"minnesota": "MN", "mississippi": "MS", "missouri": "MO",
	"montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM",
	"new york": "NY", "north carolina": "NC", "north dakota": "ND",
	"ohio": "OH", "oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA",
	"rhode island": "RI", "south carolina": "SC", "south dakota": "SD",
	"tennessee": "TN", "texas": "TX", "utah": "UT", "vermont": "VT",
	"virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
}

// namedRegions maps colloquial region names (as they appear in buyer theses)
// to state sets. Used for exclusive-region constraint detection.
var namedRegions = map[string][]string{
	"northeast":         {"CT", "ME", "MA", "NH", "NJ", "NY", "PA", "RI", "VT"},
	"new england":       {"CT", "ME", "MA", "NH", "RI", "VT"},
	"mid-atlantic":      {"DE", "MD", "NJ", "NY", "PA", "VA", "WV"},
	"midwest":           {"IL", "IN", "IA", "KS", "MI", "MN", "MO", "NE", "ND", "OH", "SD", "WI"},
	"south":             {"AL", "AR", "DE", "FL", "GA", "KY", "LA", "MD", "MS", "NC", "OK", "SC", "TN", "TX", "VA", "WV"},
	"southeast":         {"AL", "FL", "GA", "KY", "MS", "NC", "SC", "TN", "VA", "WV"},
	"southwest":         {"AZ", "NM", "OK", "TX"},
	"west":              {"AK", "AZ", "CA", "CO", "HI", "ID", "MT", "NV", "NM", "OR", "UT", "WA", "WY"},
	"west coast":        {"CA", "OR", "WA"},
	"pacific northwest": {"ID", "OR", "WA"},
	"mountain west":     {"CO", "ID", "MT", "NV", "UT", "WY"},
	"gulf coast":        {"AL", "FL", "LA", "MS", "TX"},
	"great lakes":       {"IL", "IN", "MI", "MN", "NY", "OH", "PA", "WI"},
	"sun belt":          {"AL", "AZ", "CA", "FL", "GA", "LA", "MS", "NM", "NV", "NC", "SC", "TN", "TX"},
}
