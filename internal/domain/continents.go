package domain

type Continent struct {
	ID   string
	Name string
	Flag string
}

var continents = map[string]Continent{
	"AS": {ID: "AS", Name: "Asia", Flag: "🌏"},
	"EU": {ID: "EU", Name: "Europe", Flag: "🌍"},
	"AF": {ID: "AF", Name: "Africa", Flag: "🌍"},
	"NA": {ID: "NA", Name: "North America", Flag: "🌎"},
	"SA": {ID: "SA", Name: "South America", Flag: "🌎"},
	"OC": {ID: "OC", Name: "Oceania", Flag: "🌏"},
}

// ContinentCodes is the fixed display order of region codes.
var ContinentCodes = []string{"AS", "EU", "AF", "NA", "SA", "OC"}

func LookupContinent(id string) (Continent, bool) {
	c, ok := continents[id]
	return c, ok
}
