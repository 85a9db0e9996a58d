package easee

// Site holds the name, address and location of the site a charger belongs to.
type Site struct {
	Name    string  `json:"name"`
	Address Address `json:"address"`
}

type Address struct {
	Street         string   `json:"street"`
	BuildingNumber string   `json:"buildingNumber"`
	Zip            string   `json:"zip"`
	Area           string   `json:"area"`
	Country        *Country `json:"country"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
}

type Country struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Site) Street() string         { return s.Address.Street }
func (s *Site) BuildingNumber() string { return s.Address.BuildingNumber }
func (s *Site) Zip() string            { return s.Address.Zip }
func (s *Site) Area() string           { return s.Address.Area }
func (s *Site) Latitude() float64      { return s.Address.Latitude }
func (s *Site) Longitude() float64     { return s.Address.Longitude }

// CountryID returns an empty string if the address has no country.
func (s *Site) CountryID() string {
	if s.Address.Country == nil {
		return ""
	}
	return s.Address.Country.ID
}
