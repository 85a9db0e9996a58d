package easee

type Charger struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name"`
	Color       int    `json:"color"`
	ProductCode int    `json:"productCode"`
}
