package dto

type CreateRegionRequest struct {
	Name      string   `json:"name" validate:"required,max=128"`
	Latitude  *float64 `json:"latitude" validate:"required,gt=-85.05,lt=85.05"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type MoveRegionRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gt=-85.05,lt=85.05"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type TileLoadingResponse struct {
	Tile    string `json:"tile"`
	Outcome string `json:"outcome"`
}
