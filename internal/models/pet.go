package models

import (
	"time"

	"github.com/google/uuid"
)

// GeoPoint - координаты питомца в порядке [lng, lat].
type GeoPoint struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Pet описывает объявление о потерянном или найденном питомце.
type Pet struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`
	OwnerName   string    `db:"owner_name" json:"owner_name,omitempty"`
	Name        string    `db:"name" json:"name"`
	Kind        string    `db:"kind" json:"kind"`
	Breed       string    `db:"breed" json:"breed"`
	Age         string    `db:"age" json:"age"`
	Description string    `db:"description" json:"description"`
	City        string    `db:"city" json:"city"`
	Phone       string    `db:"phone" json:"phone"`
	PhotoURL    string    `db:"photo_url" json:"photo_url"`
	PhotoKey    string    `db:"photo_key" json:"-"`
	Status      string    `db:"status" json:"status"`
	Longitude   *float64  `db:"longitude" json:"-"`
	Latitude    *float64  `db:"latitude" json:"-"`
	Location    *GeoPoint `db:"-" json:"location,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SyncLocation заполняет Location из колонок longitude/latitude после чтения из БД.
func (p *Pet) SyncLocation() {
	if p.Longitude != nil && p.Latitude != nil {
		p.Location = &GeoPoint{Lng: *p.Longitude, Lat: *p.Latitude}
		return
	}
	p.Location = nil
}

// SetLocation выставляет координаты (nil очищает их).
func (p *Pet) SetLocation(loc *GeoPoint) {
	p.Location = loc
	if loc == nil {
		p.Longitude, p.Latitude = nil, nil
		return
	}
	lng, lat := loc.Lng, loc.Lat
	p.Longitude, p.Latitude = &lng, &lat
}

// PetFilter - параметры выборки списка объявлений.
type PetFilter struct {
	Status string
	City   string
	Kind   string
	Limit  int
	Offset int
}
