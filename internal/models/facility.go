package models

type Facility struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	Name     string `gorm:"not null" json:"name"`
	Location string `gorm:"not null" json:"location"`
	Contact  string `gorm:"not null;default:''" json:"contact"`
}
