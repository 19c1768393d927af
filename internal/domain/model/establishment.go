package model

type EstablishmentType string

const (
	EstablishmentTypeCafe       EstablishmentType = "cafe"
	EstablishmentTypeRestaurant EstablishmentType = "restaurant"
	EstablishmentTypeShop       EstablishmentType = "shop"
)

func (t EstablishmentType) Valid() bool {
	switch t {
	case EstablishmentTypeCafe, EstablishmentTypeRestaurant, EstablishmentTypeShop:
		return true
	}
	return false
}

type Establishment struct {
	EstablishmentID int64             `gorm:"primaryKey;autoIncrement" json:"establishment_id"`
	Type            EstablishmentType `gorm:"not null;type:varchar(16)" json:"type"`
	Name            string            `gorm:"not null;unique;type:varchar(100)" json:"name"`
	Email           string            `gorm:"not null;unique;type:varchar(100)" json:"email"`
	Phone           string            `gorm:"not null;unique;type:varchar(13)" json:"phone"`
	Address         string            `gorm:"not null;type:varchar(100)" json:"address"`
	BaseModel
}
