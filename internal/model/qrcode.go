package model

import (
	"time"

	"github.com/google/uuid"
)

// QRCode is a single-use grant binding a recipe to whichever appliance
// redeems it. The row is hard-deleted atomically with the bind, so a second
// scan of the same code cannot re-bind.
type QRCode struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"` // the scanned code value
	RecipeID  uuid.UUID `json:"recipe_id" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Recipe Recipe `json:"-" gorm:"foreignKey:RecipeID"`
}
