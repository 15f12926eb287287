package repositories

import "gorm.io/gorm/clause"

// lockForUpdate row-locks the fetched record for the rest of the transaction
func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}
