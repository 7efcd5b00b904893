package specification

import "gorm.io/gorm"

// Specification is a composable query fragment. Repositories accept a
// variadic list of these and fold them onto the base query.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
