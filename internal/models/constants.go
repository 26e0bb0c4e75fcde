package models

// PetStatus константы статусов объявлений
const (
	PetStatusLost  = "lost"
	PetStatusFound = "found"
)

// ValidPetStatuses список валидных статусов объявлений
var ValidPetStatuses = map[string]struct{}{
	PetStatusLost:  {},
	PetStatusFound: {},
}

// TokenTypeReset - значение claim type у токена сброса пароля.
const TokenTypeReset = "reset"
