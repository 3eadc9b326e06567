package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed        = errors.New("validation failed")
	ErrPasswordTooShort        = errors.New("password is too short")
	ErrTournamentFieldsMissing = errors.New("game title, date, location and spots are required")
	ErrTournamentInvalidSpots  = errors.New("tournament spots must be a positive integer")
	ErrTournamentInvalidDate   = errors.New("tournament date must be a calendar date (YYYY-MM-DD)")

	// Ошибки регистрации на турнир
	ErrTournamentFull       = errors.New("tournament registration is full")
	ErrAlreadyRegistered    = errors.New("user is already registered for this tournament")
	ErrRegistrationConflict = errors.New("registration conflicted with concurrent updates, try again")

	// Ошибки конфликтов
	ErrUserEmailConflict = errors.New("email address is already in use")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials   = errors.New("invalid email or password")
	ErrAuthEmailTaken           = errors.New("email is already taken")
	ErrAuthInvalidProviderToken = errors.New("federated sign-in token is invalid")
	ErrForbiddenOperation       = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")

	// Загрузка баннеров
	ErrBannerStorageDisabled = errors.New("banner storage is not configured")
)
