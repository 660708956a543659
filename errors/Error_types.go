package errors

// ERR is the stable numeric error code carried by every Error. Codes are part
// of the observable surface (logs, metrics labels) and must not be renumbered.
type ERR int32

const (
	ERR_UNKNOWN             ERR = 0
	ERR_INVALID_ARGUMENT    ERR = 1
	ERR_CONFIGURATION       ERR = 2
	ERR_PROCESSING          ERR = 3
	ERR_COIN_NOT_FOUND      ERR = 10
	ERR_COIN_EXISTS         ERR = 11
	ERR_COIN_SPENT          ERR = 12
	ERR_STORAGE_ERROR       ERR = 20
	ERR_STORAGE_UNAVAILABLE ERR = 21
	ERR_FLUSH_IN_PROGRESS   ERR = 30
)

var ERR_name = map[int32]string{
	0:  "UNKNOWN",
	1:  "INVALID_ARGUMENT",
	2:  "CONFIGURATION",
	3:  "PROCESSING",
	10: "COIN_NOT_FOUND",
	11: "COIN_EXISTS",
	12: "COIN_SPENT",
	20: "STORAGE_ERROR",
	21: "STORAGE_UNAVAILABLE",
	30: "FLUSH_IN_PROGRESS",
}

func (e ERR) Enum() string {
	if name, ok := ERR_name[int32(e)]; ok {
		return name
	}

	return "UNKNOWN"
}

var (
	ErrUnknown            = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument    = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrConfiguration      = New(ERR_CONFIGURATION, "configuration error")
	ErrProcessing         = New(ERR_PROCESSING, "error processing")
	ErrCoinNotFound       = New(ERR_COIN_NOT_FOUND, "coin not found")
	ErrCoinExists         = New(ERR_COIN_EXISTS, "coin already exists")
	ErrCoinSpent          = New(ERR_COIN_SPENT, "coin already spent")
	ErrStorageError       = New(ERR_STORAGE_ERROR, "storage error")
	ErrStorageUnavailable = New(ERR_STORAGE_UNAVAILABLE, "storage unavailable")
	ErrFlushInProgress    = New(ERR_FLUSH_IN_PROGRESS, "flush already in progress")
)

// errors initialization functions

func NewUnknownError(message string, params ...interface{}) error {
	return New(ERR_UNKNOWN, message, params...)
}

func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}

func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}

func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}

func NewCoinNotFoundError(message string, params ...interface{}) error {
	return New(ERR_COIN_NOT_FOUND, message, params...)
}

func NewCoinExistsError(message string, params ...interface{}) error {
	return New(ERR_COIN_EXISTS, message, params...)
}

func NewCoinSpentError(message string, params ...interface{}) error {
	return New(ERR_COIN_SPENT, message, params...)
}

func NewStorageError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_ERROR, message, params...)
}

func NewStorageUnavailableError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_UNAVAILABLE, message, params...)
}

func NewFlushInProgressError(message string, params ...interface{}) error {
	return New(ERR_FLUSH_IN_PROGRESS, message, params...)
}
