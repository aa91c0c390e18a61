package navigation

import "errors"

var (
	// ErrScreenNotFound возвращается, когда ни один зарегистрированный префикс не подходит к идентификатору.
	ErrScreenNotFound = errors.New("screen not found")
	// ErrInvalidPrefix возвращается при регистрации некорректного префикса.
	ErrInvalidPrefix = errors.New("invalid screen prefix")
	// ErrAmbiguousPrefix возвращается, когда параметризованный префикс перекрывает другой маршрут.
	ErrAmbiguousPrefix = errors.New("ambiguous screen prefix")
)
