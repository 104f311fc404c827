package storage

import (
	"errors"
	"fmt"
)

// Сентинелы для проверки через errors.Is
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// NotFoundError - запись (или родительская категория) отсутствует
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError - обязательное поле отсутствует, пустое или не строка
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string { return e.Field + " is required" }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PersistenceError оборачивает ошибку записи на диск или в БД.
// Op описывает операцию, например "save categories".
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

func notFound(entity string) error { return &NotFoundError{Entity: entity} }

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
