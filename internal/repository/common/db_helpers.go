package common

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// uniqueViolation - SQLSTATE нарушения уникального индекса.
const uniqueViolation = "23505"

// IsUniqueViolation проверяет, что ошибка пришла от уникального индекса PostgreSQL.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// MapNoRows подменяет sql.ErrNoRows доменной ошибкой, остальные ошибки оборачивает с именем операции.
func MapNoRows(err error, notFoundErr error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}
	return fmt.Errorf("%s: %w", op, err)
}

// EnsureAffected возвращает notFoundErr, если запрос не изменил ни одной строки.
func EnsureAffected(res sql.Result, notFoundErr error, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected %w", op, err)
	}
	if n == 0 {
		return notFoundErr
	}
	return nil
}
