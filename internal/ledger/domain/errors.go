package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("ledger: invalid input")
	ErrNotFound       = errors.New("ledger: entry not found")
	ErrInvalidBalance = errors.New("ledger: computed balance is out of range")
	ErrPersistence    = errors.New("ledger: persistence failure")
)

// ValidationError 参数校验失败，发生在任何写操作之前
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError 构造校验错误
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// PersistenceError 数据库或事务失败，Err 保留底层错误用于诊断
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// Persist 包装持久化错误，nil 与已分类的错误原样返回
func Persist(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidBalance) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsNotFound 判断是否为未找到
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation 判断是否为校验错误 (包括余额越界)
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidBalance)
}
