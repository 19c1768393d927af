package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNumericOutOfRange   = "22003"
)

var (
	// ErrRecordNotFound 查無資料
	ErrRecordNotFound = errors.New("record not found")
	// ErrStaleProduct 商品在讀取後已被其他請求修改 (version 不符)
	ErrStaleProduct = errors.New("product was modified concurrently")
	// ErrDuplicateKey 違反唯一鍵
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrForeignKeyViolation 仍被其他資料參照
	ErrForeignKeyViolation = errors.New("foreign key violation")
	// ErrValueOutOfRange 數值超出欄位精度
	ErrValueOutOfRange = errors.New("value out of range")
)

// translateError 將 gorm / postgres 錯誤轉為 repository 層的 sentinel error
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.Join(ErrDuplicateKey, err)
		case pgForeignKeyViolation:
			return errors.Join(ErrForeignKeyViolation, err)
		case pgNumericOutOfRange:
			return errors.Join(ErrValueOutOfRange, err)
		}
	}
	return err
}
