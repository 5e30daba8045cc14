// Package store is the generic select/insert/update/delete surface over the
// relational store. Every service reads and writes through a Table.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Visionatedigital/M-and-T/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cond is one WHERE condition. Column names come from code, never from
// request input.
type Cond struct {
	expr clause.Expression
}

func Eq(column string, value interface{}) Cond {
	return Cond{clause.Eq{Column: clause.Column{Name: column}, Value: value}}
}

func In[V any](column string, values ...V) Cond {
	vs := make([]interface{}, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Cond{clause.IN{Column: clause.Column{Name: column}, Values: vs}}
}

// Search matches term case-insensitively as a substring of any of columns.
func Search(term string, columns ...string) Cond {
	pattern := "%" + strings.ToLower(term) + "%"
	parts := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		parts[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = pattern
	}
	return Cond{clause.Expr{SQL: "(" + strings.Join(parts, " OR ") + ")", Vars: args}}
}

type Order struct {
	Column string
	Desc   bool
}

// Filter selects rows. The zero Filter matches every row.
type Filter struct {
	Where   []Cond
	OrderBy []Order
	Limit   int
	Offset  int
	Preload []string
}

func Where(conds ...Cond) Filter {
	return Filter{Where: conds}
}

func ByID(id uuid.UUID) Filter {
	return Where(Eq("id", id))
}

func (f Filter) And(conds ...Cond) Filter {
	f.Where = append(append([]Cond(nil), f.Where...), conds...)
	return f
}

func (f Filter) Newest(column string) Filter {
	f.OrderBy = append(append([]Order(nil), f.OrderBy...), Order{Column: column, Desc: true})
	return f
}

func (f Filter) Oldest(column string) Filter {
	f.OrderBy = append(append([]Order(nil), f.OrderBy...), Order{Column: column})
	return f
}

func (f Filter) Take(n int) Filter {
	f.Limit = n
	return f
}

func (f Filter) With(associations ...string) Filter {
	f.Preload = append(append([]string(nil), f.Preload...), associations...)
	return f
}

func (f Filter) where(tx *gorm.DB) *gorm.DB {
	for _, c := range f.Where {
		tx = tx.Where(c.expr)
	}
	return tx
}

func (f Filter) apply(tx *gorm.DB) *gorm.DB {
	tx = f.where(tx)
	for _, o := range f.OrderBy {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	if f.Offset > 0 {
		tx = tx.Offset(f.Offset)
	}
	for _, p := range f.Preload {
		tx = tx.Preload(p)
	}
	return tx
}

// Table is typed access to the table backing model T.
type Table[T any] struct {
	db   *gorm.DB
	name string
}

func NewTable[T any](db *gorm.DB) *Table[T] {
	var zero T
	return &Table[T]{db: db, name: fmt.Sprintf("%T", zero)}
}

func (t *Table[T]) Select(ctx context.Context, f Filter) ([]T, error) {
	var rows []T
	if err := f.apply(t.db.WithContext(ctx).Model(new(T))).Find(&rows).Error; err != nil {
		return nil, t.fail("select", err)
	}
	return rows, nil
}

// First returns the first row matching f, or an error wrapping
// apperr.ErrNotFound.
func (t *Table[T]) First(ctx context.Context, f Filter) (*T, error) {
	row := new(T)
	if err := f.Take(1).apply(t.db.WithContext(ctx)).Take(row).Error; err != nil {
		return nil, t.fail("select", err)
	}
	return row, nil
}

func (t *Table[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	return t.First(ctx, ByID(id))
}

func (t *Table[T]) Count(ctx context.Context, f Filter) (int64, error) {
	var n int64
	if err := f.where(t.db.WithContext(ctx).Model(new(T))).Count(&n).Error; err != nil {
		return 0, t.fail("count", err)
	}
	return n, nil
}

// Sum adds up column over the matching rows; no rows sum to zero.
func (t *Table[T]) Sum(ctx context.Context, f Filter, column string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := f.where(t.db.WithContext(ctx).Model(new(T))).Select("SUM(" + column + ")").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, t.fail("sum", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (t *Table[T]) Insert(ctx context.Context, row *T) error {
	if err := t.db.WithContext(ctx).Create(row).Error; err != nil {
		return t.fail("insert", err)
	}
	return nil
}

// Update writes patch to every row matching f and reports how many rows
// changed. An empty filter is refused.
func (t *Table[T]) Update(ctx context.Context, f Filter, patch map[string]interface{}) (int64, error) {
	if len(f.Where) == 0 {
		return 0, fmt.Errorf("update %s without a filter: %w", t.name, apperr.ErrInvalidArgument)
	}
	res := f.where(t.db.WithContext(ctx).Model(new(T))).Updates(patch)
	if res.Error != nil {
		return 0, t.fail("update", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes every row matching f. An empty filter is refused.
func (t *Table[T]) Delete(ctx context.Context, f Filter) (int64, error) {
	if len(f.Where) == 0 {
		return 0, fmt.Errorf("delete %s without a filter: %w", t.name, apperr.ErrInvalidArgument)
	}
	res := f.where(t.db.WithContext(ctx)).Delete(new(T))
	if res.Error != nil {
		return 0, t.fail("delete", res.Error)
	}
	return res.RowsAffected, nil
}

func (t *Table[T]) fail(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", op, t.name, apperr.ErrNotFound)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s %s: %w", op, t.name, apperr.ErrConflict)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", op, t.name, err)
	}
	return fmt.Errorf("%s %s: %w: %w", op, t.name, apperr.ErrUpstream, err)
}

// Transact runs fn inside a database transaction. fn must do all of its
// work through tx.
func Transact(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
