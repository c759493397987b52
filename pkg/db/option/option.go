package option

import "gorm.io/gorm"

// QueryOption customizes a repository query.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type orderOption struct {
	expr string
}

func (o orderOption) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(o.expr)
}

// WithOrder appends an ORDER BY expression.
func WithOrder(expr string) QueryOption {
	return orderOption{expr: expr}
}

type limitOption struct {
	limit int
}

func (o limitOption) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(o.limit)
}

// WithLimit caps the number of returned rows.
func WithLimit(limit int) QueryOption {
	return limitOption{limit: limit}
}
