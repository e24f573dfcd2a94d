package db

import (
	"fmt"
	"sync/atomic"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

// NewTest opens an isolated in-memory sqlite database. Each call gets its
// own namespace so parallel tests do not share tables.
func NewTest() (*gorm.DB, error) {
	name := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	return gorm.Open(sqlite.Open(name), &gorm.Config{TranslateError: true})
}
