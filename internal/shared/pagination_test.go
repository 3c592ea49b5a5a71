package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginationNormalises(t *testing.T) {
	p := NewPagination(0, 0, 120)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 50, p.PerPage)
	assert.Equal(t, 3, p.TotalPages)

	p = NewPagination(2, 1000, 10)
	assert.Equal(t, maxPerPage, p.PerPage)
	assert.Equal(t, 1, p.TotalPages)
}

func TestPaginationOffset(t *testing.T) {
	p := NewPagination(3, 25, 100)
	assert.Equal(t, 50, p.Offset())
	assert.Equal(t, 4, p.TotalPages)
}
