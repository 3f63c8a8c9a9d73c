package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsConcurrencyFailure(t *testing.T) {
	assert.True(t, IsConcurrencyFailure(&pq.Error{Code: "40001"}))
	assert.True(t, IsConcurrencyFailure(fmt.Errorf("insert enrollment: %w", &pq.Error{Code: "40P01"})))
	assert.False(t, IsConcurrencyFailure(&pq.Error{Code: "23505"}))
	assert.False(t, IsConcurrencyFailure(errors.New("40001")))
	assert.False(t, IsConcurrencyFailure(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("create enrollment: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "40001"}))
	assert.False(t, IsUniqueViolation(nil))
}
