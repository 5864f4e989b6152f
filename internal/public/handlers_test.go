package public

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangePercent(t *testing.T) {
	assert.Equal(t, "0%", changePercent(10, 0), "no growth")
	assert.Equal(t, "0%", changePercent(5, -3), "shrinking window reads as flat")
	assert.Equal(t, "+100%", changePercent(4, 4), "brand new category")
	assert.Equal(t, "+50%", changePercent(6, 2))  // 4 -> 6
	assert.Equal(t, "+200%", changePercent(3, 2)) // 1 -> 3
}
