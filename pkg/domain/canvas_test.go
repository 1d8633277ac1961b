package domain_test

import (
	"testing"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestCanvas_Bounds(t *testing.T) {
	c := domain.DefaultCanvas
	assert.Equal(t, 640, c.MaxX())
	assert.Equal(t, 510, c.MaxY())

	tests := []struct {
		in, wantX, wantY int
	}{
		{-1, 0, 0},
		{0, 0, 0},
		{300, 300, 300},
		{510, 510, 510},
		{600, 600, 510},
		{640, 640, 510},
		{9999, 640, 510},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wantX, c.ClampX(tt.in), "ClampX(%d)", tt.in)
		assert.Equal(t, tt.wantY, c.ClampY(tt.in), "ClampY(%d)", tt.in)
	}
}

func TestCanvas_Contains(t *testing.T) {
	c := domain.DefaultCanvas
	assert.True(t, c.Contains(domain.Point{X: 0, Y: 0}))
	assert.True(t, c.Contains(domain.Point{X: 640, Y: 510}))
	assert.False(t, c.Contains(domain.Point{X: 641, Y: 0}))
	assert.False(t, c.Contains(domain.Point{X: 0, Y: -1}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, domain.Clamp(5, 0, 10))
	assert.Equal(t, 0, domain.Clamp(-5, 0, 10))
	assert.Equal(t, 10, domain.Clamp(50, 0, 10))
}
