package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddressResult_Component(t *testing.T) {
	r := &AddressResult{
		Status: StatusOK,
		Components: []ParsedComponent{
			{Label: "road", Value: "rope walk"},
			{Label: "city", Value: "bedford"},
		},
	}
	assert.True(t, r.IsValidStatus())

	v, ok := r.Component("city")
	assert.True(t, ok)
	assert.Equal(t, "bedford", v)

	_, ok = r.Component("country")
	assert.False(t, ok)
}

func TestAddressCache_Lifecycle(t *testing.T) {
	c := NewAddressCache("parse:abc", AddressResult{Raw: "Main St", Operation: OperationParse}, "v1")
	assert.Equal(t, 1, c.AccessCount)
	assert.Equal(t, OperationParse, c.Operation)

	c.UpdateAccess()
	assert.Equal(t, 2, c.AccessCount)

	assert.False(t, c.IsExpired(time.Hour))
	assert.False(t, c.IsExpired(0))
	c.CreatedAt = time.Now().Add(-2 * time.Hour)
	assert.True(t, c.IsExpired(time.Hour))

	assert.True(t, c.IsValidModelVersion("v1"))
	assert.False(t, c.IsValidModelVersion("v2"))
}
