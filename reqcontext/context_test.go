package reqcontext

import (
	"regexp"
	"testing"

	tdd "github.com/stretchr/testify/assert"
)

var requestIDPattern = regexp.MustCompile(`^[A-Z0-9-]{20}$`)

func TestNewRequestContext(t *testing.T) {
	assert := tdd.New(t)

	rc := NewRequestContext("acme", "alice", []string{"admins", "ops"}, "10.0.0.1")
	assert.Equal("acme", rc.Tenant)
	assert.Equal("alice", rc.User)
	assert.Equal([]string{"admins", "ops"}, rc.Groups)
	assert.True(requestIDPattern.MatchString(rc.RequestID), "request id should match the expected charset and length")
	assert.False(rc.Timestamp.IsZero())

	other := NewRequestContext("acme", "alice", nil, "10.0.0.1")
	assert.NotEqual(rc.RequestID, other.RequestID, "request ids must be unique per context")
}

func TestToMapFromMapRoundTrip(t *testing.T) {
	assert := tdd.New(t)

	rc := NewRequestContext("acme", "bob", []string{"eng", "sre"}, "192.168.1.5")
	m := rc.ToMap()
	restored := FromMap(m)

	assert.Equal(rc.Tenant, restored.Tenant)
	assert.Equal(rc.User, restored.User)
	assert.Equal(rc.Groups, restored.Groups)
	assert.Equal(rc.RemoteAddress, restored.RemoteAddress)
	assert.Equal(rc.RequestID, restored.RequestID)
	assert.Equal(rc.Timestamp.Unix(), restored.Timestamp.Unix())
}

func TestFromMapEmptyGroups(t *testing.T) {
	assert := tdd.New(t)

	restored := FromMap(map[string]string{"tenant": "acme"})
	assert.Equal("acme", restored.Tenant)
	assert.Nil(restored.Groups)
}
