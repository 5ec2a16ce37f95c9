package mapererr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInvalidSchema_FormatsReason(t *testing.T) {
	err := NewInvalidSchema("unrecognized tag %v", 7)
	assert.Equal(t, "invalid schema: unrecognized tag 7", err.Error())
	var target *InvalidSchema
	assert.True(t, errors.As(err, &target))
}

func TestNewInvalidValue_FormatsReasonAndValue(t *testing.T) {
	err := NewInvalidValue("x", "not coercible to %s", "Number")
	assert.Equal(t, "invalid value x: not coercible to Number", err.Error())
	var target *InvalidValue
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "x", target.Value)
}

func TestNewProtocolViolation_FormatsReason(t *testing.T) {
	err := NewProtocolViolation("expected %s attribute", "N")
	assert.Equal(t, "protocol violation: expected N attribute", err.Error())
}

func TestItemNotFound_ErrorIncludesTable(t *testing.T) {
	err := &ItemNotFound{Table: "widgets"}
	assert.Equal(t, `item not found in table "widgets"`, err.Error())
}

func TestNoReturnedAttributes_ErrorIncludesTable(t *testing.T) {
	err := &NoReturnedAttributes{Table: "widgets"}
	assert.Equal(t, `update on table "widgets" returned no attributes`, err.Error())
}

func TestNewTransport_NilErrIsNil(t *testing.T) {
	assert.Nil(t, NewTransport("PutItem", nil))
}

func TestNewTransport_WrapsAndUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTransport("PutItem", cause)
	assert.Equal(t, "PutItem: connection refused", err.Error())
	assert.True(t, errors.Is(err, cause))
}
