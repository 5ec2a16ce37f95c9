package expr

import (
	"testing"

	"github.com/cuemby/tablemapper/pkg/schema"
	"github.com/stretchr/testify/assert"
)

func TestSerializeProjection_CommaSeparated(t *testing.T) {
	a := NewExpressionAttributes()
	got := SerializeProjection(a, Projection{Prop("snap"), Prop("pop")})
	assert.Equal(t, "#attr0, #attr1", got)
}

func TestSerializeProjection_RepeatedPathReusesToken(t *testing.T) {
	a := NewExpressionAttributes()
	got := SerializeProjection(a, Projection{Prop("snap"), Prop("snap")})
	assert.Equal(t, "#attr0, #attr0", got)
}

func TestNormalizeProjection_RewritesEachPath(t *testing.T) {
	s := schema.Schema{
		"snap": {Tag: schema.String, AttributeName: "s"},
		"pop":  {Tag: schema.Number, AttributeName: "p"},
	}
	out := NormalizeProjection(s, Projection{Prop("snap"), Prop("pop")})
	assert.Equal(t, Projection{{{Name: "s"}}, {{Name: "p"}}}, out)
}
