package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawInstantDemand = `
<InstantaneousDemand>
<DeviceMacId>0xf00</DeviceMacId>
<MeterMacId>0x001c6400135bce4c</MeterMacId>
<TimeStamp>0x2f4fb816</TimeStamp>
<Demand>0x000254</Demand>
<Multiplier>0x00000003</Multiplier>
<Divisor>0x000003e8</Divisor>
<DigitsRight>0x03</DigitsRight>
<DigitsLeft>0x05</DigitsLeft>
<SuppressLeadingZero>Y</SuppressLeadingZero>
</InstantaneousDemand>
`

func TestParseFragment(t *testing.T) {
	msg, err := ParseFragment(rawInstantDemand)
	require.NoError(t, err)
	require.Len(t, msg, 1)

	items, ok := msg["InstantaneousDemand"].(ParsedMessage)
	require.True(t, ok)
	assert.Equal(t, "0x000254", items["Demand"])
	assert.Equal(t, "Y", items["SuppressLeadingZero"])
	assert.Len(t, items, 9)
}

func TestParseFragmentNested(t *testing.T) {
	msg, err := ParseFragment(`<?xml version="1.0"?><Root id="7"><A><B>x</B><B>y</B></A><Empty/><Mixed k="v">text</Mixed></Root>`)
	require.NoError(t, err)

	root := msg["Root"].(ParsedMessage)
	assert.Equal(t, "7", root["@id"])
	assert.Equal(t, ParsedMessage{"B": []any{"x", "y"}}, root["A"])
	assert.Nil(t, root["Empty"])
	assert.Contains(t, root, "Empty")
	assert.Equal(t, ParsedMessage{"@k": "v", "#text": "text"}, root["Mixed"])
}

func TestParseFragmentKeepsNamespacePrefix(t *testing.T) {
	msg, err := ParseFragment(`<e:Root xmlns:e="urn:x" e:id="1"><e:Demand>0x1</e:Demand><Demand>0x2</Demand></e:Root>`)
	require.NoError(t, err)
	require.Contains(t, msg, "e:Root")

	root := msg["e:Root"].(ParsedMessage)
	assert.Equal(t, "urn:x", root["@xmlns:e"])
	assert.Equal(t, "1", root["@e:id"])
	assert.Equal(t, "0x1", root["e:Demand"])
	assert.Equal(t, "0x2", root["Demand"])

	_, err = ParseFragment(`<e:Root xmlns:e="urn:x"></f:Root>`)
	assert.ErrorIs(t, err, ErrMalformedXML)
}

func TestParseFragmentMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"</Foo>",
		"<Foo><Bar>1</Bar>",
		"<Foo><Bar>1</Foo></Bar>",
		"<A></A><B></B>",
		"<A></A>trailing",
		"leading<A></A>",
		"not xml at all",
	} {
		msg, err := ParseFragment(in)
		assert.ErrorIs(t, err, ErrMalformedXML, "%q", in)
		assert.Nil(t, msg)
	}
}

func TestConvertToDict(t *testing.T) {
	assert.Equal(t, ParsedMessage{}, ConvertToDict("<Foo><Bar>"))
	assert.Contains(t, ConvertToDict(rawInstantDemand), "InstantaneousDemand")
}
