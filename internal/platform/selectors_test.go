// internal/platform/selectors_test.go
package platform

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorTablesAreComplete(t *testing.T) {
	for name, sel := range tables {
		t.Run(string(name), func(t *testing.T) {
			assert.NoError(t, sel.validate())
			assert.NotEmpty(t, sel.GoodsPanelURL)
			assert.NotEmpty(t, sel.PopupActiveIn)
		})
	}
}

func TestSelectorsFor(t *testing.T) {
	sel, err := SelectorsFor(Douyin)
	require.NoError(t, err)
	assert.NotEmpty(t, sel.GoodsItem)

	_, err = SelectorsFor(Name("taobao"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported platform")
	assert.Contains(t, err.Error(), "douyin")
}

func TestSupportedOrder(t *testing.T) {
	want := []Name{Buyin, Douyin, Kuaishou, WXChannel}
	if diff := cmp.Diff(want, Supported()); diff != "" {
		t.Fatalf("supported platforms mismatch (-want +got):\n%s", diff)
	}
}

// Platform quirks the rest of the stack depends on: wxchannel has no pin
// control and buyin confirms in one click.
func TestPlatformQuirks(t *testing.T) {
	assert.Empty(t, tables[WXChannel].PinToTop)
	assert.Empty(t, tables[Buyin].PopupConfirm)
	assert.NotEmpty(t, tables[Douyin].PopupConfirm)
	assert.NotEmpty(t, tables[Kuaishou].PopupConfirm)
}

func TestValidateReportsAllMissing(t *testing.T) {
	err := Selectors{GoodsItem: "div.item"}.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comment_input")
	assert.Contains(t, err.Error(), "goods_id_in")
	assert.Contains(t, err.Error(), "popup_trigger_in")
	assert.Contains(t, err.Error(), "submit_comment")
	assert.NotContains(t, err.Error(), "goods_item")
}
