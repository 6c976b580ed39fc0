// internal/platform/selectors.go
package platform

import (
	"fmt"
	"sort"
	"strings"
)

// Name identifies a supported live-control platform.
type Name string

const (
	Douyin    Name = "douyin"    // 抖音小店 live control panel
	Buyin     Name = "buyin"     // 巨量百应 (Doudian partner console)
	WXChannel Name = "wxchannel" // 微信视频号助手
	Kuaishou  Name = "kuaishou"  // 快手小店
)

// Selectors is the per-platform selector table for the control panel. The
// goods-item selectors are absolute; the ones suffixed "In" are resolved
// relative to a single goods item.
type Selectors struct {
	// GoodsPanelURL is the control panel entry page.
	GoodsPanelURL string

	// GoodsItem matches one rendered catalog entry in the goods list.
	GoodsItem string
	// GoodsIDIn matches the element carrying the numeric identifier
	// inside a goods item.
	GoodsIDIn string
	// PopupTriggerIn matches the "explain" button inside a goods item.
	PopupTriggerIn string
	// ScrollContainer matches the scrollable ancestor of the goods list.
	ScrollContainer string

	// PopupConfirm matches the confirmation button of the dialog some
	// platforms raise after the trigger click. Empty when the platform
	// pops up in one click.
	PopupConfirm string
	// PopupActive matches the marker that the "now explaining" state is
	// live (for example the trigger flipping to its cancel label).
	PopupActiveIn string

	// CommentInput, SubmitComment and PinToTop drive the chat surface.
	CommentInput   string
	SubmitComment  string
	SubmitDisabled string // class substring marking a disabled submit
	PinToTop       string

	// Overlays is the ordered dismissal list for known blocking overlays.
	Overlays []string
}

// validate reports selectors a platform entry cannot function without.
func (s Selectors) validate() error {
	var missing []string
	required := map[string]string{
		"goods_item":       s.GoodsItem,
		"goods_id_in":      s.GoodsIDIn,
		"popup_trigger_in": s.PopupTriggerIn,
		"comment_input":    s.CommentInput,
		"submit_comment":   s.SubmitComment,
	}
	for name, sel := range required {
		if strings.TrimSpace(sel) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("selector table incomplete: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// tables holds the selector tables for every supported platform. These are
// tied to the current panel markup of each platform and break when the
// vendors ship a redesign; treat them as configuration, not behavior.
var tables = map[Name]Selectors{
	Douyin: {
		GoodsPanelURL:   "https://fxg.jinritemai.com/ffa/buyin/dashboard/live/control",
		GoodsItem:       `div[class^="goodsItem"]`,
		GoodsIDIn:       `div[class^="indexWrapper"]`,
		PopupTriggerIn:  `div[class^="talking-btn"], button[class*="explain"]`,
		ScrollContainer: `div[class^="goodsPanel"] div[class*="scroll"]`,
		PopupConfirm:    `div[class^="dialog"] button[class*="primary"]`,
		PopupActiveIn:   `div[class*="talking-btn-active"]`,
		CommentInput:    `div[class^="comment-input"] textarea`,
		SubmitComment:   `div[class^="comment-input"] button`,
		SubmitDisabled:  "disabled",
		PinToTop:        `div[class^="comment-input"] label[class*="pin"] input`,
		Overlays: []string{
			`div[class^="activity-dialog"] svg[class*="close"]`,
			`div[class^="guide-popover"] button`,
			`div[data-e2e="upgrade-dialog"] [class*="close"]`,
		},
	},
	Buyin: {
		GoodsPanelURL:   "https://buyin.jinritemai.com/dashboard/live/control",
		GoodsItem:       `div[class^="render-item"]`,
		GoodsIDIn:       `span[class^="index-num"]`,
		PopupTriggerIn:  `button[class*="explain-btn"]`,
		ScrollContainer: `div[class^="live-goods-list"]`,
		PopupConfirm:    ``, // buyin pops up in one click
		PopupActiveIn:   `button[class*="explain-btn-cancel"]`,
		CommentInput:    `div[class^="chat-editor"] textarea`,
		SubmitComment:   `div[class^="chat-editor"] div[class*="send-btn"]`,
		SubmitDisabled:  "send-btn-disabled",
		PinToTop:        `div[class^="chat-editor"] input[type="checkbox"]`,
		Overlays: []string{
			`div[class^="modal-wrapper"] span[class*="close"]`,
			`div[class^="notice-bar"] span[class*="close"]`,
		},
	},
	WXChannel: {
		GoodsPanelURL:   "https://channels.weixin.qq.com/platform/live/liveBuild",
		GoodsItem:       `div.commodity-list-wrap div.commodity-item`,
		GoodsIDIn:       `div.commodity-index`,
		PopupTriggerIn:  `button.promoting-btn`,
		ScrollContainer: `div.commodity-list-wrap`,
		PopupConfirm:    `div.weui-desktop-dialog button.weui-desktop-btn_primary`,
		PopupActiveIn:   `button.promoting-btn.active`,
		CommentInput:    `div.comment-box textarea.comment-input`,
		SubmitComment:   `div.comment-box button.send-btn`,
		SubmitDisabled:  "send-btn-disabled",
		PinToTop:        ``, // the channel panel has no pin control
		Overlays: []string{
			`div.modal-dialog i.icon-close`,
		},
	},
	Kuaishou: {
		GoodsPanelURL:   "https://zs.kwaixiaodian.com/page/helper",
		GoodsItem:       `div[class^="goods-card"]`,
		GoodsIDIn:       `div[class^="goods-order"]`,
		PopupTriggerIn:  `button[class*="record-btn"]`,
		ScrollContainer: `div[class^="goods-list-container"]`,
		PopupConfirm:    `div[class^="ant-modal"] button[class*="ant-btn-primary"]`,
		PopupActiveIn:   `button[class*="record-btn-recording"]`,
		CommentInput:    `div[class^="comment-area"] textarea`,
		SubmitComment:   `div[class^="comment-area"] button[class*="submit"]`,
		SubmitDisabled:  "ant-btn-disabled",
		PinToTop:        `div[class^="comment-area"] input[type="checkbox"]`,
		Overlays: []string{
			`div[class^="ant-modal"] span[class*="ant-modal-close"]`,
		},
	},
}

// SelectorsFor returns the selector table for the named platform.
func SelectorsFor(name Name) (Selectors, error) {
	sel, ok := tables[name]
	if !ok {
		return Selectors{}, fmt.Errorf("unsupported platform %q (supported: %s)", name, supportedList())
	}
	return sel, nil
}

// Supported returns the supported platform names in stable order.
func Supported() []Name {
	names := make([]Name, 0, len(tables))
	for n := range tables {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func supportedList() string {
	names := Supported()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}
