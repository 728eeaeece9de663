package bento

import (
	"fmt"
	"strconv"
	"strings"
)

// MenuSelection identifies one of the three order slots on the
// order-detail form.
type MenuSelection int

const (
	SELECTION_WAFU  MenuSelection = iota // 和風ランチ
	SELECTION_AI                         // あいランチ
	SELECTION_OTHER                      // その他
)

func (s MenuSelection) String() string {
	switch s {
	case SELECTION_WAFU:
		return "和風ランチ"
	case SELECTION_AI:
		return "あいランチ"
	case SELECTION_OTHER:
		return "その他"
	}
	return fmt.Sprintf("メニュー%d", int(s))
}

var selectionAliases = map[string]MenuSelection{
	"和風":    SELECTION_WAFU,
	"和風ランチ": SELECTION_WAFU,
	"和風らんち": SELECTION_WAFU,
	"wafu":  SELECTION_WAFU,
	"あいランチ": SELECTION_AI,
	"あい":    SELECTION_AI,
	"ai":    SELECTION_AI,
	"その他":   SELECTION_OTHER,
	"other": SELECTION_OTHER,
}

var InvalidSelection = fmt.Errorf("unknown menu selection")
var InvalidDate = fmt.Errorf("invalid date, expected YYYY-MM-DD or YYYY/MM/DD")

// ResolveSelection maps user input ("和風", "ai", "2", ...) onto a
// menu slot.
func ResolveSelection(s string) (MenuSelection, error) {
	trimmed := strings.TrimSpace(s)
	if sel, ok := selectionAliases[strings.ToLower(trimmed)]; ok {
		return sel, nil
	}
	idx, err := strconv.Atoi(trimmed)
	if err == nil && idx >= 0 && idx <= 2 {
		return MenuSelection(idx), nil
	}
	return 0, fmt.Errorf("%w: %q", InvalidSelection, s)
}

// NormalizeDate converts YYYY-MM-DD or YYYY/MM/DD into the slashed
// form the order endpoints take.
func NormalizeDate(s string) (string, error) {
	normalized := strings.ReplaceAll(s, "-", "/")
	parts := strings.Split(normalized, "/")
	if len(parts) != 3 || len(parts[0]) != 4 {
		return "", fmt.Errorf("%w: %q", InvalidDate, s)
	}
	return normalized, nil
}

// EncodeQuantities builds the three-slot quantity array the order form
// posts, every slot zero except the selected one.
func EncodeQuantities(sel MenuSelection, quantity int) [3]int {
	var quantities [3]int
	quantities[sel] = quantity
	return quantities
}
