package job

import (
	"fmt"
	"strings"

	"github.com/guiyumin/clipgrab/internal/media"
	"github.com/guiyumin/clipgrab/internal/ytdlp"
)

// SelectionError reports a bad item index or format choice
type SelectionError struct {
	Message string
}

func (e *SelectionError) Error() string {
	return e.Message
}

// Selection is a validated download choice
type Selection struct {
	Item      *ytdlp.RawItem
	ItemCount int
	// Index is the 1-based item position, 0 for single-item sources
	Index    int
	FormatID string
	Selector string
}

// Resolve validates the requested index and format against the flattened
// items. index is nil when the client sent none; an empty formatID means
// best.
func Resolve(items []*ytdlp.RawItem, index *int, formatID string, hasMerger bool) (*Selection, error) {
	count := len(items)
	if count == 0 {
		return nil, &SelectionError{Message: "No media items were found for this URL."}
	}

	sel := &Selection{ItemCount: count, Item: items[0]}
	if count > 1 {
		if index == nil {
			return nil, &SelectionError{Message: "This URL has multiple items. Include ?index=1 (or another item number)."}
		}
		if *index < 1 || *index > count {
			return nil, &SelectionError{Message: fmt.Sprintf("Index must be between 1 and %d.", count)}
		}
		sel.Index = *index
		sel.Item = items[*index-1]
	}

	formatID = strings.TrimSpace(formatID)
	if formatID == "" {
		formatID = media.BestOptionID
	}

	_, selectors := media.BuildOptions(sel.Item, hasMerger)
	selector, ok := selectors[formatID]
	if !ok {
		return nil, &SelectionError{Message: "Selected format is not available for this media item."}
	}

	sel.FormatID = formatID
	sel.Selector = selector
	return sel, nil
}
