package media

import "github.com/guiyumin/clipgrab/internal/ytdlp"

// Flatten turns yt-dlp's result into a flat, ordered item list.
//
// Only two levels are unwrapped: a playlist's entries, and the entries of
// any entry that is itself a playlist. Null and empty entries are dropped. When
// nothing survives, the root itself is the only item.
func Flatten(root *ytdlp.RawItem) []*ytdlp.RawItem {
	if root == nil {
		return nil
	}
	if len(root.Entries) == 0 {
		return []*ytdlp.RawItem{root}
	}

	var flat []*ytdlp.RawItem
	for _, entry := range root.Entries {
		if entry.IsEmpty() {
			continue
		}
		if entry.Entries != nil {
			for _, nested := range entry.Entries {
				if !nested.IsEmpty() {
					flat = append(flat, nested)
				}
			}
			continue
		}
		flat = append(flat, entry)
	}

	if len(flat) == 0 {
		return []*ytdlp.RawItem{root}
	}
	return flat
}
