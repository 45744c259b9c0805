// Package chunkstore implements the single-process chunk store: a
// byte tier on local disk with atomic tmp-then-rename writes and an
// index/state-machine tier in badger.
package chunkstore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
)

// ChunkState is the lifecycle state of a chunk row. New chunks
// progress New -> Incompleted -> Completed; Disabled, NotExist, and
// Link are orthogonal terminal-ish states.
type ChunkState string

const (
	ChunkStateNew         ChunkState = "new"
	ChunkStateIncompleted ChunkState = "incompleted"
	ChunkStateCompleted   ChunkState = "completed"
	ChunkStateDisabled    ChunkState = "disabled"
	ChunkStateNotExist    ChunkState = "not_exist"
	ChunkStateLink        ChunkState = "link"
)

// ChunkItem is the index row for one chunk id.
type ChunkItem struct {
	ChunkID     string     `json:"chunk_id"`
	ChunkSize   uint64     `json:"chunk_size"`
	State       ChunkState `json:"chunk_state"`
	Progress    string     `json:"progress,omitempty"`
	Description string     `json:"description,omitempty"`
	LinkTarget  string     `json:"link_target,omitempty"`
	CreateTime  int64      `json:"create_time"` // unix millis
	UpdateTime  int64      `json:"update_time"` // unix millis
}

func (c *ChunkItem) encode() ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrEncode, err)
	}
	return b, nil
}

func decodeChunkItem(b []byte) (*ChunkItem, error) {
	var c ChunkItem
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrDecode, err)
	}
	return &c, nil
}

// encodeProgress packs a suspended writer's cursor into the index
// row's progress field: "{bytes-written}@{tmp-path}".
func encodeProgress(written uint64, tmpPath string) string {
	return fmt.Sprintf("%d@%s", written, tmpPath)
}

// parseProgress unpacks a progress cursor; ok is false when the field
// is empty or malformed (a malformed cursor means restart, not error).
func parseProgress(s string) (written uint64, tmpPath string, ok bool) {
	idx := strings.IndexByte(s, '@')
	if idx <= 0 || idx == len(s)-1 {
		return 0, "", false
	}
	if _, err := fmt.Sscanf(s[:idx], "%d", &written); err != nil {
		return 0, "", false
	}
	return written, s[idx+1:], true
}

// LinkData is an alias pointing one ObjId's reads at another object's
// bytes, or at a byte range of a chunk.
type LinkData struct {
	Kind       LinkKind
	SameAs     string // ObjId string, when Kind == LinkSameAs
	PartOfID   string // ChunkId string, when Kind == LinkPartOf
	RangeStart uint64
	RangeEnd   uint64
}

// LinkKind distinguishes LinkData variants.
type LinkKind int

const (
	LinkSameAs LinkKind = iota
	LinkPartOf
)

// String encodes LinkData in its textual wire form:
// "same->{objid}" or "part_of->{start}..{end}@{chunkid}".
func (l LinkData) String() string {
	switch l.Kind {
	case LinkSameAs:
		return "same->" + l.SameAs
	case LinkPartOf:
		return fmt.Sprintf("part_of->%d..%d@%s", l.RangeStart, l.RangeEnd, l.PartOfID)
	default:
		return ""
	}
}

// ParseLinkData decodes the textual LinkData form.
func ParseLinkData(s string) (LinkData, error) {
	parts := strings.SplitN(s, "->", 2)
	if len(parts) != 2 {
		return LinkData{}, fmt.Errorf("%w: invalid link string %q", errors.ErrInvalidLink, s)
	}
	switch parts[0] {
	case "same":
		return LinkData{Kind: LinkSameAs, SameAs: parts[1]}, nil
	case "part_of":
		atParts := strings.SplitN(parts[1], "@", 2)
		if len(atParts) != 2 {
			return LinkData{}, fmt.Errorf("%w: invalid link string %q", errors.ErrInvalidLink, s)
		}
		rangeParts := strings.SplitN(atParts[0], "..", 2)
		if len(rangeParts) != 2 {
			return LinkData{}, fmt.Errorf("%w: invalid range in %q", errors.ErrInvalidLink, s)
		}
		var start, end uint64
		if _, err := fmt.Sscanf(rangeParts[0], "%d", &start); err != nil {
			return LinkData{}, fmt.Errorf("%w: invalid range start in %q", errors.ErrInvalidLink, s)
		}
		if _, err := fmt.Sscanf(rangeParts[1], "%d", &end); err != nil {
			return LinkData{}, fmt.Errorf("%w: invalid range end in %q", errors.ErrInvalidLink, s)
		}
		return LinkData{Kind: LinkPartOf, PartOfID: atParts[1], RangeStart: start, RangeEnd: end}, nil
	default:
		return LinkData{}, fmt.Errorf("%w: invalid link type %q", errors.ErrInvalidLink, parts[0])
	}
}
