package repo

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/sbak-archive/sbak/core"
)

// History records the wall-clock start of one scan and the root DirEntry
// id it produced.
type History struct {
	Timestamp core.Timestamp `json:"timestamp"`
	ID        core.HashID    `json:"id"`
}

// Compare orders histories primarily by Timestamp ascending, tie-broken
// by ID.
func (h History) Compare(other History) int {
	switch {
	case h.Timestamp.Unix() < other.Timestamp.Unix():
		return -1
	case h.Timestamp.Unix() > other.Timestamp.Unix():
		return 1
	case h.ID < other.ID:
		return -1
	case h.ID > other.ID:
		return 1
	default:
		return 0
	}
}

func sortHistories(hs []History) {
	sort.Slice(hs, func(i, j int) bool {
		return hs[i].Compare(hs[j]) < 0
	})
}

func marshalHistory(h History) ([]byte, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling history record")
	}

	return data, nil
}

func unmarshalHistory(data []byte) (History, error) {
	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return History{}, errors.Wrap(err, "decoding history record")
	}

	return h, nil
}
