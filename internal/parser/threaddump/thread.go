package threaddump

import (
	"fmt"
	"strings"

	"github.com/thobe/thread-dump-analysis/pkg/errors"
	"github.com/thobe/thread-dump-analysis/pkg/model"
)

// IDGenerator hands out synthetic ids for threads whose info line has no
// quoted name. Each Reader owns one.
type IDGenerator struct {
	next int
}

// Next returns the next synthetic id, e.g. `"Unknown thread 0"`.
func (g *IDGenerator) Next() string {
	id := fmt.Sprintf("%q", fmt.Sprintf("Unknown thread %d", g.next))
	g.next++
	return id
}

// ThreadID returns the info line up to and including the first '"' after
// its first byte, or a synthetic id when there is no such quote.
func ThreadID(info string, ids *IDGenerator) string {
	if len(info) > 1 {
		if end := strings.IndexByte(info[1:], '"'); end >= 0 {
			return info[:end+2]
		}
	}
	return ids.Next()
}

// BuildThreadRecord turns one chunk into a thread record.
//
// A one-line chunk is a system thread. A longer chunk must start with a
// quoted name, otherwise ErrNotAThreadChunk is returned. An unknown state
// name yields ErrMalformedState and an unrecognized stack line
// ErrMalformedFrame; no partial record is returned in either case.
func BuildThreadRecord(chunk []string, ids *IDGenerator) (*model.ThreadRecord, error) {
	if len(chunk) == 0 {
		return nil, errors.ErrNotAThreadChunk
	}
	info := chunk[0]
	if len(chunk) == 1 {
		return &model.ThreadRecord{ID: ThreadID(info, ids), Info: info}, nil
	}
	if !strings.HasPrefix(info, `"`) {
		return nil, errors.ErrNotAThreadChunk.WithDetail(info)
	}

	record := &model.ThreadRecord{Info: info}
	i := 1
	if strings.HasPrefix(chunk[i], model.StateLinePrefix) {
		state, comment, err := parseStateLine(chunk[i])
		if err != nil {
			return nil, err
		}
		record.State = state
		record.StateComment = comment
		i++
	}

	for ; i < len(chunk); i++ {
		frame, ok, err := ClassifyFrame(chunk[i])
		if err != nil {
			return nil, err
		}
		if ok {
			record.Frames = append(record.Frames, frame)
		}
	}

	record.ID = ThreadID(info, ids)
	return record, nil
}

func parseStateLine(line string) (model.ThreadState, string, error) {
	_, descr, _ := strings.Cut(line, ":")
	name, comment, _ := strings.Cut(strings.TrimSpace(descr), " ")
	state, ok := model.ParseThreadState(name)
	if !ok {
		return model.ThreadStateNone, "", errors.ErrMalformedState.WithDetail(line)
	}
	return state, strings.TrimSpace(comment), nil
}
