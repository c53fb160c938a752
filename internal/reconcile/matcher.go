package reconcile

import (
	"time"

	"github.com/ignite/outreach-analytics/internal/pkg/logger"
)

// Scan window bounds, in seconds after the send timestamp. Phase 1 covers
// the immediate-open cluster; Phase 2 sweeps the long tail.
const (
	phase1MinOffset = 0
	phase1MaxOffset = 11
	phase2MinOffset = 12
	phase2MaxOffset = 60
)

// openIndex groups open events by recipient email, then by second-granular
// timestamp. Bucket order preserves input order so matching is deterministic.
type openIndex struct {
	byEmail map[string]map[int64][]int
}

func indexOpens(opens []OpenRecord) *openIndex {
	idx := &openIndex{byEmail: make(map[string]map[int64][]int)}
	for i, o := range opens {
		buckets, ok := idx.byEmail[o.RecipientName]
		if !ok {
			buckets = make(map[int64][]int)
			idx.byEmail[o.RecipientName] = buckets
		}
		key := o.OpenedAt.Unix()
		buckets[key] = append(buckets[key], i)
	}
	return idx
}

// MatchSendOpen correlates every send event with at most one open event.
//
// Phase 1 scans offsets +0..+11s in order; Phase 2 rescans only the sends
// Phase 1 left unmatched, over +12..+60s. At each offset the candidates are
// the not-yet-consumed opens for that email at exactly send time plus the
// offset. Exactly one candidate is a match and consumes the open; more than
// one fails the send as ambiguous, permanently. Ambiguous Phase-1 failures
// are final and never rescanned.
//
// Sends are processed in input order, so an earlier send always gets first
// claim on a contested open.
func MatchSendOpen(sends []SendRecord, opens []OpenRecord) ([]SendOpenRecord, []FailedRecord) {
	idx := indexOpens(opens)
	used := make([]bool, len(opens))

	matched := make([]SendOpenRecord, 0, len(sends))
	var failed []FailedRecord
	var retry []int

	for i, send := range sends {
		buckets, ok := idx.byEmail[send.RecipientName]
		if !ok {
			failed = append(failed, FailedRecord{Send: send, Reason: ReasonNoOpenRecords})
			continue
		}

		rec, fail, found := scanWindow(send, opens, buckets, used, phase1MinOffset, phase1MaxOffset, 1)
		switch {
		case found:
			matched = append(matched, rec)
		case fail.Reason != "":
			failed = append(failed, fail)
		default:
			retry = append(retry, i)
		}
	}

	for _, i := range retry {
		send := sends[i]
		buckets := idx.byEmail[send.RecipientName]

		// With every open for this email already consumed, Phase 2 has
		// nothing to scan; the Phase-1 failure stands as is.
		if !anyUnused(buckets, used) {
			failed = append(failed, FailedRecord{Send: send, Reason: ReasonNoMatchPhase1})
			continue
		}

		rec, fail, found := scanWindow(send, opens, buckets, used, phase2MinOffset, phase2MaxOffset, 2)
		switch {
		case found:
			matched = append(matched, rec)
		case fail.Reason != "":
			failed = append(failed, fail)
		default:
			failed = append(failed, FailedRecord{Send: send, Reason: ReasonNoMatchPhase2})
		}
	}

	logger.Info("send/open matching complete",
		"sends", len(sends),
		"opens", len(opens),
		"matched", len(matched),
		"failed", len(failed))

	return matched, failed
}

func anyUnused(buckets map[int64][]int, used []bool) bool {
	for _, js := range buckets {
		for _, j := range js {
			if !used[j] {
				return true
			}
		}
	}
	return false
}

// scanWindow walks offsets lo..hi for one send. It returns the matched
// record, an ambiguity failure, or neither when no offset had any candidate
// (the caller decides between retrying and the terminal no-match reason).
func scanWindow(send SendRecord, opens []OpenRecord, buckets map[int64][]int, used []bool, lo, hi, phase int) (SendOpenRecord, FailedRecord, bool) {
	for offset := lo; offset <= hi; offset++ {
		key := send.SentAt.Add(time.Duration(offset) * time.Second).Unix()

		var candidates []int
		for _, j := range buckets[key] {
			if !used[j] {
				candidates = append(candidates, j)
			}
		}

		switch len(candidates) {
		case 0:
			continue
		case 1:
			j := candidates[0]
			used[j] = true
			return SendOpenRecord{
				Send:          send,
				Views:         opens[j].Views,
				Clicks:        opens[j].Clicks,
				MatchedOffset: offset,
				Phase:         phase,
			}, FailedRecord{}, true
		default:
			reason := ReasonMultipleMatches(offset)
			if phase == 2 {
				reason = ReasonMultipleMatchesPhase2(offset)
			}
			return SendOpenRecord{}, FailedRecord{
				Send:       send,
				Reason:     reason,
				MatchCount: len(candidates),
			}, false
		}
	}
	return SendOpenRecord{}, FailedRecord{}, false
}
