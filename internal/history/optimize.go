package history

import "github.com/coreflux/agentturn/pkg/models"

// optimizeMessages trims filtered history to cfg.MaxItems by bucket: all
// system-like entries are always kept, then the most recent important
// internal messages (capped), then the remaining budget is filled by the
// most recent user/assistant/tool messages in chronological order (spec
// §4.2 step 2).
func optimizeMessages(cfg *Config, messages []*models.Message) []*models.Message {
	if len(messages) <= cfg.MaxItems {
		return messages
	}

	var systemLike, important, ordinary []*models.Message
	for _, msg := range messages {
		switch {
		case isSystemLike(msg):
			systemLike = append(systemLike, msg)
		case isImportantInternal(msg):
			important = append(important, msg)
		default:
			ordinary = append(ordinary, msg)
		}
	}

	if len(important) > cfg.MaxImportantInternal {
		important = important[len(important)-cfg.MaxImportantInternal:]
	}

	budget := cfg.MaxItems - len(systemLike) - len(important)
	if budget < 0 {
		budget = 0
	}
	if len(ordinary) > budget {
		ordinary = ordinary[len(ordinary)-budget:]
	}

	return mergeChronological(systemLike, important, ordinary, messages)
}

// mergeChronological reassembles the three kept buckets in their original
// relative order, using the index in the source slice as the sort key.
func mergeChronological(systemLike, important, ordinary []*models.Message, source []*models.Message) []*models.Message {
	keep := make(map[*models.Message]bool, len(systemLike)+len(important)+len(ordinary))
	for _, m := range systemLike {
		keep[m] = true
	}
	for _, m := range important {
		keep[m] = true
	}
	for _, m := range ordinary {
		keep[m] = true
	}

	out := make([]*models.Message, 0, len(keep))
	for _, msg := range source {
		if keep[msg] {
			out = append(out, msg)
		}
	}
	return out
}
