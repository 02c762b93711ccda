package history

import "github.com/coreflux/agentturn/pkg/models"

// filterMessages drops plain system messages (the system prompt travels
// out-of-band) and internal messages whose type is not in the keepable
// set, retaining every user/assistant/tool message (spec §4.2 step 1).
func filterMessages(messages []*models.Message) []*models.Message {
	out := make([]*models.Message, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		if msg.Role == models.RoleSystem {
			if msg.IsInternal && isKeepableInternal(msg.MessageType) {
				out = append(out, msg)
			}
			continue
		}
		out = append(out, msg)
	}
	return out
}

func isKeepableInternal(t models.MessageType) bool {
	return models.KeepableInternalTypes[t]
}

func isImportantInternal(msg *models.Message) bool {
	return msg.IsInternal && models.ImportantInternalTypes[msg.MessageType]
}

func isSystemLike(msg *models.Message) bool {
	return msg.Role == models.RoleSystem
}
