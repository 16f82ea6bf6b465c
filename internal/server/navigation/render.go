package navigation

import (
	"fmt"
	"strings"

	"github.com/p1nk23/TgBot/internal/server/models"
)

// PathSeparator joins breadcrumb labels.
const PathSeparator = " → "

// DefaultMessageLimit is the byte ceiling of one outbound message.
const DefaultMessageLimit = 4000

const (
	folderIcon  = "📁"
	unknownPath = "unknown path"
)

// KindIcon returns the listing prefix for a node of the given kind; nil is a
// folder.
func KindIcon(kind *models.AttachmentKind) string {
	if kind == nil {
		return folderIcon
	}
	switch *kind {
	case models.KindDocument:
		return "📎"
	case models.KindPhoto:
		return "🖼️"
	case models.KindVideo:
		return "🎥"
	case models.KindAudio:
		return "🎵"
	case models.KindVoice:
		return "🎤"
	case models.KindAnimation:
		return "🎬"
	default:
		panic(fmt.Sprintf("navigation: unhandled attachment kind %d", int(*kind)))
	}
}

// DefaultCaption is the label given to a media message sent without one.
func DefaultCaption(kind models.AttachmentKind) string {
	switch kind {
	case models.KindDocument:
		return "Document"
	case models.KindPhoto:
		return "Photo"
	case models.KindVideo:
		return "Video"
	case models.KindAudio:
		return "Audio"
	case models.KindVoice:
		return "Voice message"
	case models.KindAnimation:
		return "Animation"
	default:
		panic(fmt.Sprintf("navigation: unhandled attachment kind %d", int(kind)))
	}
}

// FormatPath joins a breadcrumb for display. An empty path renders as
// "unknown path".
func FormatPath(labels []string) string {
	if len(labels) == 0 {
		return unknownPath
	}
	return strings.Join(labels, PathSeparator)
}

func itemLine(it Item) string {
	return fmt.Sprintf("%s %s [%d]", KindIcon(it.Kind), it.Label, it.ID)
}

// Chunk packs blocks into messages of at most limit bytes, joining blocks
// with a newline. Blocks are never split: a block longer than limit is sent
// as a message of its own. limit <= 0 means DefaultMessageLimit.
func Chunk(blocks []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}

	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	for _, b := range blocks {
		if cur.Len() > 0 && cur.Len()+1+len(b) > limit {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(b)
		if cur.Len() >= limit {
			flush()
		}
	}
	flush()
	return out
}
