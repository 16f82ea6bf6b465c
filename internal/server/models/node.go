// Package models defines server-side data models persisted in the database.
package models

import (
	"fmt"
	"strings"
)

// AttachmentKind is the closed set of media kinds a leaf can carry.
// Adding a kind means extending the constants, kindNames and every exhaustive
// switch over AttachmentKind.
type AttachmentKind int

const (
	KindDocument AttachmentKind = iota + 1
	KindPhoto
	KindVideo
	KindAudio
	KindVoice
	KindAnimation
)

var kindNames = map[AttachmentKind]string{
	KindDocument:  "document",
	KindPhoto:     "photo",
	KindVideo:     "video",
	KindAudio:     "audio",
	KindVoice:     "voice",
	KindAnimation: "animation",
}

// AttachmentKinds lists every kind in declaration order.
func AttachmentKinds() []AttachmentKind {
	return []AttachmentKind{KindDocument, KindPhoto, KindVideo, KindAudio, KindVoice, KindAnimation}
}

func (k AttachmentKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("AttachmentKind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k AttachmentKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseAttachmentKind maps the stored text form back to a kind.
func ParseAttachmentKind(s string) (AttachmentKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown attachment kind %q", s)
}

// Attachment references a media blob held by the transport or object storage.
// The server never touches the bytes.
type Attachment struct {
	MediaReference string
	Kind           AttachmentKind
}

// Node is a single entry of a user's tree. A node with an attachment is a
// leaf, otherwise it is a folder.
type Node struct {
	ID         int64
	OwnerID    int64
	ParentID   *int64
	Label      string
	Attachment *Attachment
}

// IsLeaf reports whether the node carries an attachment.
func (n *Node) IsLeaf() bool {
	return n.Attachment != nil
}
