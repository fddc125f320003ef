package ir

// Well-known attribute names.
const (
	AttrGroupHost    = "GroupHost"
	AttrGroupMembers = "GroupMembers"
	AttrSourceFile   = "SourceFile"
)

// Attribute is a named payload attached to a record. A record carries at
// most one attribute per name.
type Attribute interface {
	AttributeName() string
}

// GroupHost declares that the record is a member of the group rooted at Host.
type GroupHost struct {
	Host TypeDesc
}

// GroupMembers lists the complete member set of the group hosted by the
// record that carries it.
type GroupMembers struct {
	Members []TypeDesc
}

// SourceFile records the source file name.
type SourceFile struct {
	Name string
}

// UnknownAttribute preserves an attribute the model does not interpret.
type UnknownAttribute struct {
	Name string
	Data []byte
}

func (GroupHost) AttributeName() string          { return AttrGroupHost }
func (GroupMembers) AttributeName() string       { return AttrGroupMembers }
func (SourceFile) AttributeName() string         { return AttrSourceFile }
func (a UnknownAttribute) AttributeName() string { return a.Name }

// Contains reports whether name is already a member.
func (g GroupMembers) Contains(name TypeDesc) bool {
	for _, m := range g.Members {
		if m == name {
			return true
		}
	}
	return false
}
