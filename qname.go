package xsd

import (
	"fmt"
	"strings"
)

// XSDNamespace is the XML Schema namespace.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

// XSINamespace is the XML Schema instance namespace (xsi:nil and friends).
const XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"

// QName represents a qualified name.
type QName struct {
	Namespace string
	Local     string
}

// String returns the string representation of a QName.
func (q QName) String() string {
	if q.Namespace == "" {
		return q.Local
	}
	return fmt.Sprintf("{%s}%s", q.Namespace, q.Local)
}

// IsZero reports whether the QName is empty.
func (q QName) IsZero() bool {
	return q.Namespace == "" && q.Local == ""
}

// ParseQName parses an extended-form name ("{namespace}local" or plain
// "local") into a QName.
func ParseQName(name string) QName {
	if strings.HasPrefix(name, "{") {
		if i := strings.Index(name, "}"); i > 0 {
			return QName{Namespace: name[1:i], Local: name[i+1:]}
		}
	}
	return QName{Local: name}
}

// XSDName returns a QName in the XML Schema namespace.
func XSDName(local string) QName {
	return QName{Namespace: XSDNamespace, Local: local}
}
